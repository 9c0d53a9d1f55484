// Package config loads batchplan settings from defaults, an optional
// .batchplan.yaml file, an optional .env file and BATCHPLAN_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for configuration
const (
	DefaultFileName = ".batchplan.yaml"
	DefaultEnvFile  = ".env"

	DefaultSalesThreshold      = 0.5
	DefaultSalesWindowDays     = 365
	DefaultTargetToleranceDays = 0.1
	DefaultTargetMaxIterations = 50
	DefaultLookupConcurrency   = 8

	DefaultStorageDriver = StorageCSV
	DefaultDataDir       = "data"
	DefaultDBPath        = "batchplan.db"

	DefaultServerPort       = 8080
	DefaultHistoryRetention = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Storage drivers
const (
	StorageCSV    = "csv"
	StorageSQLite = "sqlite"
)

const envPrefix = "BATCHPLAN_"

// PlanningConfig holds optimizer and orchestrator tuning
type PlanningConfig struct {
	SalesThreshold      float64 `yaml:"sales_threshold"`
	BalanceLowVelocity  bool    `yaml:"balance_low_velocity"`
	SalesWindowDays     int     `yaml:"sales_window_days"`
	TargetToleranceDays float64 `yaml:"target_tolerance_days"`
	TargetMaxIterations int     `yaml:"target_max_iterations"`
	LookupConcurrency   int     `yaml:"lookup_concurrency"`
}

// StorageConfig selects where catalog and templates are read from
type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`
	// HistoryRetention is how many plan events are kept per semiproduct
	HistoryRetention int `yaml:"history_retention"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level configuration
type Config struct {
	Planning PlanningConfig `yaml:"planning"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// New returns a Config with all defaults populated
func New() *Config {
	return &Config{
		Planning: PlanningConfig{
			SalesThreshold:      DefaultSalesThreshold,
			BalanceLowVelocity:  true,
			SalesWindowDays:     DefaultSalesWindowDays,
			TargetToleranceDays: DefaultTargetToleranceDays,
			TargetMaxIterations: DefaultTargetMaxIterations,
			LookupConcurrency:   DefaultLookupConcurrency,
		},
		Storage: StorageConfig{
			Driver:  DefaultStorageDriver,
			DataDir: DefaultDataDir,
			DBPath:  DefaultDBPath,
		},
		Server: ServerConfig{
			Port:             DefaultServerPort,
			HistoryRetention: DefaultHistoryRetention,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration. When configFile is empty, .batchplan.yaml in
// the working directory is used if present. A .env file next to the config
// file fills in variables missing from the process environment.
func Load(configFile string) (*Config, error) {
	cfg := New()

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultFileName
	}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("loading %s: %w", configFile, err)
	}

	dotenv, err := readEnvFile(filepath.Join(filepath.Dir(configFile), DefaultEnvFile))
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, envLookup(dotenv)); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	var errs []error

	if c.Planning.SalesThreshold < 0 {
		errs = append(errs, fmt.Errorf("sales threshold cannot be negative, got %g", c.Planning.SalesThreshold))
	}
	if c.Planning.SalesWindowDays < 1 {
		errs = append(errs, fmt.Errorf("sales window must be at least 1 day, got %d", c.Planning.SalesWindowDays))
	}
	if c.Planning.TargetToleranceDays <= 0 {
		errs = append(errs, fmt.Errorf("target tolerance must be positive, got %g", c.Planning.TargetToleranceDays))
	}
	if c.Planning.TargetMaxIterations < 1 {
		errs = append(errs, fmt.Errorf("target iteration cap must be at least 1, got %d", c.Planning.TargetMaxIterations))
	}
	if c.Planning.LookupConcurrency < 1 {
		errs = append(errs, fmt.Errorf("lookup concurrency must be at least 1, got %d", c.Planning.LookupConcurrency))
	}

	switch c.Storage.Driver {
	case StorageCSV, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q (expected %s or %s)",
			c.Storage.Driver, StorageCSV, StorageSQLite))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.HistoryRetention < 1 {
		errs = append(errs, fmt.Errorf("history retention must be at least 1, got %d", c.Server.HistoryRetention))
	}

	return errors.Join(errs...)
}

// readEnvFile parses a dotenv file without touching the process environment
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

// envLookup prefers the process environment over dotenv values
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok && value != ""
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if value, ok := lookup(envPrefix + name); ok {
			*dst = strings.TrimSpace(value)
		}
	}
	integer := func(name string, dst *int) {
		if value, ok := lookup(envPrefix + name); ok {
			parsed, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid integer %q", envPrefix, name, value))
				return
			}
			*dst = parsed
		}
	}
	float := func(name string, dst *float64) {
		if value, ok := lookup(envPrefix + name); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid number %q", envPrefix, name, value))
				return
			}
			*dst = parsed
		}
	}
	boolean := func(name string, dst *bool) {
		if value, ok := lookup(envPrefix + name); ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid boolean %q", envPrefix, name, value))
				return
			}
			*dst = parsed
		}
	}

	float("SALES_THRESHOLD", &cfg.Planning.SalesThreshold)
	boolean("BALANCE_LOW_VELOCITY", &cfg.Planning.BalanceLowVelocity)
	integer("SALES_WINDOW_DAYS", &cfg.Planning.SalesWindowDays)
	float("TARGET_TOLERANCE_DAYS", &cfg.Planning.TargetToleranceDays)
	integer("TARGET_MAX_ITERATIONS", &cfg.Planning.TargetMaxIterations)
	integer("LOOKUP_CONCURRENCY", &cfg.Planning.LookupConcurrency)

	str("STORAGE", &cfg.Storage.Driver)
	str("DATA_DIR", &cfg.Storage.DataDir)
	str("DB_PATH", &cfg.Storage.DBPath)

	integer("PORT", &cfg.Server.Port)
	integer("HISTORY_RETENTION", &cfg.Server.HistoryRetention)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}
