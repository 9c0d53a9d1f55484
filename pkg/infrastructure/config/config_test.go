package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Planning.SalesThreshold != DefaultSalesThreshold {
		t.Errorf("Expected default threshold %g, got %g", DefaultSalesThreshold, cfg.Planning.SalesThreshold)
	}
	if !cfg.Planning.BalanceLowVelocity {
		t.Error("Expected low velocity balancing to default to true")
	}
	if cfg.Storage.Driver != StorageCSV {
		t.Errorf("Expected csv storage, got %s", cfg.Storage.Driver)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Expected port %d, got %d", DefaultServerPort, cfg.Server.Port)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultFileName, `
planning:
  balance_low_velocity: false
  target_max_iterations: 20
storage:
  driver: sqlite
  db_path: plans.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Planning.BalanceLowVelocity {
		t.Error("Expected balance_low_velocity false from file")
	}
	if cfg.Planning.TargetMaxIterations != 20 {
		t.Errorf("Expected 20 iterations, got %d", cfg.Planning.TargetMaxIterations)
	}
	if cfg.Planning.SalesWindowDays != DefaultSalesWindowDays {
		t.Errorf("Expected untouched window default, got %d", cfg.Planning.SalesWindowDays)
	}
	if cfg.Storage.Driver != StorageSQLite || cfg.Storage.DBPath != "plans.db" {
		t.Errorf("Unexpected storage config: %+v", cfg.Storage)
	}
}

func TestLoad_EnvironmentPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultFileName, "server:\n  port: 9000\n")
	writeFile(t, dir, DefaultEnvFile, "BATCHPLAN_PORT=9100\nBATCHPLAN_LOG_LEVEL=debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Expected .env to override file port, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug log level from .env, got %s", cfg.Log.Level)
	}

	t.Setenv("BATCHPLAN_PORT", "9200")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("Expected process env to override .env, got %d", cfg.Server.Port)
	}
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		env         map[string]string
		expectError string
	}{
		{
			name:        "invalid yaml",
			yaml:        "planning: [",
			expectError: "parsing",
		},
		{
			name:        "unknown driver",
			yaml:        "storage:\n  driver: postgres\n",
			expectError: `unknown storage driver "postgres"`,
		},
		{
			name:        "bad env integer",
			env:         map[string]string{"BATCHPLAN_SALES_WINDOW_DAYS": "year"},
			expectError: "BATCHPLAN_SALES_WINDOW_DAYS: invalid integer",
		},
		{
			name:        "bad env bool",
			env:         map[string]string{"BATCHPLAN_BALANCE_LOW_VELOCITY": "maybe"},
			expectError: "invalid boolean",
		},
		{
			name:        "out of range",
			env:         map[string]string{"BATCHPLAN_TARGET_TOLERANCE_DAYS": "0"},
			expectError: "target tolerance must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, DefaultFileName, tc.yaml)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatalf("Expected error containing %q, got none", tc.expectError)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error containing %q, got %q", tc.expectError, err.Error())
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for explicit missing config file")
	}
}
