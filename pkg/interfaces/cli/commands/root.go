package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vsinha/batchplan/pkg/application/services/planning"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
	"github.com/vsinha/batchplan/pkg/infrastructure/config"
	"github.com/vsinha/batchplan/pkg/infrastructure/logger"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/sqlite"
)

// app carries state shared by all subcommands once flags are parsed
type app struct {
	configFile string
	logLevel   string
	logFormat  string
	storage    string
	dataDir    string
	dbPath     string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the batchplan command tree
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "batchplan",
		Short: "Batch production planning for semiproducts",
		Long: `batchplan splits a batch of a semiproduct across the packaged variants
that consume it, balancing how many days of sales each variant's stock covers.

The batch size comes from a total weight, a multiple of the variants' minimum
manufacture quantities, or a target number of coverage days.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default .batchplan.yaml if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text, json")
	flags.StringVar(&a.storage, "storage", "", "Storage driver: csv, sqlite")
	flags.StringVar(&a.dataDir, "data", "", "Directory with catalog.csv, templates.csv and sales.csv")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database path")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.init(cmd)
	}

	cmd.AddCommand(newPlanCommand(a))
	cmd.AddCommand(newImportCommand(a))
	cmd.AddCommand(newServeCommand(a))

	return cmd
}

// init loads configuration, applies flag overrides and sets up logging
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("storage") {
		cfg.Storage.Driver = a.storage
	}
	if flags.Changed("data") {
		cfg.Storage.DataDir = a.dataDir
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.Init(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// planningOptions maps configuration onto orchestrator options
func (a *app) planningOptions() planning.Options {
	p := a.cfg.Planning
	return planning.Options{
		SalesThreshold:      p.SalesThreshold,
		BalanceLowVelocity:  p.BalanceLowVelocity,
		SalesWindowDays:     p.SalesWindowDays,
		TargetToleranceDays: p.TargetToleranceDays,
		TargetMaxIterations: p.TargetMaxIterations,
		LookupConcurrency:   p.LookupConcurrency,
	}
}

// orchestrator opens the configured storage and wires a planning orchestrator.
// The returned function releases the storage.
func (a *app) orchestrator(ctx context.Context) (*planning.Orchestrator, func(), error) {
	var (
		catalogRepo  repositories.CatalogRepository
		templateRepo repositories.TemplateRepository
		closeFn      = func() {}
	)

	switch a.cfg.Storage.Driver {
	case config.StorageSQLite:
		db, err := sqlite.Open(a.cfg.Storage.DBPath)
		if err != nil {
			return nil, nil, err
		}
		catalogRepo = sqlite.NewCatalogRepository(db)
		templateRepo = sqlite.NewTemplateRepository(db)
		closeFn = func() { db.Close() }

	default:
		scenario, err := csv.NewLoader().LoadScenario(a.cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load data from %s: %w", a.cfg.Storage.DataDir, err)
		}
		memCatalog, memTemplates, err := scenario.Repositories()
		if err != nil {
			return nil, nil, err
		}
		catalogRepo, templateRepo = memCatalog, memTemplates
	}

	a.logger.DebugContext(ctx, "storage opened",
		"driver", a.cfg.Storage.Driver,
		"data_dir", a.cfg.Storage.DataDir,
		"db_path", a.cfg.Storage.DBPath)

	orchestrator := planning.NewOrchestrator(catalogRepo, templateRepo, a.planningOptions()).
		WithLogger(a.logger)
	return orchestrator, closeFn, nil
}
