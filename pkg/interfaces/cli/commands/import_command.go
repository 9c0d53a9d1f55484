package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/batchplan/pkg/domain/services"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/sqlite"
)

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load a CSV data directory into the SQLite database",
		Long: `Load catalog.csv, templates.csv and sales.csv from the data directory into
the SQLite database, replacing what it held. Templates are checked for
duplicates and cycles first. Migrations run before the import.`,
		Example: `  batchplan import --data ./data --db batchplan.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := a.cfg.Storage.DataDir
			dbPath := a.cfg.Storage.DBPath

			scenario, err := csv.NewLoader().LoadScenario(dataDir)
			if err != nil {
				return fmt.Errorf("failed to load data from %s: %w", dataDir, err)
			}

			validation := services.NewTemplateValidator().Validate(scenario.Items, scenario.Templates)
			for _, warning := range validation.Warnings {
				a.logger.Warn("template check", "warning", warning)
			}
			if !validation.Valid() {
				errs := make([]error, 0, len(validation.Errors))
				for _, msg := range validation.Errors {
					errs = append(errs, errors.New(msg))
				}
				return fmt.Errorf("invalid templates in %s: %w", dataDir, errors.Join(errs...))
			}

			db, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := sqlite.Import(cmd.Context(), db, scenario.Items, scenario.Templates)
			if err != nil {
				return err
			}

			a.logger.Info("import finished",
				"db_path", dbPath,
				"items", stats.Items,
				"sales_rows", stats.SalesRows,
				"templates", stats.Templates)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Imported into %s:\n", dbPath)
			fmt.Fprintf(out, "  Catalog Items: %d\n", stats.Items)
			fmt.Fprintf(out, "  Sales Records: %d\n", stats.SalesRows)
			fmt.Fprintf(out, "  Templates: %d (%d ingredients)\n", stats.Templates, stats.Ingredients)
			return nil
		},
	}
}
