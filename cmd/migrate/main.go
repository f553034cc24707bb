package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"causelens/adapters/excel"
	"causelens/adapters/postgres"
	"causelens/domain/dataset"
	"causelens/internal/config"
	"causelens/internal/container"
	"causelens/internal/migration"
	"causelens/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var dbConfig config.DatabaseConfig

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and import datasets",
	}
	rootCmd.PersistentFlags().StringVar(&dbConfig.Driver, "driver", envOr("DATABASE_DRIVER", "postgres"), "Database driver (postgres or sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbConfig.URL, "url", os.Getenv("DATABASE_URL"), "Database URL or sqlite file")

	rootCmd.AddCommand(
		newUpCmd(&dbConfig),
		newImportCmd(&dbConfig),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openMigrated connects and brings the schema up to date
func openMigrated(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := container.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Schema at version %s (%s)", runner.Version(), db.DriverName())
	return db, nil
}

func newUpCmd(dbConfig *config.DatabaseConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openMigrated(cmd.Context(), *dbConfig)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func newImportCmd(dbConfig *config.DatabaseConfig) *cobra.Command {
	var name string
	var limit int

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a CSV or XLSX file as a named dataset",
		Long: `Import a CSV or XLSX file (first sheet, header row) as a dataset.
The dataset name defaults to the file name without extension.

Example: migrate import scores.csv --name scores`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openMigrated(ctx, *dbConfig)
			if err != nil {
				return err
			}
			defer db.Close()

			ds, err := importFile(ctx, postgres.NewDatasetRepository(db), args[0], name, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into dataset %q (%s)\n", ds.RecordCount, ds.Name, ds.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Dataset name (defaults to the file name)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to import (0 imports all)")

	return cmd
}

// importFile stores a file's rows under a new dataset. The dataset ends up
// ready, or failed with the error recorded.
func importFile(ctx context.Context, repo ports.DatasetRepository, path, name string, limit int) (*dataset.Dataset, error) {
	if name == "" {
		base := filepath.Base(path)
		name = base[:len(base)-len(filepath.Ext(base))]
	}

	table, err := excel.NewDataReader(path).ReadData(limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	ds := dataset.NewDataset(name, filepath.Base(path))
	ds.Columns = table.Headers
	if err := repo.Create(ctx, ds); err != nil {
		return nil, err
	}

	if err := repo.InsertRows(ctx, ds.ID, table.Rows); err != nil {
		if statusErr := repo.UpdateStatus(ctx, ds.ID, dataset.StatusFailed, err.Error()); statusErr != nil {
			log.Printf("Failed to mark dataset %s failed: %v", ds.ID, statusErr)
		}
		return nil, err
	}
	if err := repo.UpdateStatus(ctx, ds.ID, dataset.StatusReady, ""); err != nil {
		return nil, err
	}
	return repo.GetByName(ctx, name)
}
