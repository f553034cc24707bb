package migration

import (
	"context"
	"fmt"

	"causelens/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations for postgres and sqlite
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// column types that differ between dialects
type dialect struct {
	json      string
	timestamp string
	now       string
	serial    string
}

func dialectOf(db *sqlx.DB) (dialect, error) {
	switch db.DriverName() {
	case "postgres", "pgx":
		return dialect{json: "JSONB", timestamp: "TIMESTAMP WITH TIME ZONE", now: "NOW()", serial: "BIGSERIAL"}, nil
	case "sqlite", "sqlite3":
		return dialect{json: "TEXT", timestamp: "TIMESTAMP", now: "CURRENT_TIMESTAMP", serial: "INTEGER"}, nil
	}
	return dialect{}, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", db.DriverName()))
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	d, err := dialectOf(db)
	if err != nil {
		return err
	}

	if err := r.createDatasetsTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create datasets table")
	}

	if err := r.createDatasetRowsTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create dataset_rows table")
	}

	if err := r.createEstimatesTable(ctx, db, d); err != nil {
		return errors.Wrap(err, "failed to create rd_estimates table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createDatasetsTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS datasets (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			original_filename VARCHAR(255) NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			columns %[1]s,
			status VARCHAR(32) NOT NULL DEFAULT 'processing',
			error_message TEXT,
			metadata %[1]s,
			created_at %[2]s DEFAULT %[3]s,
			updated_at %[2]s DEFAULT %[3]s
		)
	`, d.json, d.timestamp, d.now))
	return err
}

func (r *MigrationRunner) createDatasetRowsTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS dataset_rows (
			id %[1]s PRIMARY KEY,
			dataset_id VARCHAR(64) NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			data %[2]s NOT NULL
		)
	`, d.serial, d.json))
	return err
}

func (r *MigrationRunner) createEstimatesTable(ctx context.Context, db *sqlx.DB, d dialect) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS rd_estimates (
			analysis_id VARCHAR(128) PRIMARY KEY,
			dataset_name VARCHAR(255) NOT NULL DEFAULT '',
			running VARCHAR(255) NOT NULL DEFAULT '',
			outcome VARCHAR(255) NOT NULL DEFAULT '',
			cutoff DOUBLE PRECISION NOT NULL,
			bandwidth DOUBLE PRECISION NOT NULL,
			poly_order INTEGER NOT NULL DEFAULT 1,
			kernel VARCHAR(32) NOT NULL DEFAULT 'triangular',
			treatment_side VARCHAR(16) NOT NULL DEFAULT 'above',
			effect DOUBLE PRECISION NOT NULL DEFAULT 0,
			std_error DOUBLE PRECISION NOT NULL DEFAULT 0,
			p_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at %[1]s DEFAULT %[2]s
		)
	`, d.timestamp, d.now))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_dataset_rows_dataset ON dataset_rows(dataset_id, row_index)`,
		`CREATE INDEX IF NOT EXISTS idx_rd_estimates_dataset ON rd_estimates(dataset_name)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
