package migration

import (
	"context"

	"featurelab/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The schema sticks to types
// that PostgreSQL and SQLite share so one set of statements serves both.
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

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunHistoryTable(ctx, db); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to create run_history table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createRunHistoryTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_history (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			feature_count INTEGER NOT NULL,
			reduction TEXT NOT NULL,
			components INTEGER NOT NULL,
			algorithm TEXT NOT NULL,
			clusters INTEGER NOT NULL,
			noise_count INTEGER NOT NULL DEFAULT 0,
			seed BIGINT NOT NULL,
			fingerprint TEXT NOT NULL,
			messages TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_run_history_created_at ON run_history (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_history_session ON run_history (session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_run_history_fingerprint ON run_history (fingerprint)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
