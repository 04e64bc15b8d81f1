// Package sqlstore keeps run history in PostgreSQL or an embedded SQLite database
package sqlstore

import (
	"context"

	"featurelab/internal"
	"featurelab/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var logger = internal.DefaultLogger.With("SQLStore")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the database and verifies the connection. SQLite is limited to
// one connection so an in-memory database is shared by every query.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to connect to "+driver)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	logger.Info("connected to %s run history", driver)
	return db, nil
}
