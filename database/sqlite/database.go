package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/filebox"

	_ "modernc.org/sqlite" // SQLite driver
)

// busyTimeoutMillis bounds how long a writer waits on a locked database.
const busyTimeoutMillis = 5000

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables filebox.Tables
}

// Connect opens the SQLite database at dsn.
// Tables should be validated before calling Connect.
//
// The pool is limited to a single connection: SQLite allows one writer at a
// time, ":memory:" databases are private to their connection, and the
// pragmas below apply to one connection only. Concurrent callers are safe
// but take turns, so reads wait behind writes. Every index operation is a
// single short statement; deployments that need parallel readers use the
// postgres backend.
func Connect(ctx context.Context, dsn string, tables filebox.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis),
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect sqlite: %s: %w", pragma, err)
		}
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *database) GetRepo() filebox.MetaDataRepo {
	return NewRepo(d.db, d.tables.MetaData)
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
