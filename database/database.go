package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/database/bolt"
	"github.com/sagarc03/filebox/database/postgres"
	"github.com/sagarc03/filebox/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite", "postgres" or "bolt"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres bolt"`
	// DSN is the data source name (connection string or file path)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the table (or bucket) names
	Tables filebox.Tables `mapstructure:"tables"`
}

// Database is an open metadata backend.
type Database interface {
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates the tables the repo needs. It is idempotent.
	Migrate(ctx context.Context) error
	// Validate checks that the existing schema matches what the repo expects.
	Validate(ctx context.Context) error
	// GetRepo returns the repo bound to the configured tables.
	GetRepo() filebox.MetaDataRepo
	// Close releases the connection.
	Close() error
}

// Connect opens the configured backend. It does not migrate or validate;
// callers decide which of the two applies.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "bolt":
		db, err := bolt.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, migrates and validates in one step. It is what the server
// uses at startup.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}
