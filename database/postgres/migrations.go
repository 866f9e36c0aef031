package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filebox"
)

// Migrate creates every table the repo needs. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filebox.Tables) error {
	if err := createMetaTable(ctx, pool, tables.MetaData); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.MetaData, err)
	}
	return nil
}

// DropTables removes every table created by Migrate.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filebox.Tables) error {
	quotedTable := pgx.Identifier{tables.MetaData}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quotedTable)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.MetaData, err)
	}
	return nil
}

func createMetaTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexUploadedAt := pgx.Identifier{fmt.Sprintf("idx_%s_uploaded_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT NOT NULL UNIQUE,
			uploaded_at DOUBLE PRECISION NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (uploaded_at DESC, filename);
	`,
		quotedTable,
		indexUploadedAt, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}
