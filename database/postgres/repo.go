// Package postgres implements the metadata repo on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filebox"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo returns a repo backed by tableName. The table must exist; see
// Migrate.
func NewRepo(pool *pgxpool.Pool, tableName string) *Repo {
	return &Repo{pool: pool, tableName: pgx.Identifier{tableName}.Sanitize()}
}

func (r *Repo) Get(ctx context.Context, filename string) (filebox.FileRecord, error) {
	query := fmt.Sprintf(`SELECT filename, uploaded_at FROM %s WHERE filename = $1`, r.tableName)

	var m filebox.FileRecord
	var uploadedAt float64
	err := r.pool.QueryRow(ctx, query, filename).Scan(&m.Filename, &uploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filebox.FileRecord{}, filebox.ErrNotFound
		}
		return filebox.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	m.UploadedAt = filebox.FromUnixSeconds(uploadedAt)
	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, filename string, uploadedAt time.Time) (filebox.FileRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (filename, uploaded_at)
		VALUES ($1, $2)
		ON CONFLICT (filename) DO UPDATE SET uploaded_at = EXCLUDED.uploaded_at
		RETURNING filename, uploaded_at
	`, r.tableName)

	var m filebox.FileRecord
	var stored float64
	err := r.pool.QueryRow(ctx, query, filename, filebox.UnixSeconds(uploadedAt)).Scan(&m.Filename, &stored)
	if err != nil {
		return filebox.FileRecord{}, fmt.Errorf("upsert: %w", err)
	}

	m.UploadedAt = filebox.FromUnixSeconds(stored)
	return m, nil
}

func (r *Repo) Delete(ctx context.Context, filename string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE filename = $1`, r.tableName)

	tag, err := r.pool.Exec(ctx, query, filename)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", filebox.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context) ([]filebox.FileRecord, error) {
	query := fmt.Sprintf(`
		SELECT filename, uploaded_at
		FROM %s
		ORDER BY uploaded_at DESC, filename COLLATE "C" ASC
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := []filebox.FileRecord{}
	for rows.Next() {
		var m filebox.FileRecord
		var uploadedAt float64
		if err := rows.Scan(&m.Filename, &uploadedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		m.UploadedAt = filebox.FromUnixSeconds(uploadedAt)
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return items, nil
}
