// Package sqlite implements the metadata repo on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/filebox"
)

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a MetaDataRepo backed by tableName.
// The table must exist; see Migrate.
func NewRepo(db *sql.DB, tableName string) filebox.MetaDataRepo {
	return &repo{db: db, tableName: quoteIdentifier(tableName)}
}

func (r *repo) Get(ctx context.Context, filename string) (filebox.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT filename, uploaded_at FROM %s WHERE filename = ?`, r.tableName)

	var m filebox.FileRecord
	var uploadedAt float64

	err := r.db.QueryRowContext(ctx, query, filename).Scan(&m.Filename, &uploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filebox.FileRecord{}, filebox.ErrNotFound
		}
		return filebox.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	m.UploadedAt = filebox.FromUnixSeconds(uploadedAt)
	return m, nil
}

func (r *repo) Upsert(ctx context.Context, filename string, uploadedAt time.Time) (filebox.FileRecord, error) {
	seconds := filebox.UnixSeconds(uploadedAt)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (filename, uploaded_at) VALUES (?, ?)
		ON CONFLICT (filename) DO UPDATE SET uploaded_at = excluded.uploaded_at`, r.tableName)

	if _, err := r.db.ExecContext(ctx, query, filename, seconds); err != nil {
		return filebox.FileRecord{}, fmt.Errorf("upsert: %w", err)
	}

	return filebox.FileRecord{
		Filename:   filename,
		UploadedAt: filebox.FromUnixSeconds(seconds),
	}, nil
}

func (r *repo) Delete(ctx context.Context, filename string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE filename = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	result, err := r.db.ExecContext(ctx, query, filename)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", filebox.ErrNotFound)
	}

	return nil
}

func (r *repo) List(ctx context.Context) ([]filebox.FileRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT filename, uploaded_at FROM %s ORDER BY uploaded_at DESC, filename ASC`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []filebox.FileRecord{}
	for rows.Next() {
		var m filebox.FileRecord
		var uploadedAt float64

		if scanErr := rows.Scan(&m.Filename, &uploadedAt); scanErr != nil {
			return nil, fmt.Errorf("list: scan: %w", scanErr)
		}

		m.UploadedAt = filebox.FromUnixSeconds(uploadedAt)
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return items, nil
}
