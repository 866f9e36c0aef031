package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/filebox"
	"go.etcd.io/bbolt"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

type database struct {
	db     *bbolt.DB
	tables filebox.Tables
}

// Connect opens (or creates) the bbolt file at path.
// Tables should be validated before calling Connect; the metadata table
// name becomes the bucket name.
func Connect(_ context.Context, path string, tables filebox.Tables) (*database, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("connect bolt: %w", err)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database file is still open.
func (d *database) Ping(_ context.Context) error {
	return d.db.View(func(*bbolt.Tx) error { return nil })
}

// Migrate creates the metadata bucket.
func (d *database) Migrate(_ context.Context) error {
	err := d.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(d.tables.MetaData))
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the metadata bucket exists and every value in it is
// a well-formed timestamp.
func (d *database) Validate(_ context.Context) error {
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(d.tables.MetaData))
		if b == nil {
			return fmt.Errorf("bucket %s does not exist", d.tables.MetaData)
		}
		return b.ForEach(func(k, v []byte) error {
			if v == nil {
				return fmt.Errorf("key %q is a nested bucket", k)
			}
			if len(v) != timestampSize {
				return fmt.Errorf("key %q: expected %d byte value, got %d", k, timestampSize, len(v))
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", d.tables.MetaData, err)
	}
	return nil
}

// GetRepo returns the MetaDataRepo for database operations.
func (d *database) GetRepo() filebox.MetaDataRepo {
	return NewRepo(d.db, d.tables.MetaData)
}

// Close closes the database file.
func (d *database) Close() error {
	if err := d.db.Close(); err != nil && !errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return err
	}
	return nil
}
