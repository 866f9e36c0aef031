// Package bolt implements the metadata repo on an embedded bbolt file.
//
// Records live in a single bucket keyed by filename. Each value is the
// upload time as the big-endian IEEE 754 bits of fractional Unix seconds.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sagarc03/filebox"
	"go.etcd.io/bbolt"
)

const timestampSize = 8

type repo struct {
	db     *bbolt.DB
	bucket []byte
}

// NewRepo returns a repo backed by bucket. The bucket must exist; see
// Migrate on the database returned by Connect.
func NewRepo(db *bbolt.DB, bucket string) filebox.MetaDataRepo {
	return &repo{db: db, bucket: []byte(bucket)}
}

func encodeTimestamp(seconds float64) []byte {
	buf := make([]byte, timestampSize)
	binary.BigEndian.PutUint64(buf, math.Float64bits(seconds))
	return buf
}

func decodeTimestamp(v []byte) (float64, error) {
	if len(v) != timestampSize {
		return 0, fmt.Errorf("corrupt timestamp: %d bytes", len(v))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(v)), nil
}

func (r *repo) bucketFor(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(r.bucket)
	if b == nil {
		return nil, fmt.Errorf("bucket %s does not exist", r.bucket)
	}
	return b, nil
}

func (r *repo) Get(ctx context.Context, filename string) (filebox.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return filebox.FileRecord{}, err
	}

	var seconds float64
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := r.bucketFor(tx)
		if err != nil {
			return err
		}
		v := b.Get([]byte(filename))
		if v == nil {
			return filebox.ErrNotFound
		}
		seconds, err = decodeTimestamp(v)
		return err
	})
	if err != nil {
		return filebox.FileRecord{}, fmt.Errorf("get: %w", err)
	}

	return filebox.FileRecord{Filename: filename, UploadedAt: filebox.FromUnixSeconds(seconds)}, nil
}

func (r *repo) Upsert(ctx context.Context, filename string, uploadedAt time.Time) (filebox.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return filebox.FileRecord{}, err
	}

	seconds := filebox.UnixSeconds(uploadedAt)
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.bucketFor(tx)
		if err != nil {
			return err
		}
		return b.Put([]byte(filename), encodeTimestamp(seconds))
	})
	if err != nil {
		return filebox.FileRecord{}, fmt.Errorf("upsert: %w", err)
	}

	return filebox.FileRecord{Filename: filename, UploadedAt: filebox.FromUnixSeconds(seconds)}, nil
}

func (r *repo) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.bucketFor(tx)
		if err != nil {
			return err
		}
		key := []byte(filename)
		if b.Get(key) == nil {
			return filebox.ErrNotFound
		}
		return b.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

type rawRecord struct {
	filename string
	seconds  float64
}

func (r *repo) List(ctx context.Context) ([]filebox.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []rawRecord
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := r.bucketFor(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			seconds, err := decodeTimestamp(v)
			if err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
			raw = append(raw, rawRecord{filename: string(k), seconds: seconds})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	// ForEach yields keys in byte order, so a stable sort on time keeps
	// filename order within ties.
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].seconds > raw[j].seconds
	})

	items := make([]filebox.FileRecord, 0, len(raw))
	for _, rec := range raw {
		items = append(items, filebox.FileRecord{
			Filename:   rec.filename,
			UploadedAt: filebox.FromUnixSeconds(rec.seconds),
		})
	}

	return items, nil
}
