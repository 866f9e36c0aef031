// Package filesystem provides the local directory blob store for filebox.
// Every blob is a regular file directly inside the root directory, named by
// its filename. Writes go to a temp file first and are renamed into place,
// so readers never see a partially written blob.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/filebox"
)

// tmpPrefix marks in-flight uploads. List skips entries carrying it.
const tmpPrefix = filebox.ReservedPrefix + "tmp-"

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens a blob for reading. Returns filebox.ErrNotFound if no regular
// file exists under filename.
func (s *Store) Get(ctx context.Context, filename string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, filebox.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, filebox.ErrNotFound
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content under filename using a temp file and
// rename. It returns the number of bytes written and a SHA256-based etag.
// The operation respects context cancellation; on any failure the temp file
// is removed and a previous blob under the same name is left untouched.
func (s *Store) Write(ctx context.Context, filename string, content io.Reader) (filebox.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return filebox.SaveResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return filebox.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	fileSizeBytes, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return filebox.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return filebox.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return filebox.SaveResult{}, fmt.Errorf("could not close written file: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, filename); renameErr != nil {
		return filebox.SaveResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	success = true

	return filebox.SaveResult{BytesWritten: fileSizeBytes, Etag: etag}, nil
}

// Delete removes a blob. Returns filebox.ErrNotFound if no regular file
// exists under filename.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.root.Lstat(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return filebox.ErrNotFound
		}
		return fmt.Errorf("could not stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return filebox.ErrNotFound
	}

	if err := s.root.Remove(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return filebox.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// Exists reports whether a regular file is stored under filename.
func (s *Store) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := s.root.Stat(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("could not stat file: %w", err)
	}

	return info.Mode().IsRegular(), nil
}

// List returns the regular files directly inside the root directory.
// Subdirectories and in-flight temp files are skipped.
func (s *Store) List(ctx context.Context) ([]filebox.BlobEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	entries := make([]filebox.BlobEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		entries = append(entries, filebox.BlobEntry{
			Filename: entry.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	return entries, nil
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
