package filebox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// MetaDataRepo defines the interface for the metadata index.
// Implementations must be safe for concurrent use and must serialize
// conflicting writers for the same filename.
//
// All methods accept a context for cancellation and timeout control.
type MetaDataRepo interface {
	// Get retrieves the record for a filename.
	//
	// Returns:
	//   - FileRecord: The record if found
	//   - error: ErrNotFound if filename is not indexed, or other database errors
	Get(ctx context.Context, filename string) (FileRecord, error)

	// Upsert inserts or replaces the record for filename with the given
	// upload time. A previous record for the same filename is overwritten;
	// no history is kept.
	//
	// Returns:
	//   - FileRecord: The stored record
	//   - error: Any database error
	Upsert(ctx context.Context, filename string, uploadedAt time.Time) (FileRecord, error)

	// Delete removes the record for filename.
	//
	// Returns:
	//   - error: ErrNotFound if filename is not indexed, or other database errors
	Delete(ctx context.Context, filename string) error

	// List returns every record ordered by upload time, most recent first.
	// Records with equal upload times are ordered by filename.
	List(ctx context.Context) ([]FileRecord, error)
}

// FileStorage defines the interface for blob operations.
// Blobs are addressed by filename in a single flat namespace.
type FileStorage interface {
	// Get opens a blob for reading.
	//
	// Returns:
	//   - io.ReadSeekCloser: Reader for the full content
	//   - error: ErrNotFound if the blob doesn't exist, or other storage errors
	//
	// The caller is responsible for closing the returned ReadSeekCloser.
	Get(ctx context.Context, filename string) (io.ReadSeekCloser, error)

	// Write stores content under filename, fully replacing any previous blob.
	//
	// Implementations should:
	//   - Write atomically (a reader never observes a partially written blob)
	//   - Return accurate byte count of data written
	//   - Clean up partial writes on error or context cancellation
	Write(ctx context.Context, filename string, content io.Reader) (SaveResult, error)

	// Delete removes a blob.
	//
	// Returns:
	//   - error: ErrNotFound if the blob doesn't exist, or other storage errors
	Delete(ctx context.Context, filename string) error

	// Exists reports whether a blob is stored under filename.
	Exists(ctx context.Context, filename string) (bool, error)

	// List returns every blob currently stored.
	// Used to rebuild the index (see FileService.Populate).
	List(ctx context.Context) ([]BlobEntry, error)
}

// FileService keeps the metadata index and the blob store in lock-step.
type FileService struct {
	repo    MetaDataRepo
	storage FileStorage
	now     func() time.Time
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	// Clock returns the upload timestamp. Defaults to time.Now.
	Clock func() time.Time
}

func NewFileService(repo MetaDataRepo, storage FileStorage, cfg ServiceConfig) (*FileService, error) {
	if repo == nil {
		return nil, errors.New("new file service: metadata repo is required")
	}
	if storage == nil {
		return nil, errors.New("new file service: file storage is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &FileService{
		repo:    repo,
		storage: storage,
		now:     clock,
	}, nil
}

// Upload stores content under filename and records it in the index.
//
// The blob is written first and the index record is upserted only after the
// write succeeded, so a failed write never produces an index entry. If the
// upsert fails the freshly written blob is left in place: it is an orphan
// that a later upload or Populate repairs, while removing it could destroy
// content that an existing index record still points at.
//
// Error types returned:
//   - ErrInvalidInput: filename fails IsValidFilename
//   - context.Canceled or context.DeadlineExceeded: Context was cancelled
//   - Wrapped storage or metadata errors
func (s *FileService) Upload(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if !IsValidFilename(filename) {
		return UploadResult{}, fmt.Errorf("upload %q: %w", filename, ErrInvalidInput)
	}

	saveResult, writeErr := s.storage.Write(ctx, filename, content)
	if writeErr != nil {
		return UploadResult{}, fmt.Errorf("upload %s: write failed: %w", filename, writeErr)
	}

	if _, upsertErr := s.repo.Upsert(ctx, filename, s.now()); upsertErr != nil {
		slog.Warn("blob written but index upsert failed", "filename", filename, "err", upsertErr)
		return UploadResult{}, fmt.Errorf("upload %s: metadata upsert failed: %w", filename, upsertErr)
	}

	slog.Debug("uploaded", "filename", filename, "size", saveResult.BytesWritten, "etag", saveResult.Etag)

	return UploadResult{Filename: filename, Size: saveResult.BytesWritten}, nil
}

// List returns the whole index, most recent upload first.
func (s *FileService) List(ctx context.Context) ([]FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return records, nil
}

// Stat returns the index record for filename. Like Download, it treats a
// record whose blob is missing as ErrNotFound.
func (s *FileService) Stat(ctx context.Context, filename string) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("stat: %w", err)
	}

	if !IsValidFilename(filename) {
		return FileRecord{}, fmt.Errorf("stat %q: %w", filename, ErrInvalidInput)
	}

	record, err := s.repo.Get(ctx, filename)
	if err != nil {
		return FileRecord{}, fmt.Errorf("stat %s: %w", filename, err)
	}

	exists, err := s.storage.Exists(ctx, filename)
	if err != nil {
		return FileRecord{}, fmt.Errorf("stat %s: %w", filename, err)
	}
	if !exists {
		return FileRecord{}, fmt.Errorf("stat %s: %w", filename, ErrNotFound)
	}

	return record, nil
}

// Download opens the blob stored under filename.
// Presence is decided by the blob store alone: an index entry without a
// blob yields ErrNotFound.
func (s *FileService) Download(ctx context.Context, filename string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	if !IsValidFilename(filename) {
		return nil, fmt.Errorf("download %q: %w", filename, ErrInvalidInput)
	}

	f, err := s.storage.Get(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", filename, err)
	}

	return f, nil
}

// Delete removes the blob and then its index record.
// A missing blob yields ErrNotFound and leaves the index untouched. A
// missing index record after the blob was removed is not an error.
func (s *FileService) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if !IsValidFilename(filename) {
		return fmt.Errorf("delete %q: %w", filename, ErrInvalidInput)
	}

	if err := s.storage.Delete(ctx, filename); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}

	if err := s.repo.Delete(ctx, filename); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete %s: metadata delete failed: %w", filename, err)
	}

	return nil
}

// Populate rebuilds index records from the blobs in storage.
// Every blob gets a record whose upload time is the blob's modification
// time. Index records without a blob are removed. It returns the number of
// records written.
//
// This is the recovery path for orphan blobs and for a lost index. It stops
// at the first error; records processed before the error remain.
func (s *FileService) Populate(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	blobs, listErr := s.storage.List(ctx)
	if listErr != nil {
		return 0, fmt.Errorf("populate: %w", listErr)
	}

	present := make(map[string]struct{}, len(blobs))
	indexed := 0
	for _, blob := range blobs {
		if !IsValidFilename(blob.Filename) {
			slog.Warn("skipping blob with invalid filename", "filename", blob.Filename)
			continue
		}
		present[blob.Filename] = struct{}{}

		if _, err := s.repo.Upsert(ctx, blob.Filename, blob.ModTime); err != nil {
			return indexed, fmt.Errorf("populate %q: %w", blob.Filename, err)
		}
		indexed++
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return indexed, fmt.Errorf("populate: %w", err)
	}

	for _, record := range records {
		if _, ok := present[record.Filename]; ok {
			continue
		}
		if err := s.repo.Delete(ctx, record.Filename); err != nil && !errors.Is(err, ErrNotFound) {
			return indexed, fmt.Errorf("populate: drop stale %q: %w", record.Filename, err)
		}
		slog.Info("dropped index record without blob", "filename", record.Filename)
	}

	return indexed, nil
}
