package filebox

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"
)

// FileRecord is the index entry for one stored file.
// On the wire UploadedAt is encoded as fractional seconds since the Unix epoch.
type FileRecord struct {
	Filename   string
	UploadedAt time.Time
}

type fileRecordJSON struct {
	Filename   string  `json:"filename"`
	UploadedAt float64 `json:"uploaded_at"`
}

func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileRecordJSON{
		Filename:   r.Filename,
		UploadedAt: UnixSeconds(r.UploadedAt),
	})
}

func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var raw fileRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Filename = raw.Filename
	r.UploadedAt = FromUnixSeconds(raw.UploadedAt)
	return nil
}

// UnixSeconds converts t to fractional seconds since the Unix epoch.
func UnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromUnixSeconds is the inverse of UnixSeconds. The result is in UTC.
func FromUnixSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC()
}

// BlobEntry describes a blob found by walking the blob store.
type BlobEntry struct {
	Filename string
	Size     int64
	ModTime  time.Time
}

// SaveResult is returned by FileStorage.Write.
type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// UploadResult is the response body of a successful upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// DeleteResult is the response body of a successful delete.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

// Tables holds configurable table names for metadata storage.
// This allows several stores to share one database.
type Tables struct {
	MetaData string `mapstructure:"meta_data"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return errors.New("validate tables: metadata table name cannot be empty")
	}

	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: invalid metadata table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.MetaData)
	}

	return nil
}
