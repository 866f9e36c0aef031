package clientcli

import (
	"errors"
	"time"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	// Filename is the name stored on the server. Defaults to the base name
	// of LocalPath.
	Filename string
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Err       error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Filename  string
	LocalPath string // empty = ./<filename>, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Filename  string `json:"filename"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Filenames []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	Filename string `json:"filename"`
	Deleted  bool   `json:"deleted"`
	Err      error  `json:"-"` // nil on success
}

// ListResult holds the server index, most recent upload first.
type ListResult struct {
	Items []FileInfo `json:"items"`
}

// FileInfo is one entry of the server index.
type FileInfo struct {
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Names returns the filenames in listing order.
func (r *ListResult) Names() []string {
	names := make([]string, len(r.Items))
	for i := range r.Items {
		names[i] = r.Items[i].Filename
	}
	return names
}

// HealthResult is the body of GET /health.
type HealthResult struct {
	Status string `json:"status"`
}

// Direction tells which way a sync transfer went.
type Direction string

const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Dir is the local directory to reconcile with the server.
	Dir string
	// Ignore holds glob patterns; matching local names are neither uploaded
	// nor counted as present.
	Ignore []string
	// Concurrency is the number of transfers run at once within a pass.
	// Values below 1 mean sequential.
	Concurrency int
	// DryRun computes the plan without transferring anything.
	DryRun bool
}

// TransferResult is the outcome of one sync transfer.
type TransferResult struct {
	Filename  string    `json:"filename"`
	Direction Direction `json:"direction"`
	Size      int64     `json:"size"`
	Err       error     `json:"-"` // nil on success
}

// IsWarning reports whether the failure is a download of a file that was
// deleted on the server after it was listed.
func (t TransferResult) IsWarning() bool {
	return t.Direction == DirectionDownload && errors.Is(t.Err, ErrNotFound)
}

// SyncReport summarizes a sync run.
type SyncReport struct {
	Uploaded   []TransferResult `json:"uploaded"`
	Downloaded []TransferResult `json:"downloaded"`
	InSync     []string         `json:"in_sync"`
	DryRun     bool             `json:"dry_run"`
}

// Failures returns transfers that failed, excluding warnings.
func (r *SyncReport) Failures() []TransferResult {
	var failed []TransferResult
	for _, results := range [][]TransferResult{r.Uploaded, r.Downloaded} {
		for _, t := range results {
			if t.Err != nil && !t.IsWarning() {
				failed = append(failed, t)
			}
		}
	}
	return failed
}

// HasFailures reports whether any transfer failed for a reason other than
// a warning.
func (r *SyncReport) HasFailures() bool {
	return len(r.Failures()) > 0
}
