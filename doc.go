// Package filebox provides a small authenticated file store with pluggable
// metadata backends and a client-side directory sync.
//
// Filebox stores named binary files ("blobs") on a file system and keeps a
// metadata index mapping each filename to its upload time. The index and the
// blob directory are kept in lock-step: a blob is always written before its
// index record is upserted, and removed before its index record is deleted,
// so a crash can only leave an orphan blob and never an index entry without
// content.
//
// # Key Components
//
//   - FileService: Main service combining the metadata index and blob storage
//   - MetaDataRepo: Interface for index persistence (SQLite, PostgreSQL, bbolt)
//   - FileStorage: Interface for blob operations (filesystem, S3-compatible)
//   - IsValidFilename: Filename hardening applied before any storage access
//
// # Example Usage
//
//	service, err := filebox.NewFileService(repo, storage, filebox.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store a file
//	result, err := service.Upload(ctx, "report.pdf", reader)
//
//	// List files, most recent first
//	records, err := service.List(ctx)
//
// See the http package for the REST API and the clientcli package for the
// client and the sync algorithm.
package filebox
