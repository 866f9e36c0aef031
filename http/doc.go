// Package http provides the HTTP server for filebox.
//
// # Routes
//
//	GET    /health               liveness probe, no authentication
//	GET    /metrics              Prometheus metrics when enabled, no authentication
//	POST   /upload               multipart upload, field "file"
//	GET    /files                index listing, most recent first
//	GET    /download/{filename}  raw file bytes
//	DELETE /delete/{filename}    remove file and index record
//
// Every route except /health and /metrics requires the X-API-KEY header to
// match the server's shared secret. Rejected requests get 401 before any
// handler runs.
//
// # Errors
//
// Failures are returned as JSON:
//
//	{"error": "not_found", "message": "File not found"}
//
// The error codes are unauthorized (401), invalid_filename and
// invalid_request (400), not_found (404), too_large (413), rate_limited
// (429) and internal_error (500).
//
// # Usage
//
//	verifier, _ := keybackend.NewStaticKey(secret)
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Verifier:      verifier,
//	    MaxUploadSize: 100 << 20,
//	}, service)
//	srv := &http.Server{Addr: ":8000", Handler: handler.Router()}
//
// The service parameter must implement the Service interface; a
// *filebox.FileService does.
package http
