package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/filebox"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 5 * time.Minute

	// APIKeyHeader carries the shared secret on every request.
	APIKeyHeader = "X-API-KEY"

	// Partial downloads are named tmpPrefix*tmpSuffix. Sync skips them.
	tmpPrefix = filebox.ReservedPrefix
	tmpSuffix = ".part"
)

// Client performs operations against a filebox server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			APIKey:   cfg.APIKey,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the normalized server URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// newRequest builds a request against the server with the API key set.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set(APIKeyHeader, c.config.APIKey)
	}
	return req, nil
}

// do executes req. Transport failures are wrapped with ErrConnectionFailure
// unless the context ended first.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("do request: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
	}
	return resp, nil
}

// doJSON executes req and decodes a 200 response into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Health checks that the server is up. It needs no API key.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", http.NoBody)
	if err != nil {
		return nil, err
	}

	var result HealthResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &result, nil
}

// List returns the server index, most recent upload first.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files", http.NoBody)
	if err != nil {
		return nil, err
	}

	var records []filebox.FileRecord
	if err := c.doJSON(req, &records); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	items := make([]FileInfo, len(records))
	for i, record := range records {
		items[i] = FileInfo{
			Filename:   record.Filename,
			UploadedAt: record.UploadedAt,
		}
	}

	return &ListResult{Items: items}, nil
}

// Upload streams a local file to the server as a multipart body. The file
// is never buffered in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (UploadResult, error) {
	if opts.LocalPath == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.LocalPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return UploadResult{}, fmt.Errorf("upload %s: is a directory", opts.LocalPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, partErr := mw.CreateFormFile("file", filename)
		if partErr != nil {
			_ = pw.CloseWithError(partErr)
			return
		}
		if _, copyErr := io.Copy(part, file); copyErr != nil {
			_ = pw.CloseWithError(copyErr)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", pr)
	if err != nil {
		_ = pr.Close()
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var uploaded filebox.UploadResult
	err = c.doJSON(req, &uploaded)
	// Unblocks the writer goroutine if the server answered early.
	_ = pr.Close()
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	return UploadResult{
		LocalPath: opts.LocalPath,
		Filename:  uploaded.Filename,
		Size:      uploaded.Size,
	}, nil
}

// Download fetches a file from the server.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil. The file is written
// under a temporary name and renamed into place, so an interrupted download
// never leaves a partial file under the final name.
//
// When opts.LocalPath is empty the file is written to ./<filename>, which
// requires a filename that is safe as a local name. Otherwise
// ErrUnsafeFilename is returned without contacting the server.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Filename == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}
	if opts.LocalPath == "" && !filebox.IsValidFilename(opts.Filename) {
		return nil, nil, fmt.Errorf("download %q: %w", opts.Filename, ErrUnsafeFilename)
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(opts.Filename), http.NoBody)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", opts.Filename, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("download %s: %w", opts.Filename, parseServerError(resp.StatusCode, body))
	}

	result := &DownloadResult{
		Filename: opts.Filename,
		Size:     resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = opts.Filename
	}
	result.LocalPath = localPath

	written, err := writeFileAtomic(localPath, resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", opts.Filename, err)
	}

	result.Size = written
	return result, nil, nil
}

// writeFileAtomic copies r into a temp file next to path and renames it
// into place once the copy completed.
func writeFileAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("create directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*"+tmpSuffix)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename file: %w", err)
	}

	success = true
	return written, nil
}

// Delete deletes one or more files from the server.
// Continues on error, collecting results for all filenames.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Filenames) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]DeleteResult, 0, len(opts.Filenames))

	for _, filename := range opts.Filenames {
		// Check context cancellation
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, filename))
	}

	return results, nil
}

// deleteSingle deletes a single file from the server.
func (c *Client) deleteSingle(ctx context.Context, filename string) DeleteResult {
	req, err := c.newRequest(ctx, http.MethodDelete, "/delete/"+url.PathEscape(filename), http.NoBody)
	if err != nil {
		return DeleteResult{Filename: filename, Err: err}
	}

	var deleted filebox.DeleteResult
	if err := c.doJSON(req, &deleted); err != nil {
		return DeleteResult{Filename: filename, Err: err}
	}

	return DeleteResult{Filename: filename, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
	// Code and Message are decoded from a JSON error body when present.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + strings.TrimSpace(e.Body)
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested file does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the API key is missing or wrong (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrInvalidFilename is returned when the server rejects a filename (400).
	ErrInvalidFilename = &APIError{StatusCode: http.StatusBadRequest}

	// ErrTooLarge is returned when an upload exceeds the server limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}
)
