package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sagarc03/filebox"
)

// uploadField is the multipart form field that carries the file.
const uploadField = "file"

type Service interface {
	Upload(ctx context.Context, filename string, content io.Reader) (filebox.UploadResult, error)
	List(ctx context.Context) ([]filebox.FileRecord, error)
	Download(ctx context.Context, filename string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, filename string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	// Verifier gates every route except /health and /metrics. A nil
	// verifier rejects all gated requests.
	Verifier KeyVerifier
	// MaxUploadSize caps the request body of POST /upload in bytes.
	// Zero means unlimited.
	MaxUploadSize int64
	CORS          CORSConfig
	RateLimit     RateLimitConfig
	// Compress enables gzip for responses that accept it.
	Compress bool
	// Metrics, when set, records request metrics and serves /metrics.
	Metrics *Metrics
}

// Handler provides HTTP handlers for file operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if h.config.RateLimit.Enabled {
		r.Use(RateLimit(h.config.RateLimit))
	}

	r.Get("/health", h.handleHealth)
	if h.config.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.config.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(h.config.Verifier))
		r.Post("/upload", h.handleUpload)
		r.Get("/files", h.handleList)
		r.Get("/download/{filename}", h.handleDownload)
		r.Delete("/delete/{filename}", h.handleDelete)
	})

	if h.config.Compress {
		return gzhttp.GzipHandler(r)
	}
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if records == nil {
		records = []filebox.FileRecord{}
	}

	_ = WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		if r.ContentLength > h.config.MaxUploadSize {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Expected a multipart/form-data body")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = part.Close() }()

	filename, err := partFilename(part)
	if err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.service.Upload(r.Context(), filename, part)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

// nextFilePart advances mr to the "file" field, skipping any other fields.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingFile
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart: %w", err)
		}

		if part.FormName() == uploadField {
			return part, nil
		}
		_ = part.Close()
	}
}

// partFilename returns the filename exactly as the client sent it.
// Part.FileName strips directory components, which would silently store
// "../x" as "x"; the raw value is validated instead.
func partFilename(part *multipart.Part) (string, error) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", fmt.Errorf("parse content disposition: %w", filebox.ErrInvalidInput)
	}

	filename := params["filename"]
	if !filebox.IsValidFilename(filename) {
		return "", fmt.Errorf("upload filename %q: %w", filename, filebox.ErrInvalidInput)
	}

	return filename, nil
}

// filenameParam extracts the {filename} route parameter. chi matches on
// the escaped path when the request carries one, so the parameter is
// unescaped in that case only.
func filenameParam(r *http.Request) (string, error) {
	filename := chi.URLParam(r, "filename")
	if r.URL.RawPath == "" {
		return filename, nil
	}

	unescaped, err := url.PathUnescape(filename)
	if err != nil {
		return "", fmt.Errorf("unescape filename: %w", filebox.ErrInvalidInput)
	}
	return unescaped, nil
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename, err := filenameParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	content, err := h.service.Download(r.Context(), filename)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	http.ServeContent(w, r, filename, time.Time{}, content)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	filename, err := filenameParam(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), filename); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, filebox.DeleteResult{Deleted: filename})
}
