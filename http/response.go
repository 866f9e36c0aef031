package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/filebox"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, filebox.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, filebox.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_filename", "Invalid filename")
	case errors.Is(err, filebox.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
	case errors.Is(err, ErrMissingFile):
		WriteError(w, http.StatusBadRequest, "invalid_request", "Multipart field \"file\" is required")
	case errors.As(err, &maxBytesErr):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds size limit")
	case errors.Is(err, context.Canceled):
		slog.Debug("request cancelled", "err", err)
		WriteError(w, http.StatusServiceUnavailable, "cancelled", "Request cancelled")
	default:
		slog.Error("request error", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
