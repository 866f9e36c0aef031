package filebox

import "errors"

var (
	// ErrNotFound is returned when a file is absent from the index or blob store
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the shared secret is missing or wrong
	ErrUnauthorized = errors.New("unauthorized")
)
