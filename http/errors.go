package http

import "errors"

// ErrMissingFile is returned when an upload carries no "file" form field.
var ErrMissingFile = errors.New("missing file field")
