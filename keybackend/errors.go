package keybackend

import "errors"

// ErrNoKey is returned when no API key is configured.
var ErrNoKey = errors.New("no api key configured")
