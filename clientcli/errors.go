package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrAPIKeyRequired = errors.New("api key is required")
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoPaths      = errors.New("no paths provided")
	ErrEmptyPath    = errors.New("path is required")
	ErrNotDirectory = errors.New("not a directory")
)

// Errors for download targets.
var (
	// ErrUnsafeFilename is returned for a remote filename that cannot be
	// used as a local file name, such as "../x" or a reserved temp name.
	ErrUnsafeFilename = errors.New("unsafe filename")
	// ErrLocalNotRegular is returned when the download target exists and is
	// not a regular file.
	ErrLocalNotRegular = errors.New("local path exists and is not a regular file")
)

// ErrConnectionFailure wraps transport errors: the endpoint could not be
// reached or the connection broke before a response arrived.
var ErrConnectionFailure = errors.New("connection failure")
