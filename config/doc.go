// Package config provides configuration loading and validation for the
// filebox server.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILEBOX_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILEBOX_ prefix:
//   - server.port → FILEBOX_SERVER_PORT
//   - database.type → FILEBOX_DATABASE_TYPE
//   - auth.keys.inline → FILEBOX_AUTH_KEYS_INLINE
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: "prod" switches logging to JSON
//   - Server: listen address, upload limit, timeouts, and compression
//   - Database: index type (sqlite, postgres, bolt), DSN, and table names
//   - Storage: blob backend (filesystem or s3) and its settings
//   - Auth: where the shared API key comes from
//   - CORS, RateLimit, Metrics: optional HTTP middleware
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags plus a few cross-section
// rules, for example an s3 storage backend requires a bucket.
package config
