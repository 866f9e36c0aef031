// Package database provides a unified interface for connecting to metadata backends.
//
// The package supports several backends for the filename → uploaded_at index
// and handles connection management, migrations, and schema validation.
//
// # Supported Backends
//
//   - SQLite: Default single-node backend using modernc.org/sqlite
//   - PostgreSQL: Shared backend using a pgx connection pool
//   - Bolt: Embedded key/value backend using go.etcd.io/bbolt
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "files.db",
//	    Tables: filebox.Tables{MetaData: "files"},
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// Open runs Connect, Ping, Migrate and Validate in order. Connect alone
// returns an unmigrated handle for tooling that manages the schema itself.
//
// # Subpackages
//
//   - database/sqlite: SQLite implementation
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/bolt: bbolt implementation
package database
