// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly
// configure the connection backing the fingerprint cache. MySQL is the
// production driver; SQLite (including ":memory:") serves local runs and tests.
//
// # Connect
//
// The generic Connect function establishes a connection to the database and
// verifies it with a ping before handing it out.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema, used by the
// validate command to confirm the cache table looks the way the store
// expects it to.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "sync_cache_entries")
package database
