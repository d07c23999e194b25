// Package database handles database connections and schema inspection.
//
// It wraps GORM and selects the dialector from configuration: MySQL, PostgreSQL
// or SQLite. SQLite is mostly used in tests with the ":memory:" name; its pool is
// pinned to a single connection so every query sees the same database.
//
// # Connect
//
// Connect builds the DSN for the configured driver, opens the connection and
// pings it within TimeoutSeconds. Open accepts any dialector, which lets store
// tests run GORM on top of go-sqlmock.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the profile store verify at startup that
// the tables it writes carry the columns it expects.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "profile_records", []string{"fingerprint"})
package database
