// Package database provides SQLite connectivity for emsconvert.
//
// Two features use it: the conversion-history store and the SQLite
// rendition of the tabular report. Both open a file with Open, which
// creates the parent directory, applies the busy timeout and optional WAL
// mode, and verifies the connection.
//
// # Migrations
//
// Schema changes live in paired files named
// YYYYMMDD_HHMMSS_description.up.sql and .down.sql. Migrate applies the
// pending ones from any fs.FS, each in its own transaction, and records
// them in schema_migrations. The history schema is embedded by the
// top-level migrations package.
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: "history.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Report files are written once and closed; they skip migrations and use
// WithTx to create and fill their tables atomically.
package database
