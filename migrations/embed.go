// Package migrations embeds the SQL migrations of the conversion-history
// database so the binary needs no schema files on disk.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory. Pass it
// to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
