// Package migrations embeds SQL migration files for the SQLite reference store.
// Files are named NNN_description.up.sql / NNN_description.down.sql and are
// applied in version order.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
