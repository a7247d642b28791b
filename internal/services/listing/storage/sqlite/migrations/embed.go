package migrations

import "embed"

// FS contains embedded SQLite migrations for the flight read model.
//
//go:embed *.sql
var FS embed.FS
