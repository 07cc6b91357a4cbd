package database

import _ "embed"

// Schema is the SQLite schema produced by applying every migration.
// Tests apply it directly to in-memory databases instead of running migrations.
//
//go:embed schema_sqlite.sql
var Schema string
