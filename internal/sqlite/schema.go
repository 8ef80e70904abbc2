// Package sqlite implements the local beer-catalog cache: a SQLite
// database holding the venue catalog and the current tasting round,
// evolved in place by versioned schema migrations.
package sqlite

import "fmt"

// Base DDL for a fresh install. Both beer tables start with the remote
// catalog's descriptive columns only; every derived column is added by a
// schema migration so that fresh and upgraded installs share one history.
const baseBeerTableDDL = `CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    brew_name TEXT,
    brewer TEXT,
    brewer_loc TEXT,
    brew_style TEXT,
    brew_container TEXT,
    brew_description TEXT,
    added_date TEXT
);`

const baseBeerIndexDDL = `CREATE INDEX IF NOT EXISTS idx_%s_added ON %s(added_date);`

// createSchemaVersionDDL creates the migration ledger. It runs inside
// each migration's transaction, so a fresh database gains the ledger
// table and its first entry atomically.
const createSchemaVersionDDL = `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);`

// Connection pragmas. WAL keeps readers unblocked while a migration
// transaction runs.
var openPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// baseSchemaDDL returns the CREATE statements for a fresh database.
func baseSchemaDDL(tables []string) []string {
	var ddl []string
	for _, table := range tables {
		ddl = append(ddl, fmt.Sprintf(baseBeerTableDDL, table))
		ddl = append(ddl, fmt.Sprintf(baseBeerIndexDDL, table, table))
	}
	return ddl
}
