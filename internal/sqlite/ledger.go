// This file implements the schema-version ledger: one row per applied
// migration, whose maximum version is the database's current schema
// version. A missing ledger table is the fresh-install signal, not an
// error.

package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// LedgerEntry records one applied migration.
type LedgerEntry struct {
	Version   int    `json:"version"`
	AppliedAt string `json:"applied_at"`
}

// currentVersion returns the highest recorded migration version, or 0
// when the ledger table is absent or empty.
func currentVersion(db *sql.DB) (int, error) {
	exists, err := tableExists(db, "schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// recordMigration appends the ledger row for version. It must run inside
// the migration's own transaction so a crash mid-migration commits
// neither the schema change nor the ledger entry.
func recordMigration(tx *sql.Tx, version int) error {
	if _, err := tx.Exec(createSchemaVersionDDL); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		version, appliedAt,
	); err != nil {
		return fmt.Errorf("recording migration v%d: %w", version, err)
	}
	return nil
}

// appliedMigrations returns every ledger entry in version order. An
// absent ledger table yields an empty slice.
func appliedMigrations(db *sql.DB) ([]LedgerEntry, error) {
	exists, err := tableExists(db, "schema_version")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := db.Query("SELECT version, applied_at FROM schema_version ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.Version, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// tableExists probes sqlite_master for a table by name.
func tableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("probing for table %s: %w", name, err)
	}
	return n > 0, nil
}

// columnExists reports whether table has a column by name. PRAGMA
// introspection is unreliable inside a transaction on this engine, so
// callers must invoke it on the plain handle before opening one.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return false, fmt.Errorf("scanning table_info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
