// This file defines the versioned schema migrations and the runner that
// applies them in ascending order on attach. Each migration acquires the
// write lock, runs inside one transaction, and appends its own ledger
// entry before committing, so "migration" is an atomic unit: either the
// schema change and the ledger row both land, or neither does.

package sqlite

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/brewlog/taplist/pkg/types"
)

// migration is one versioned schema-evolution step.
//
// prepare runs outside any transaction; structural introspection pragmas
// are unreliable inside one on this engine. Returning true skips the
// structural statements (the columns already exist).
//
// structural statements must tolerate re-application only through the
// ledger check: re-running one against an already-altered schema raises
// the engine's duplicate-column error, which propagates. The lock is
// still released; this path is a safety net, not a silent swallow.
type migration struct {
	version    int
	name       string
	prepare    func(db *sql.DB) (skipStructural bool, err error)
	structural func(tx *sql.Tx) error
	backfill   func(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error
}

// schemaMigrations is the full history, in ascending version order.
// Versions 1 and 2 predate derived columns and correspond to the base
// DDL applied on open; the ledger starts at 3.
var schemaMigrations = []migration{
	{
		version:    3,
		name:       "add-glass-type",
		structural: addColumnEachTable("glass_type", "TEXT"),
		backfill: func(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error {
			return backfillContainerType(tx, "glass_type", "glass_type IS NULL", batchSize, onProgress)
		},
	},
	{
		version: 4,
		name:    "rename-glass-type-to-container-type",
		structural: func(tx *sql.Tx) error {
			return execEachTable(tx, "ALTER TABLE %s RENAME COLUMN glass_type TO container_type")
		},
		backfill: func(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error {
			// Can/bottle detection for rows the earlier draft-only pass
			// left unclassified.
			where := "container_type IS NULL AND (LOWER(brew_container) LIKE '%can%' OR LOWER(brew_container) LIKE '%bottle%')"
			return backfillContainerType(tx, "container_type", where, batchSize, onProgress)
		},
	},
	{
		version: 5,
		name:    "flight-detection",
		backfill: func(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error {
			where := "container_type IS NULL AND (LOWER(brew_name) LIKE '%flight%' OR LOWER(brew_style) = 'flight')"
			return backfillContainerType(tx, "container_type", where, batchSize, onProgress)
		},
	},
	{
		version:    6,
		name:       "add-abv",
		structural: addColumnEachTable("abv", "REAL"),
		backfill: func(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error {
			// Brand-new column: every row is recomputed, not just NULL ones.
			return backfillABV(tx, batchSize, onProgress)
		},
	},
	{
		version: 7,
		name:    "enrichment-columns",
		prepare: func(db *sql.DB) (bool, error) {
			return columnExists(db, types.AllBeersTable, "enrichment_confidence")
		},
		structural: func(tx *sql.Tx) error {
			if err := execEachTable(tx, "ALTER TABLE %s ADD COLUMN enrichment_confidence REAL"); err != nil {
				return err
			}
			return execEachTable(tx, "ALTER TABLE %s ADD COLUMN enrichment_source TEXT")
		},
	},
}

// addColumnEachTable builds a structural step adding one column to every
// beer table.
func addColumnEachTable(column, sqlType string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		return execEachTable(tx, fmt.Sprintf("ALTER TABLE %%s ADD COLUMN %s %s", column, sqlType))
	}
}

// execEachTable runs a statement template against both beer tables. Table
// names are code-controlled constants, never user input.
func execEachTable(tx *sql.Tx, template string) error {
	for _, table := range types.BeerTableNames {
		if _, err := tx.Exec(fmt.Sprintf(template, table)); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return nil
}

// runPendingMigrations reads the ledger and applies, in ascending order,
// every migration whose version exceeds it. The first failure halts the
// chain; later migrations must not run out of order over a partially
// migrated schema.
func (b *Backend) runPendingMigrations(onProgress ProgressFunc) error {
	cur, err := currentVersion(b.db)
	if err != nil {
		return err
	}

	for _, m := range schemaMigrations {
		if m.version <= cur {
			continue
		}
		if err := b.applyMigration(m, onProgress); err != nil {
			return fmt.Errorf("migration v%d (%s): %w", m.version, m.name, err)
		}
		b.logger.Info("schema migration applied",
			zap.Int("version", m.version),
			zap.String("name", m.name))
	}
	return nil
}

// applyMigration runs one migration under the write lock, inside a single
// transaction. The lock release is deferred so a failed migration never
// deadlocks subsequent operations; the error still propagates.
func (b *Backend) applyMigration(m migration, onProgress ProgressFunc) error {
	op := fmt.Sprintf("schema-migration-v%d", m.version)
	if err := b.lock.Acquire(op, b.config.LockAcquireTimeout); err != nil {
		return err
	}
	defer b.lock.Release(op)

	skipStructural := false
	if m.prepare != nil {
		var err error
		if skipStructural, err = m.prepare(b.db); err != nil {
			return err
		}
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	if m.structural != nil && !skipStructural {
		if err := m.structural(tx); err != nil {
			return err
		}
	}
	if m.backfill != nil {
		if err := m.backfill(tx, b.config.MigrationBatchSize, onProgress); err != nil {
			return err
		}
	}
	if err := recordMigration(tx, m.version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}
