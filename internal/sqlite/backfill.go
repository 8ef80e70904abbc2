// This file implements the batched backfill engine. Derived values are
// computed in memory and written back in batches, each batch as a single
// CASE-based UPDATE, turning O(n) round-trips into O(n/batch).

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/brewlog/taplist/internal/derive"
	"github.com/brewlog/taplist/pkg/types"
)

// ProgressFunc receives backfill progress after every written batch.
type ProgressFunc func(processed, total int)

// rowUpdate pairs a row ID with its recomputed column value. A nil value
// writes NULL.
type rowUpdate struct {
	id    string
	value any
}

// candidateRow carries the text fields the calculators need.
type candidateRow struct {
	id          string
	container   string
	description string
	style       string
	name        string
	abv         *float64
}

// queryCandidates runs a SELECT of the calculator inputs against one beer
// table. where may be empty to scan every row.
func queryCandidates(tx *sql.Tx, table, where string) ([]candidateRow, error) {
	q := fmt.Sprintf(
		"SELECT id, brew_container, brew_description, brew_style, brew_name FROM %s", table)
	if where != "" {
		q += " WHERE " + where
	}

	rows, err := tx.Query(q)
	if err != nil {
		return nil, fmt.Errorf("querying %s candidates: %w", table, err)
	}
	defer rows.Close()

	var out []candidateRow
	for rows.Next() {
		var (
			r                             candidateRow
			container, descr, style, name sql.NullString
		)
		if err := rows.Scan(&r.id, &container, &descr, &style, &name); err != nil {
			return nil, fmt.Errorf("scanning %s candidate: %w", table, err)
		}
		r.container = container.String
		r.description = descr.String
		r.style = style.String
		r.name = name.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// writeBatched updates one column for the given rows in batches. Every
// batch is a single parameterized statement of the form
//
//	UPDATE t SET col = CASE id WHEN ? THEN ? ... ELSE col END
//	WHERE id IN (?, ...)
//
// restricted to that batch's ID set. Table and column names are fixed
// code-controlled constants; every value travels as a placeholder.
func writeBatched(tx *sql.Tx, table, column string, updates []rowUpdate, batchSize int, report func(written int)) error {
	if batchSize <= 0 {
		batchSize = types.DefaultMigrationBatchSize
	}

	for start := 0; start < len(updates); start += batchSize {
		end := start + batchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[start:end]

		var sb strings.Builder
		args := make([]any, 0, len(batch)*3)

		fmt.Fprintf(&sb, "UPDATE %s SET %s = CASE id", table, column)
		for _, u := range batch {
			sb.WriteString(" WHEN ? THEN ?")
			args = append(args, u.id, u.value)
		}
		fmt.Fprintf(&sb, " ELSE %s END WHERE id IN (", column)
		for i, u := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, u.id)
		}
		sb.WriteString(")")

		if _, err := tx.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("batched update of %s.%s: %w", table, column, err)
		}
		if report != nil {
			report(len(batch))
		}
	}
	return nil
}

// containerValue converts a calculator result to a column value; the zero
// ContainerType stays NULL.
func containerValue(ct types.ContainerType) any {
	if ct == "" {
		return nil
	}
	return string(ct)
}

// abvValue converts an extracted ABV to a column value.
func abvValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// backfillContainerType recomputes the container classification for rows
// matching where, across every beer table, writing results in batches.
func backfillContainerType(tx *sql.Tx, column, where string, batchSize int, onProgress ProgressFunc) error {
	perTable := make(map[string][]rowUpdate, len(types.BeerTableNames))
	total := 0
	for _, table := range types.BeerTableNames {
		candidates, err := queryCandidates(tx, table, where)
		if err != nil {
			return err
		}
		updates := make([]rowUpdate, 0, len(candidates))
		for _, c := range candidates {
			ct := derive.ContainerTypeFor(c.container, c.description, c.style, c.name, c.abv)
			updates = append(updates, rowUpdate{id: c.id, value: containerValue(ct)})
		}
		perTable[table] = updates
		total += len(updates)
	}

	processed := 0
	for _, table := range types.BeerTableNames {
		err := writeBatched(tx, table, column, perTable[table], batchSize, func(written int) {
			processed += written
			if onProgress != nil {
				onProgress(processed, total)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// backfillABV extracts the ABV from every row's description across every
// beer table. The column is brand new when this runs, so the scan is
// deliberately unconditional rather than scoped to NULL rows.
func backfillABV(tx *sql.Tx, batchSize int, onProgress ProgressFunc) error {
	perTable := make(map[string][]rowUpdate, len(types.BeerTableNames))
	total := 0
	for _, table := range types.BeerTableNames {
		candidates, err := queryCandidates(tx, table, "")
		if err != nil {
			return err
		}
		updates := make([]rowUpdate, 0, len(candidates))
		for _, c := range candidates {
			updates = append(updates, rowUpdate{id: c.id, value: abvValue(derive.ExtractABV(c.description))})
		}
		perTable[table] = updates
		total += len(updates)
	}

	processed := 0
	for _, table := range types.BeerTableNames {
		err := writeBatched(tx, table, "abv", perTable[table], batchSize, func(written int) {
			processed += written
			if onProgress != nil {
				onProgress(processed, total)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
