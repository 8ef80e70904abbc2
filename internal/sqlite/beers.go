// This file implements the catalog facade: the read/write operations the
// UI layer calls. Reads never take the write lock; multi-statement writes
// do.

package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/brewlog/taplist/internal/derive"
	"github.com/brewlog/taplist/pkg/types"
)

const beerColumns = "id, brew_name, brewer, brewer_loc, brew_style, brew_container, brew_description, added_date, container_type, abv, enrichment_confidence, enrichment_source"

// GetAll returns every record in the named table.
func (b *Backend) GetAll(table string) ([]types.BeerRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkTable(table); err != nil {
		return nil, err
	}
	return b.queryBeers(fmt.Sprintf("SELECT %s FROM %s ORDER BY brew_name", beerColumns, table))
}

// GetUntasted returns catalog entries not yet in the current tasting round.
func (b *Backend) GetUntasted() ([]types.BeerRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrCatalogDetached
	}
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE id NOT IN (SELECT id FROM %s) ORDER BY brew_name",
		beerColumns, types.AllBeersTable, types.TastedTable)
	return b.queryBeers(q)
}

// GetByContainerType returns records in the named table with the given
// classification.
func (b *Backend) GetByContainerType(table string, ct types.ContainerType) ([]types.BeerRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkTable(table); err != nil {
		return nil, err
	}
	if !types.ValidContainerType(ct) {
		return nil, types.ErrInvalidRecord
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE container_type = ? ORDER BY brew_name", beerColumns, table)
	return b.queryBeers(q, string(ct))
}

// InsertMany upserts records by ID. Every incoming record passes through
// the derived-field calculators first, so freshly synced rows carry
// container_type and abv at write time rather than waiting for a
// migration. The whole write runs under the write lock in one
// transaction.
func (b *Backend) InsertMany(table string, records []types.BeerRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkTable(table); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].ID == "" {
			return types.ErrInvalidRecord
		}
	}

	op := "insert-many-" + table
	if err := b.lock.Acquire(op, b.config.LockAcquireTimeout); err != nil {
		return err
	}
	defer b.lock.Release(op)

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			brew_name = excluded.brew_name,
			brewer = excluded.brewer,
			brewer_loc = excluded.brewer_loc,
			brew_style = excluded.brew_style,
			brew_container = excluded.brew_container,
			brew_description = excluded.brew_description,
			added_date = excluded.added_date,
			container_type = excluded.container_type,
			abv = excluded.abv,
			enrichment_confidence = excluded.enrichment_confidence,
			enrichment_source = excluded.enrichment_source`, table, beerColumns))
	if err != nil {
		return fmt.Errorf("preparing upsert for %s: %w", table, err)
	}
	defer stmt.Close()

	for i := range records {
		rec := records[i]
		derive.ApplyDerived(&rec)
		if _, err := stmt.Exec(
			rec.ID, rec.BrewName, rec.Brewer, rec.BrewerLoc, rec.BrewStyle,
			rec.BrewContainer, rec.BrewDescription, rec.AddedDate,
			containerValue(rec.ContainerType), abvValue(rec.ABV),
			abvValue(rec.EnrichmentConfidence), nullableString(rec.EnrichmentSource),
		); err != nil {
			return fmt.Errorf("upserting %s into %s: %w", rec.ID, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	return nil
}

// checkTable validates the table name and attachment state under the
// caller's read lock.
func (b *Backend) checkTable(table string) error {
	if !b.attached {
		return types.ErrCatalogDetached
	}
	if !types.ValidTableName(table) {
		return types.ErrTableNotFound
	}
	return nil
}

func (b *Backend) queryBeers(query string, args ...any) ([]types.BeerRecord, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying beers: %w", err)
	}
	defer rows.Close()

	var out []types.BeerRecord
	for rows.Next() {
		rec, err := hydrateBeer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func hydrateBeer(rows *sql.Rows) (types.BeerRecord, error) {
	var (
		rec                           types.BeerRecord
		name, brewer, loc, style      sql.NullString
		container, description, added sql.NullString
		containerType, enrichSource   sql.NullString
		abv, enrichConfidence         sql.NullFloat64
	)
	err := rows.Scan(&rec.ID, &name, &brewer, &loc, &style, &container, &description, &added,
		&containerType, &abv, &enrichConfidence, &enrichSource)
	if err != nil {
		return rec, fmt.Errorf("scanning beer row: %w", err)
	}
	rec.BrewName = name.String
	rec.Brewer = brewer.String
	rec.BrewerLoc = loc.String
	rec.BrewStyle = style.String
	rec.BrewContainer = container.String
	rec.BrewDescription = description.String
	rec.AddedDate = added.String
	rec.ContainerType = types.ContainerType(containerType.String)
	if abv.Valid {
		v := abv.Float64
		rec.ABV = &v
	}
	if enrichConfidence.Valid {
		v := enrichConfidence.Float64
		rec.EnrichmentConfidence = &v
	}
	rec.EnrichmentSource = enrichSource.String
	return rec, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
