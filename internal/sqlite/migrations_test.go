package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brewlog/taplist/internal/derive"
	"github.com/brewlog/taplist/pkg/types"
)

func testConfig(dir string) types.Config {
	return types.Config{DataDir: dir, LogLevel: "error"}
}

// openRaw opens the database file directly, bypassing the backend, to
// seed pre-migration states.
func openRaw(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFileName))
	require.NoError(t, err)
	for _, ddl := range baseSchemaDDL(types.BeerTableNames) {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}
	return db
}

func seedRawBeer(t *testing.T, db *sql.DB, table, id, name, style, container, description string) {
	t.Helper()
	_, err := db.Exec(fmt.Sprintf(
		"INSERT INTO %s (id, brew_name, brewer, brewer_loc, brew_style, brew_container, brew_description, added_date) VALUES (?, ?, '', '', ?, ?, ?, '1700000000')",
		table), id, name, style, container, description)
	require.NoError(t, err)
}

func TestFreshDatabaseFullChain(t *testing.T) {
	dir := t.TempDir()

	// Seed rows that predate every derived column.
	raw := openRaw(t, dir)
	seedRawBeer(t, raw, types.AllBeersTable, "b-1", "Session Ale", "Pale Ale", "Draft", "Easy drinking, 4.5% ABV")
	seedRawBeer(t, raw, types.AllBeersTable, "b-2", "Abbey Quad", "Quadrupel", "Draft", "Dark fruit, 10.2% ABV")
	seedRawBeer(t, raw, types.AllBeersTable, "b-3", "Roadie", "Lager", "16oz Can", "Crushable.")
	seedRawBeer(t, raw, types.AllBeersTable, "b-4", "Cellar Reserve", "Barleywine", "Bottled", "Vintage 2019")
	seedRawBeer(t, raw, types.AllBeersTable, "b-5", "Tasting Flight", "Flight", "Draft", "Four 4oz pours")
	seedRawBeer(t, raw, types.TastedTable, "b-2", "Abbey Quad", "Quadrupel", "Draft", "Dark fruit, 10.2% ABV")
	require.NoError(t, raw.Close())

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	// Ledger holds exactly versions 3 through 7, in order.
	entries, err := b.AppliedMigrations()
	require.NoError(t, err)
	var versions []int
	for _, e := range entries {
		require.NotEmpty(t, e.AppliedAt)
		versions = append(versions, e.Version)
	}
	require.Equal(t, []int{3, 4, 5, 6, 7}, versions)

	version, err := b.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, 7, version)

	// Every derived field matches what the calculators produce.
	all, err := b.GetAll(types.AllBeersTable)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, rec := range all {
		wantABV := derive.ExtractABV(rec.BrewDescription)
		wantCT := derive.ContainerTypeFor(rec.BrewContainer, rec.BrewDescription, rec.BrewStyle, rec.BrewName, nil)
		if wantABV == nil {
			require.Nil(t, rec.ABV, "row %s", rec.ID)
		} else {
			require.NotNil(t, rec.ABV, "row %s", rec.ID)
			require.Equal(t, *wantABV, *rec.ABV, "row %s", rec.ID)
		}
		require.Equal(t, wantCT, rec.ContainerType, "row %s", rec.ID)
		require.Nil(t, rec.EnrichmentConfidence, "row %s", rec.ID)
		require.Empty(t, rec.EnrichmentSource, "row %s", rec.ID)
	}

	// Both tables migrated in lockstep.
	tasted, err := b.GetAll(types.TastedTable)
	require.NoError(t, err)
	require.Len(t, tasted, 1)
	require.Equal(t, types.ContainerTulip, tasted[0].ContainerType)
}

func TestRunnerSkipsAppliedVersions(t *testing.T) {
	dir := t.TempDir()

	// Seed a database already at version 4: container_type exists, abv
	// and enrichment columns do not.
	raw := openRaw(t, dir)
	for _, table := range types.BeerTableNames {
		_, err := raw.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN container_type TEXT", table))
		require.NoError(t, err)
	}
	_, err := raw.Exec(createSchemaVersionDDL)
	require.NoError(t, err)
	for _, v := range []int{3, 4} {
		_, err := raw.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, 'seeded')", v)
		require.NoError(t, err)
	}
	seedRawBeer(t, raw, types.AllBeersTable, "b-1", "Hazy Flight", "Flight", "Draft", "Sampler, 6.0% ABV")
	require.NoError(t, raw.Close())

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	entries, err := b.AppliedMigrations()
	require.NoError(t, err)
	require.Len(t, entries, 5)
	// Seeded entries untouched; 5, 6, 7 appended in order.
	require.Equal(t, "seeded", entries[0].AppliedAt)
	require.Equal(t, "seeded", entries[1].AppliedAt)
	require.Equal(t, []int{5, 6, 7}, []int{entries[2].Version, entries[3].Version, entries[4].Version})

	all, err := b.GetAll(types.AllBeersTable)
	require.NoError(t, err)
	require.Equal(t, types.ContainerFlight, all[0].ContainerType)
	require.NotNil(t, all[0].ABV)
	require.Equal(t, 6.0, *all[0].ABV)
}

func TestFailedMigrationHaltsChain(t *testing.T) {
	dir := t.TempDir()

	// Version 5 recorded, but the abv column already exists without its
	// ledger entry. v6's ALTER must fail with a duplicate-column error,
	// and v7 must never run.
	raw := openRaw(t, dir)
	for _, table := range types.BeerTableNames {
		_, err := raw.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN container_type TEXT", table))
		require.NoError(t, err)
		_, err = raw.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN abv REAL", table))
		require.NoError(t, err)
	}
	_, err := raw.Exec(createSchemaVersionDDL)
	require.NoError(t, err)
	for _, v := range []int{3, 4, 5} {
		_, err := raw.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, 'seeded')", v)
		require.NoError(t, err)
	}
	require.NoError(t, raw.Close())

	b := NewBackend()
	err = b.Attach(testConfig(dir))
	require.Error(t, err)
	require.Contains(t, err.Error(), "migration v6")

	// No v6 ledger entry, no v7 columns.
	verify, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFileName))
	require.NoError(t, err)
	defer verify.Close()

	var max int
	require.NoError(t, verify.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&max))
	require.Equal(t, 5, max)

	exists, err := columnExists(verify, types.AllBeersTable, "enrichment_confidence")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStructuralReapplyRaisesAndReleasesLock(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	// Directly re-invoke the abv migration against the fully migrated
	// schema. The duplicate-column error must propagate, and the lock
	// must be free afterward.
	var v6 migration
	for _, m := range schemaMigrations {
		if m.version == 6 {
			v6 = m
		}
	}
	err := b.applyMigration(v6, nil)
	require.Error(t, err)
	require.Contains(t, strings.ToLower(err.Error()), "duplicate column")
	require.False(t, b.lock.IsLocked())

	// The failed transaction rolled back: no extra ledger entry.
	version, err := b.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, 7, version)
}

func TestEnrichmentGuardSkipsExistingColumns(t *testing.T) {
	dir := t.TempDir()

	// Ledger at 6 but enrichment columns already present (an interrupted
	// earlier v7 whose pragma check must now detect the columns).
	raw := openRaw(t, dir)
	for _, table := range types.BeerTableNames {
		for _, stmt := range []string{
			"ALTER TABLE %s ADD COLUMN container_type TEXT",
			"ALTER TABLE %s ADD COLUMN abv REAL",
			"ALTER TABLE %s ADD COLUMN enrichment_confidence REAL",
			"ALTER TABLE %s ADD COLUMN enrichment_source TEXT",
		} {
			_, err := raw.Exec(fmt.Sprintf(stmt, table))
			require.NoError(t, err)
		}
	}
	_, err := raw.Exec(createSchemaVersionDDL)
	require.NoError(t, err)
	for _, v := range []int{3, 4, 5, 6} {
		_, err := raw.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, 'seeded')", v)
		require.NoError(t, err)
	}
	require.NoError(t, raw.Close())

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	version, err := b.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, 7, version)
}

func TestBackfillBatchingAndProgress(t *testing.T) {
	dir := t.TempDir()

	raw := openRaw(t, dir)
	for i := 0; i < 150; i++ {
		seedRawBeer(t, raw, types.AllBeersTable, fmt.Sprintf("b-%03d", i),
			fmt.Sprintf("Beer %d", i), "Pale Ale", "Draft", fmt.Sprintf("Batch brew, %d.5%% ABV", i%5))
	}
	require.NoError(t, raw.Close())

	var calls int
	var lastProcessed, lastTotal int
	b := NewBackend()
	b.OnMigrationProgress = func(processed, total int) {
		calls++
		require.LessOrEqual(t, processed, total)
		lastProcessed, lastTotal = processed, total
	}
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	// Progress fired and finished complete for the final migration pass.
	require.Greater(t, calls, 0)
	require.Equal(t, lastTotal, lastProcessed)

	all, err := b.GetAll(types.AllBeersTable)
	require.NoError(t, err)
	require.Len(t, all, 150)
	for _, rec := range all {
		require.Equal(t, types.ContainerPint, rec.ContainerType, "row %s", rec.ID)
		require.NotNil(t, rec.ABV, "row %s", rec.ID)
	}
}

func TestWriteBatchedStatementCount(t *testing.T) {
	dir := t.TempDir()
	db := openRaw(t, dir)
	defer db.Close()
	_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN container_type TEXT", types.AllBeersTable))
	require.NoError(t, err)

	updates := make([]rowUpdate, 150)
	for i := range updates {
		id := fmt.Sprintf("b-%03d", i)
		seedRawBeer(t, db, types.AllBeersTable, id, "Beer", "Lager", "Draft", "")
		updates[i] = rowUpdate{id: id, value: "pint"}
	}

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	var batches int
	require.NoError(t, writeBatched(tx, types.AllBeersTable, "container_type", updates, 100, func(written int) {
		batches++
	}))
	require.Equal(t, 2, batches, "150 rows at batch size 100 must issue exactly 2 statements")
	require.NoError(t, tx.Commit())

	var n int
	require.NoError(t, db.QueryRow(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE container_type = 'pint'", types.AllBeersTable)).Scan(&n))
	require.Equal(t, 150, n)
}
