package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/brewlog/taplist/internal/logging"
	"github.com/brewlog/taplist/internal/oplock"
	"github.com/brewlog/taplist/pkg/types"
)

// DatabaseFileName is the SQLite file created under Config.DataDir.
const DatabaseFileName = "taplist.db"

// shutdownDrainTimeout bounds how long Detach waits for the write lock to
// drain before closing the handle anyway.
const shutdownDrainTimeout = 5 * time.Second

// Backend implements the Catalog interface over a local SQLite database.
// The database handle is owned by the backend; all schema-mutating and
// bulk-write operations go through the injected write lock, while plain
// reads proceed without it.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	lock     *oplock.Lock
	logger   *zap.Logger

	// OnMigrationProgress, when set before Attach, receives
	// (processed, total) after every backfill batch.
	OnMigrationProgress ProgressFunc
}

var _ types.Catalog = (*Backend)(nil)

// NewBackend creates an unattached backend; call Attach with a Config to
// open the database and run pending migrations.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (creating if needed) the database under config.DataDir,
// ensures the base schema, and applies every pending schema migration in
// ascending version order. Returns ErrAlreadyAttached when attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	config = config.Normalize()

	logger, err := logging.New(config.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(config.DataDir, DatabaseFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging %s: %w", dbPath, err)
	}

	for _, pragma := range openPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	for _, ddl := range baseSchemaDDL(types.BeerTableNames) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("ensuring base schema: %w", err)
		}
	}

	b.config = config
	b.db = db
	b.logger = logger

	// One lock instance survives detach/attach cycles so queued callers
	// keep their ordering; only the shutdown flag resets.
	if b.lock == nil {
		b.lock = oplock.New(config.LockHoldTimeout, logger)
	} else {
		b.lock.ResetShutdownState()
	}

	if err := b.runPendingMigrations(b.OnMigrationProgress); err != nil {
		db.Close()
		b.db = nil
		return err
	}

	b.attached = true
	b.logger.Info("catalog attached", zap.String("db", dbPath))
	return nil
}

// Detach drains the write lock and closes the database handle. Idempotent.
// A dirty drain (a holder that never released) is logged; the handle is
// closed regardless, bounded by the watchdog having force-released by then.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if drained := b.lock.PrepareForShutdown(shutdownDrainTimeout); !drained {
		b.logger.Warn("write lock did not drain before shutdown",
			zap.String("operation", b.lock.CurrentOperation()))
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Info("catalog detached")
	_ = b.logger.Sync()
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for a
// fresh database.
func (b *Backend) SchemaVersion() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrCatalogDetached
	}
	return currentVersion(b.db)
}

// AppliedMigrations returns the ledger entries in version order.
func (b *Backend) AppliedMigrations() ([]LedgerEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrCatalogDetached
	}
	return appliedMigrations(b.db)
}

// LockMetrics returns the write lock's observability snapshot.
func (b *Backend) LockMetrics() oplock.Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lock == nil {
		return oplock.Metrics{}
	}
	return b.lock.Metrics()
}
