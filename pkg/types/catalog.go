package types

import "errors"

// Catalog is the read/write facade over the local beer cache. Callers
// attach once at startup (which runs any pending schema migrations),
// perform reads and writes, and detach on shutdown.
type Catalog interface {
	// GetAll returns every record in the named table.
	// Returns ErrTableNotFound if the name is not a standard beer table.
	GetAll(table string) ([]BeerRecord, error)

	// InsertMany upserts records by ID into the named table. Derived
	// fields are computed before writing, so freshly synced rows carry
	// container_type and abv without waiting for a migration.
	InsertMany(table string, records []BeerRecord) error

	// GetUntasted returns catalog entries not present in the tasted table.
	GetUntasted() ([]BeerRecord, error)

	// GetByContainerType returns records in the named table with the given
	// classification.
	GetByContainerType(table string, ct ContainerType) ([]BeerRecord, error)

	// SchemaVersion returns the highest applied migration version, or 0
	// for a fresh database.
	SchemaVersion() (int, error)

	// Attach opens the database described by config, creating DataDir if
	// needed, and runs pending schema migrations. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach drains in-flight lock holders and releases backend resources.
	// Idempotent: multiple calls succeed. After Detach, operations return
	// ErrCatalogDetached.
	Detach() error
}

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
	ErrTableNotFound   = errors.New("table not found")
)

// Operation errors.
var (
	ErrInvalidRecord = errors.New("invalid beer record")
	ErrLockTimeout   = errors.New("could not acquire write lock, please retry")
	ErrShuttingDown  = errors.New("catalog is shutting down")
)
