package types

import (
	"errors"
	"time"
)

// Defaults applied by Config.Normalize.
const (
	DefaultLockAcquireTimeout = 30 * time.Second
	DefaultLockHoldTimeout    = 15 * time.Second
	DefaultMigrationBatchSize = 100
)

// Config holds parameters for Catalog.Attach.
type Config struct {
	// DataDir is the directory holding the SQLite database file and any
	// JSONL snapshots. Created on attach if absent.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// LogLevel selects the zap level: debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// LockAcquireTimeout bounds how long a queued operation waits for the
	// write lock before giving up. Zero selects the default.
	LockAcquireTimeout time.Duration `json:"lock_acquire_timeout" yaml:"lock_acquire_timeout"`

	// LockHoldTimeout bounds how long one operation may hold the write
	// lock before the watchdog force-releases it. Zero selects the default.
	LockHoldTimeout time.Duration `json:"lock_hold_timeout" yaml:"lock_hold_timeout"`

	// MigrationBatchSize is the number of rows written per bulk UPDATE
	// during backfills. Zero selects the default.
	MigrationBatchSize int `json:"migration_batch_size" yaml:"migration_batch_size"`
}

// Config validation errors.
var (
	ErrDataDirEmpty      = errors.New("data dir must not be empty")
	ErrTimeoutNegative   = errors.New("timeouts must not be negative")
	ErrBatchSizeNegative = errors.New("migration batch size must not be negative")
)

// Validate checks that the Config is well-formed, returning a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.LockAcquireTimeout < 0 || c.LockHoldTimeout < 0 {
		return ErrTimeoutNegative
	}
	if c.MigrationBatchSize < 0 {
		return ErrBatchSizeNegative
	}
	return nil
}

// Normalize returns a copy of c with zero-valued tunables replaced by
// their defaults.
func (c Config) Normalize() Config {
	if c.LockAcquireTimeout == 0 {
		c.LockAcquireTimeout = DefaultLockAcquireTimeout
	}
	if c.LockHoldTimeout == 0 {
		c.LockHoldTimeout = DefaultLockHoldTimeout
	}
	if c.MigrationBatchSize == 0 {
		c.MigrationBatchSize = DefaultMigrationBatchSize
	}
	return c
}
