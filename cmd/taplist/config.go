// Config loading for the taplist CLI.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/brewlog/taplist/internal/paths"
	"github.com/brewlog/taplist/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyDataDir   = "data_dir"
	cfgKeyLogLevel  = "log_level"
	cfgKeyAcquireTO = "lock.acquire_timeout"
	cfgKeyHoldTO    = "lock.hold_timeout"
	cfgKeyBatchSize = "migration.batch_size"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# taplist configuration

# Data directory holding the SQLite database (optional; --data-dir wins)
# data_dir:

log_level: info

lock:
  # How long a queued write waits for the lock before giving up.
  acquire_timeout: 30s
  # How long one operation may hold the lock before the watchdog
  # force-releases it.
  hold_timeout: 15s

migration:
  # Rows per bulk UPDATE during backfills.
  batch_size: 100
`

// loadConfig resolves directories, reads config.yaml via Viper (creating
// a default on first run), and builds the backend Config. A missing
// config.yaml is not an error.
func loadConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyAcquireTO, types.DefaultLockAcquireTimeout)
	v.SetDefault(cfgKeyHoldTO, types.DefaultLockHoldTimeout)
	v.SetDefault(cfgKeyBatchSize, types.DefaultMigrationBatchSize)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(flagDataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		DataDir:            dataDir,
		LogLevel:           v.GetString(cfgKeyLogLevel),
		LockAcquireTimeout: v.GetDuration(cfgKeyAcquireTO),
		LockHoldTimeout:    v.GetDuration(cfgKeyHoldTO),
		MigrationBatchSize: v.GetInt(cfgKeyBatchSize),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// ensureDefaultConfigFile writes a commented default config.yaml if none
// exists yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileName+"."+configFileType)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
