// Package main provides the taplist CLI: a local beer-catalog cache with
// versioned schema migrations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brewlog/taplist/internal/sqlite"
)

var (
	// flagConfigDir is set by the --config-dir flag.
	flagConfigDir string

	// flagDataDir is set by the --data-dir flag.
	flagDataDir string

	// catalog is the shared backend, initialized on startup.
	catalog *sqlite.Backend
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taplist",
	Short: "taplist manages the local beer-catalog cache",
	Long: `Taplist maintains a local SQLite cache of a venue's beer catalog and
the current tasting round, evolving its schema through versioned
migrations that backfill derived fields (container type, ABV).`,
	SilenceUsage:       true,
	PersistentPreRunE:  openCatalog,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return closeCatalog() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory holding the database")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("taplist v0.1.0")
	},
}

// openCatalog loads config and attaches the backend, which runs every
// pending schema migration before any command logic executes.
func openCatalog(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	backend := sqlite.NewBackend()
	if cmd.Name() == "migrate" {
		backend.OnMigrationProgress = printMigrationProgress
	}
	if err := backend.Attach(cfg); err != nil {
		return fmt.Errorf("attach catalog: %w", err)
	}
	catalog = backend
	return nil
}

// closeCatalog detaches the backend and releases resources.
func closeCatalog() error {
	if catalog != nil {
		return catalog.Detach()
	}
	return nil
}
