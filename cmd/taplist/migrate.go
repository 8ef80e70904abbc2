package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Migrations run automatically whenever the catalog is opened; this
command exists to run them eagerly and watch backfill progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := catalog.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("schema up to date at version %d\n", version)
		return nil
	},
}

// printMigrationProgress renders batched backfill progress, one line per
// batch.
func printMigrationProgress(processed, total int) {
	fmt.Printf("backfill %d/%d rows\n", processed, total)
}
