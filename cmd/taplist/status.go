package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version, migration history, and lock state",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := catalog.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("schema version: %d\n", version)

		entries, err := catalog.AppliedMigrations()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no migrations recorded")
		}
		for _, e := range entries {
			fmt.Printf("  v%d applied %s\n", e.Version, e.AppliedAt)
		}

		m := catalog.LockMetrics()
		holder := m.CurrentOperation
		if holder == "" {
			holder = "(idle)"
		}
		fmt.Printf("write lock: %s, %d queued\n", holder, m.QueueLength)
		return nil
	},
}
