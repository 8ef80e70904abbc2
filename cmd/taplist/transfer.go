// JSONL snapshot commands: import a synced catalog, export the cache.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brewlog/taplist/pkg/types"
)

var (
	importTable string
	exportTable string
)

func init() {
	importCmd.Flags().StringVar(&importTable, "table", types.AllBeersTable, "destination table")
	exportCmd.Flags().StringVar(&exportTable, "table", types.AllBeersTable, "source table")
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Upsert beer records from a JSONL file",
	Long: `Import reads one JSON beer record per line and upserts them by ID.
Derived fields (container type, ABV) are computed at write time.
Malformed lines are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := catalog.ImportJSONL(importTable, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("imported %d records into %s\n", n, importTable)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a table's records to a JSONL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := catalog.ExportJSONL(exportTable, args[0]); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", exportTable, args[0])
		return nil
	},
}
