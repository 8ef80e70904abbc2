package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brewlog/taplist/pkg/types"
)

var (
	listTable     string
	listUntasted  bool
	listContainer string
	listJSON      bool
)

func init() {
	listCmd.Flags().StringVar(&listTable, "table", types.AllBeersTable, "table to read (allbeers or tasted_brew_current_round)")
	listCmd.Flags().BoolVar(&listUntasted, "untasted", false, "only catalog entries not in the current round")
	listCmd.Flags().StringVar(&listContainer, "container", "", "filter by container type (pint, tulip, can, bottle, flight)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output JSON lines")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached beer records",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			records []types.BeerRecord
			err     error
		)
		switch {
		case listUntasted:
			records, err = catalog.GetUntasted()
		case listContainer != "":
			records, err = catalog.GetByContainerType(listTable, types.ContainerType(listContainer))
		default:
			records, err = catalog.GetAll(listTable)
		}
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		}

		for _, rec := range records {
			container := string(rec.ContainerType)
			if container == "" {
				container = "-"
			}
			abv := "-"
			if rec.ABV != nil {
				abv = fmt.Sprintf("%.1f%%", *rec.ABV)
			}
			fmt.Printf("%-40s %-20s %-8s %s\n", rec.BrewName, rec.BrewStyle, container, abv)
		}
		fmt.Printf("%d records\n", len(records))
		return nil
	},
}
