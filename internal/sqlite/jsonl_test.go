package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brewlog/taplist/pkg/types"
)

func TestJSONLRoundTrip(t *testing.T) {
	b := attachFresh(t)

	records := []types.BeerRecord{
		{ID: "b-1", BrewName: "First", BrewContainer: "Draft", BrewDescription: "Crisp, 5.0% ABV"},
		{ID: "b-2", BrewName: "Second", BrewContainer: "Can"},
	}
	if err := b.InsertMany(types.AllBeersTable, records); err != nil {
		t.Fatalf("seed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "beers.jsonl")
	if err := b.ExportJSONL(types.AllBeersTable, path); err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}

	other := attachFresh(t)
	n, err := other.ImportJSONL(types.AllBeersTable, path)
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d records, want 2", n)
	}

	all, err := other.GetAll(types.AllBeersTable)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d records, want 2", len(all))
	}
	// Derived fields survive the round trip.
	for _, rec := range all {
		if rec.ID == "b-1" {
			if rec.ContainerType != types.ContainerPint {
				t.Errorf("b-1 container = %q, want pint", rec.ContainerType)
			}
			if rec.ABV == nil || *rec.ABV != 5.0 {
				t.Errorf("b-1 abv = %v, want 5.0", rec.ABV)
			}
		}
	}
}

func TestImportJSONLSkipsMalformedLines(t *testing.T) {
	b := attachFresh(t)

	path := filepath.Join(t.TempDir(), "mixed.jsonl")
	content := `{"id":"b-1","brew_name":"Good"}
not json at all
{"brew_name":"missing id"}

{"id":"b-2","brew_name":"Also Good","brew_container":"Can"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := b.ImportJSONL(types.AllBeersTable, path)
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d records, want 2", n)
	}
}
