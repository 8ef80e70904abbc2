// This file provides JSONL snapshot import/export for the beer tables,
// with atomic writes via the temp-file, fsync, rename pattern.

package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brewlog/taplist/pkg/types"
)

// ExportJSONL writes every record of the named table to path, one JSON
// object per line, atomically.
func (b *Backend) ExportJSONL(table, path string) error {
	records, err := b.GetAll(table)
	if err != nil {
		return err
	}

	lines := make([][]byte, 0, len(records))
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record %s: %w", rec.ID, err)
		}
		lines = append(lines, line)
	}
	return writeLinesAtomic(path, lines)
}

// ImportJSONL reads beer records from a JSONL file and upserts them into
// the named table. Malformed lines and records without an ID are skipped;
// the import is not aborted by a bad line.
func (b *Backend) ImportJSONL(table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []types.BeerRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.BeerRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanning %s: %w", path, err)
	}

	if err := b.InsertMany(table, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// writeLinesAtomic writes lines to path through a temp file in the same
// directory, syncing before the rename so a crash leaves either the old
// snapshot or the new one, never a torn file.
func writeLinesAtomic(path string, lines [][]byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			cleanup()
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			cleanup()
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("flushing: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
