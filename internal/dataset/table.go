package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
)

// Table is a raw CSV table loaded into memory. Values are kept as strings;
// typed record construction happens in the per-entity loaders.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	// SkippedLines counts malformed CSV lines dropped during the read.
	SkippedLines int

	index map[string]int
}

// LoadTable reads a CSV file and validates that every required column is
// present. A missing file or a missing column is fatal; malformed data lines
// are skipped and counted.
func LoadTable(path, name string, required []string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s table: file not found: %s", name, path)
		}
		return nil, fmt.Errorf("%s table: open %s: %w", name, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s table: reading header of %s: %w", name, path, err)
	}

	t := &Table{
		Name:   name,
		Header: header,
		index:  make(map[string]int, len(header)),
	}
	for i, col := range header {
		t.index[strings.TrimSpace(col)] = i
	}

	var schemaErr error
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			schemaErr = multierr.Append(schemaErr, fmt.Errorf("missing column %q", col))
		}
	}
	if schemaErr != nil {
		return nil, fmt.Errorf("%s table: invalid schema in %s: %w", name, path, schemaErr)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.SkippedLines++
			continue
		}
		if len(row) != len(header) {
			t.SkippedLines++
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Get returns the trimmed value of the named column for the given row, or an
// empty string when the column is absent.
func (t *Table) Get(row []string, col string) string {
	idx, ok := t.index[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[col]
	return ok
}

// NullCounts returns the number of empty values per column, for inspection
// reports.
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int, len(t.Header))
	for _, col := range t.Header {
		name := strings.TrimSpace(col)
		for _, row := range t.Rows {
			if t.Get(row, name) == "" {
				counts[name]++
			}
		}
	}
	return counts
}

// DuplicateCount returns the number of fully identical rows beyond the first
// occurrence.
func (t *Table) DuplicateCount() int {
	seen := make(map[string]int, len(t.Rows))
	dups := 0
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if seen[key] > 0 {
			dups++
		}
		seen[key]++
	}
	return dups
}
