// Package embeddings loads precomputed embedding tables and computes pairwise
// cosine similarity with explicit missing-key accounting.
package embeddings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table maps entity IDs to fixed-length vectors. Keys are stored trimmed;
// lookups trim their argument as well, so whitespace never causes a coverage
// gap.
type Table struct {
	name    string
	dim     int
	vectors map[string][]float64

	// SkippedRows counts rows dropped for unparsable values or a vector
	// width differing from the first row.
	SkippedRows int
}

// LoadTable reads a wide CSV embedding table: one ID column followed by one
// numeric column per vector dimension. The first data row fixes the
// dimensionality.
func LoadTable(path, name, idColumn string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s embeddings: file not found: %s", name, path)
		}
		return nil, fmt.Errorf("%s embeddings: open %s: %w", name, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s embeddings: reading header of %s: %w", name, path, err)
	}

	idIdx := -1
	for i, col := range header {
		if strings.TrimSpace(col) == idColumn {
			idIdx = i
			break
		}
	}
	if idIdx != 0 {
		return nil, fmt.Errorf("%s embeddings: %s: first column must be %q", name, path, idColumn)
	}

	t := &Table{
		name:    name,
		dim:     len(header) - 1,
		vectors: make(map[string][]float64),
	}
	if t.dim <= 0 {
		return nil, fmt.Errorf("%s embeddings: %s has no vector columns", name, path)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil || len(row) != t.dim+1 {
			t.SkippedRows++
			continue
		}

		vec := make([]float64, t.dim)
		ok := true
		for i := 0; i < t.dim; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
			if err != nil {
				ok = false
				break
			}
			vec[i] = v
		}
		if !ok {
			t.SkippedRows++
			continue
		}

		t.vectors[strings.TrimSpace(row[idIdx])] = vec
	}

	return t, nil
}

// NewTable builds a table from an in-memory map. Used by tests and callers
// that generate vectors directly.
func NewTable(name string, vectors map[string][]float64) *Table {
	dim := 0
	for _, v := range vectors {
		dim = len(v)
		break
	}
	return &Table{name: name, dim: dim, vectors: vectors}
}

// Lookup returns the vector for the trimmed ID.
func (t *Table) Lookup(id string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.vectors[strings.TrimSpace(id)]
	return v, ok
}

// Len returns the number of stored vectors.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.vectors)
}

// Dimension returns the vector width.
func (t *Table) Dimension() int {
	if t == nil {
		return 0
	}
	return t.dim
}

// Cosine computes cosine similarity between two vectors. A zero vector yields
// 0 rather than NaN.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
