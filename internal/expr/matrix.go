// Package expr holds the expression matrix type shared by the pipeline
// stages, plus loaders for raw per-sample signal files and the TSV
// round-trip used to hand matrices between stages through the cache.
package expr

import "fmt"

// Matrix is a dense rows × samples expression table. Rows are keyed by
// probe ID before annotation and by gene symbol after collapsing.
// Treat a Matrix as immutable once built; stages derive new ones.
type Matrix struct {
	Rows    []string
	Samples []string
	Values  [][]float64
}

// New allocates a zero-filled matrix with the given row and sample keys.
func New(rows, samples []string) *Matrix {
	values := make([][]float64, len(rows))
	for i := range values {
		values[i] = make([]float64, len(samples))
	}
	return &Matrix{Rows: rows, Samples: samples, Values: values}
}

// Dims returns (rows, samples).
func (m *Matrix) Dims() (int, int) {
	return len(m.Rows), len(m.Samples)
}

// SampleIndex returns the column index of a sample ID, or an error.
func (m *Matrix) SampleIndex(sample string) (int, error) {
	for j, s := range m.Samples {
		if s == sample {
			return j, nil
		}
	}
	return 0, fmt.Errorf("sample %s not in matrix", sample)
}

// Column copies one sample column.
func (m *Matrix) Column(j int) []float64 {
	col := make([]float64, len(m.Rows))
	for i := range m.Values {
		col[i] = m.Values[i][j]
	}
	return col
}

// Clone deep-copies the matrix.
func (m *Matrix) Clone() *Matrix {
	out := New(append([]string(nil), m.Rows...), append([]string(nil), m.Samples...))
	for i := range m.Values {
		copy(out.Values[i], m.Values[i])
	}
	return out
}

func (m *Matrix) validate() error {
	if len(m.Values) != len(m.Rows) {
		return fmt.Errorf("matrix has %d value rows for %d row keys", len(m.Values), len(m.Rows))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Samples) {
			return fmt.Errorf("row %s has %d values for %d samples", m.Rows[i], len(row), len(m.Samples))
		}
	}
	return nil
}
