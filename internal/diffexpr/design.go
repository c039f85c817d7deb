// Package diffexpr fits a per-gene linear model against a two-level
// treatment design, moderates the gene-wise variances with an
// empirical-Bayes shrinkage step, and ranks genes by the resulting
// moderated t-statistic.
package diffexpr

import (
	"fmt"

	"tcellatlas/internal/expr"
)

// Design assigns matrix sample columns to the reference and contrast
// treatment levels. Samples under any other treatment are excluded from
// the fit.
type Design struct {
	Reference string
	Contrast  string

	refCols []int
	conCols []int
}

// NewDesign builds a design from a sample→treatment assignment. Both
// levels need at least two samples for a residual variance to exist.
func NewDesign(m *expr.Matrix, treatments map[string]string, reference, contrast string) (*Design, error) {
	if reference == contrast {
		return nil, fmt.Errorf("design levels must differ (both %q)", reference)
	}

	d := &Design{Reference: reference, Contrast: contrast}
	for j, sample := range m.Samples {
		t, ok := treatments[sample]
		if !ok {
			return nil, fmt.Errorf("sample %s has no treatment assignment", sample)
		}
		switch t {
		case reference:
			d.refCols = append(d.refCols, j)
		case contrast:
			d.conCols = append(d.conCols, j)
		}
	}

	if len(d.refCols) < 2 || len(d.conCols) < 2 {
		return nil, fmt.Errorf("need >= 2 samples per level, have %d %q and %d %q",
			len(d.refCols), reference, len(d.conCols), contrast)
	}
	return d, nil
}

// Counts returns the per-level sample counts (reference, contrast).
func (d *Design) Counts() (int, int) {
	return len(d.refCols), len(d.conCols)
}

// ResidualDF is the degrees of freedom of the per-gene residual
// variance under the two-group model.
func (d *Design) ResidualDF() float64 {
	return float64(len(d.refCols) + len(d.conCols) - 2)
}
