// Package rma normalizes a raw probe intensity matrix into comparable
// log-scale values: per-sample background shift, log2 transform, then
// quantile normalization across samples. The procedure is deterministic;
// the same input always yields the same output.
package rma

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"tcellatlas/internal/expr"
)

// backgroundQuantile is the per-sample quantile treated as the scanner
// background level.
const backgroundQuantile = 0.02

// Normalize derives the normalized log2 intensity matrix from raw
// scanner intensities.
func Normalize(raw *expr.Matrix) (*expr.Matrix, error) {
	nRows, nCols := raw.Dims()
	if nRows == 0 || nCols == 0 {
		return nil, fmt.Errorf("cannot normalize an empty matrix")
	}

	m := raw.Clone()

	for j := 0; j < nCols; j++ {
		bg := columnBackground(m, j)
		for i := 0; i < nRows; i++ {
			v := m.Values[i][j] - bg
			if v < 1 {
				v = 1
			}
			m.Values[i][j] = math.Log2(v)
		}
	}

	quantileNormalize(m)
	return m, nil
}

func columnBackground(m *expr.Matrix, j int) float64 {
	col := m.Column(j)
	sort.Float64s(col)
	return stat.Quantile(backgroundQuantile, stat.Empirical, col, nil)
}

// quantileNormalize forces every sample column onto the same empirical
// distribution: cells are replaced by the cross-sample mean of their
// rank row, with tied input values receiving the mean of their tied
// ranks' targets.
func quantileNormalize(m *expr.Matrix) {
	nRows, nCols := m.Dims()

	// Per-column ascending orderings.
	orders := make([][]int, nCols)
	for j := 0; j < nCols; j++ {
		order := make([]int, nRows)
		for i := range order {
			order[i] = i
		}
		col := j
		sort.SliceStable(order, func(a, b int) bool {
			return m.Values[order[a]][col] < m.Values[order[b]][col]
		})
		orders[j] = order
	}

	// Mean across columns at each rank.
	target := make([]float64, nRows)
	for r := 0; r < nRows; r++ {
		sum := 0.0
		for j := 0; j < nCols; j++ {
			sum += m.Values[orders[j][r]][j]
		}
		target[r] = sum / float64(nCols)
	}

	// Assign targets back, averaging over runs of tied input values.
	for j := 0; j < nCols; j++ {
		order := orders[j]
		for start := 0; start < nRows; {
			end := start + 1
			v := m.Values[order[start]][j]
			for end < nRows && m.Values[order[end]][j] == v {
				end++
			}
			assigned := stat.Mean(target[start:end], nil)
			for r := start; r < end; r++ {
				m.Values[order[r]][j] = assigned
			}
			start = end
		}
	}
}
