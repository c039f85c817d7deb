package rma

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"tcellatlas/internal/expr"
)

func testMatrix() *expr.Matrix {
	m := expr.New([]string{"p1", "p2", "p3", "p4"}, []string{"s1", "s2"})
	m.Values[0] = []float64{100, 300}
	m.Values[1] = []float64{200, 600}
	m.Values[2] = []float64{400, 1200}
	m.Values[3] = []float64{800, 2400}
	return m
}

func TestNormalize_Deterministic(t *testing.T) {
	a, err := Normalize(testMatrix())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(testMatrix())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Values, b.Values) {
		t.Error("normalization is not deterministic")
	}
}

func TestNormalize_InputUntouched(t *testing.T) {
	raw := testMatrix()
	if _, err := Normalize(raw); err != nil {
		t.Fatal(err)
	}
	if raw.Values[0][0] != 100 {
		t.Error("raw matrix was mutated")
	}
}

// After quantile normalization every sample column must carry the same
// empirical distribution.
func TestNormalize_ColumnsShareDistribution(t *testing.T) {
	m, err := Normalize(testMatrix())
	if err != nil {
		t.Fatal(err)
	}

	cols := make([][]float64, len(m.Samples))
	for j := range m.Samples {
		cols[j] = m.Column(j)
		sort.Float64s(cols[j])
	}
	for j := 1; j < len(cols); j++ {
		for r := range cols[0] {
			if math.Abs(cols[j][r]-cols[0][r]) > 1e-12 {
				t.Fatalf("column %d rank %d: %g != %g", j, r, cols[j][r], cols[0][r])
			}
		}
	}
}

func TestNormalize_MonotonePerColumn(t *testing.T) {
	raw := testMatrix()
	m, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	// Raw ordering within each column must survive normalization.
	for j := range m.Samples {
		for i := 1; i < len(m.Rows); i++ {
			if m.Values[i][j] < m.Values[i-1][j] {
				t.Fatalf("column %d lost monotonicity at row %d", j, i)
			}
		}
	}
}

func TestNormalize_TiesShareValue(t *testing.T) {
	m := expr.New([]string{"p1", "p2", "p3"}, []string{"s1", "s2"})
	m.Values[0] = []float64{50, 10}
	m.Values[1] = []float64{50, 20}
	m.Values[2] = []float64{500, 30}

	out, err := Normalize(m)
	if err != nil {
		t.Fatal(err)
	}
	// p1 and p2 are tied in s1 and must end up identical there.
	if out.Values[0][0] != out.Values[1][0] {
		t.Errorf("tied inputs diverged: %g vs %g", out.Values[0][0], out.Values[1][0])
	}
}

func TestNormalize_Empty(t *testing.T) {
	if _, err := Normalize(expr.New(nil, nil)); err == nil {
		t.Fatal("expected error for empty matrix")
	}
}

func TestNormalize_LogScale(t *testing.T) {
	m, err := Normalize(testMatrix())
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Rows {
		for j := range m.Samples {
			v := m.Values[i][j]
			if v < 0 || v > 12 {
				t.Fatalf("value %g at (%d,%d) is not a plausible log2 intensity", v, i, j)
			}
		}
	}
}
