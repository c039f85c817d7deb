package diffexpr

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tcellatlas/internal/expr"
)

// GeneFit is the ordinary least-squares fit for one gene.
type GeneFit struct {
	Gene    string
	LogFC   float64 // contrast mean minus reference mean
	AveExpr float64 // mean over all design samples
	S2      float64 // pooled residual variance
}

// Fit holds the per-gene fits plus the shared design quantities needed
// by the moderation step.
type Fit struct {
	Genes []GeneFit
	DF    float64 // residual degrees of freedom per gene
	NRef  int
	NCon  int
}

// Result is one row of the differential-expression table.
type Result struct {
	Gene    string  `json:"gene"`
	LogFC   float64 `json:"log_fc"`
	AveExpr float64 `json:"ave_expr"`
	T       float64 `json:"t"`
	P       float64 `json:"p_value"`
	AdjP    float64 `json:"adj_p_value"`
}

// FitLinear fits the two-group linear model gene by gene.
func FitLinear(m *expr.Matrix, d *Design) (*Fit, error) {
	nRows, _ := m.Dims()
	if nRows == 0 {
		return nil, fmt.Errorf("cannot fit an empty matrix")
	}

	nRef, nCon := d.Counts()
	fit := &Fit{
		Genes: make([]GeneFit, nRows),
		DF:    d.ResidualDF(),
		NRef:  nRef,
		NCon:  nCon,
	}

	ref := make([]float64, nRef)
	con := make([]float64, nCon)
	for i, gene := range m.Rows {
		for k, j := range d.refCols {
			ref[k] = m.Values[i][j]
		}
		for k, j := range d.conCols {
			con[k] = m.Values[i][j]
		}

		refMean := stat.Mean(ref, nil)
		conMean := stat.Mean(con, nil)
		s2 := pooledVariance(ref, refMean, con, conMean, fit.DF)

		fit.Genes[i] = GeneFit{
			Gene:    gene,
			LogFC:   conMean - refMean,
			AveExpr: (refMean*float64(nRef) + conMean*float64(nCon)) / float64(nRef+nCon),
			S2:      s2,
		}
	}
	return fit, nil
}

func pooledVariance(ref []float64, refMean float64, con []float64, conMean, df float64) float64 {
	var ss float64
	for _, v := range ref {
		d := v - refMean
		ss += d * d
	}
	for _, v := range con {
		d := v - conMean
		ss += d * d
	}
	return ss / df
}

// Moderate applies the empirical-Bayes variance shrinkage, computes
// moderated t-statistics and two-sided p-values, adjusts for multiple
// testing, and returns the table ordered by ascending p-value.
func Moderate(f *Fit) ([]Result, error) {
	if len(f.Genes) == 0 {
		return nil, fmt.Errorf("no gene fits to moderate")
	}

	s2 := make([]float64, len(f.Genes))
	for i, g := range f.Genes {
		s2[i] = g.S2
	}
	d0, s0sq := fitFDist(s2, f.DF)

	dfTotal := f.DF + d0
	if dfTotal > maxDF {
		dfTotal = maxDF
	}
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfTotal}

	seScale := 1/float64(f.NRef) + 1/float64(f.NCon)
	results := make([]Result, len(f.Genes))
	for i, g := range f.Genes {
		var s2post float64
		if math.IsInf(d0, 1) {
			s2post = s0sq
		} else {
			s2post = (d0*s0sq + f.DF*g.S2) / (d0 + f.DF)
		}
		t := g.LogFC / math.Sqrt(s2post*seScale)
		p := 2 * tdist.CDF(-math.Abs(t))
		results[i] = Result{
			Gene:    g.Gene,
			LogFC:   g.LogFC,
			AveExpr: g.AveExpr,
			T:       t,
			P:       p,
		}
	}

	adjustBH(results)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].P < results[j].P
	})
	return results, nil
}

// adjustBH fills in Benjamini-Hochberg adjusted p-values.
func adjustBH(results []Result) {
	n := len(results)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].P < results[order[b]].P
	})

	min := 1.0
	for k := n - 1; k >= 0; k-- {
		i := order[k]
		adj := results[i].P * float64(n) / float64(k+1)
		if adj < min {
			min = adj
		}
		results[i].AdjP = min
	}
}
