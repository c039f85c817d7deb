// Package report renders the differential-expression output for the
// human reader: a top table on stdout plus volcano and MA plots.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"tcellatlas/internal/diffexpr"
)

// Summary is the reported view of a ranked result table.
type Summary struct {
	Series      string            `json:"series"`
	Reference   string            `json:"reference"`
	Contrast    string            `json:"contrast"`
	TotalGenes  int               `json:"total_genes"`
	Significant int               `json:"significant_genes"`
	Up          int               `json:"up_regulated"`
	Down        int               `json:"down_regulated"`
	Top         []diffexpr.Result `json:"top"`
}

// Summarize builds the report view. Significance means adjusted p below
// pCut with an absolute log fold change of at least fcCut.
func Summarize(series, reference, contrast string, results []diffexpr.Result, topN int, pCut, fcCut float64) *Summary {
	s := &Summary{
		Series:     series,
		Reference:  reference,
		Contrast:   contrast,
		TotalGenes: len(results),
	}
	for _, r := range results {
		if !Significant(r, pCut, fcCut) {
			continue
		}
		s.Significant++
		if r.LogFC > 0 {
			s.Up++
		} else {
			s.Down++
		}
	}
	if topN > len(results) {
		topN = len(results)
	}
	s.Top = results[:topN]
	return s
}

// Significant reports whether one result row passes both cutoffs.
func Significant(r diffexpr.Result, pCut, fcCut float64) bool {
	return r.AdjP < pCut && math.Abs(r.LogFC) >= fcCut
}

// WriteText renders the summary in the human-readable section style.
func (s *Summary) WriteText(w io.Writer) {
	fmt.Fprintf(w, "\n  %s: %s vs %s\n", s.Series, s.Contrast, s.Reference)
	fmt.Fprintf(w, "  Genes tested: %d  Significant: %d (%d up, %d down)\n\n",
		s.TotalGenes, s.Significant, s.Up, s.Down)

	fmt.Fprintln(w, "  TOP GENES")
	fmt.Fprintln(w, "  ────────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "  %-12s %8s %8s %8s %10s %10s\n",
		"gene", "logFC", "AveExpr", "t", "p", "adj.p")
	for _, r := range s.Top {
		fmt.Fprintf(w, "  %-12s %8.3f %8.3f %8.2f %10.2e %10.2e\n",
			truncGene(r.Gene, 12), r.LogFC, r.AveExpr, r.T, r.P, r.AdjP)
	}
	fmt.Fprintln(w)
}

// WriteJSON renders the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func truncGene(g string, max int) string {
	if len(g) <= max {
		return g
	}
	return strings.TrimSpace(g[:max-3]) + "..."
}
