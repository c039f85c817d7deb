package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"tcellatlas/internal/diffexpr"
)

func testResults() []diffexpr.Result {
	return []diffexpr.Result{
		{Gene: "IL2", LogFC: 4.0, AveExpr: 4.1, T: 28.3, P: 1e-5, AdjP: 3e-5},
		{Gene: "GZMB", LogFC: -2.1, AveExpr: 6.0, T: -12.0, P: 2e-4, AdjP: 4e-4},
		{Gene: "FOXP3", LogFC: -0.4, AveExpr: 4.7, T: -9.9, P: 1e-3, AdjP: 1.5e-3},
		{Gene: "ACTB", LogFC: -0.02, AveExpr: 8.0, T: -0.8, P: 0.49, AdjP: 0.49},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("GSE1", "rest", "act", testResults(), 2, 0.05, 1.0)

	if s.TotalGenes != 4 {
		t.Errorf("TotalGenes = %d, want 4", s.TotalGenes)
	}
	// FOXP3 misses the fold-change cutoff, ACTB misses both.
	if s.Significant != 2 {
		t.Errorf("Significant = %d, want 2", s.Significant)
	}
	if s.Up != 1 || s.Down != 1 {
		t.Errorf("Up/Down = %d/%d, want 1/1", s.Up, s.Down)
	}
	if len(s.Top) != 2 {
		t.Errorf("Top has %d rows, want 2", len(s.Top))
	}
}

func TestSummarize_TopNClamped(t *testing.T) {
	s := Summarize("GSE1", "rest", "act", testResults(), 100, 0.05, 1.0)
	if len(s.Top) != 4 {
		t.Errorf("Top has %d rows, want all 4", len(s.Top))
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	s := Summarize("GSE1", "rest", "act", testResults(), 4, 0.05, 1.0)
	s.WriteText(&buf)

	out := buf.String()
	for _, want := range []string{"GSE1", "act vs rest", "TOP GENES", "IL2", "ACTB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	s := Summarize("GSE1", "rest", "act", testResults(), 1, 0.05, 1.0)
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Series != "GSE1" || len(decoded.Top) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestSignificant(t *testing.T) {
	r := diffexpr.Result{LogFC: 1.5, AdjP: 0.01}
	if !Significant(r, 0.05, 1.0) {
		t.Error("should be significant")
	}
	if Significant(diffexpr.Result{LogFC: 0.5, AdjP: 0.01}, 0.05, 1.0) {
		t.Error("small fold change should not be significant")
	}
	if Significant(diffexpr.Result{LogFC: 3, AdjP: 0.2}, 0.05, 1.0) {
		t.Error("large adjusted p should not be significant")
	}
}
