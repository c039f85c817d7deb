package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"tcellatlas/internal/diffexpr"
)

var (
	colorHit  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff} // significant
	colorRest = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
)

// VolcanoPlot draws logFC against -log10 p, highlighting genes that pass
// both significance cutoffs, and saves it as a PNG.
func VolcanoPlot(results []diffexpr.Result, pCut, fcCut float64, path string) error {
	var hits, rest plotter.XYs
	for _, r := range results {
		pt := plotter.XY{X: r.LogFC, Y: negLog10(r.P)}
		if Significant(r, pCut, fcCut) {
			hits = append(hits, pt)
		} else {
			rest = append(rest, pt)
		}
	}

	p := plot.New()
	p.Title.Text = "Volcano"
	p.X.Label.Text = "log2 fold change"
	p.Y.Label.Text = "-log10 p"
	p.Add(plotter.NewGrid())

	if err := addScatter(p, rest, colorRest); err != nil {
		return err
	}
	if err := addScatter(p, hits, colorHit); err != nil {
		return err
	}

	return savePlot(p, path)
}

// MAPlot draws mean expression against logFC and saves it as a PNG.
func MAPlot(results []diffexpr.Result, pCut, fcCut float64, path string) error {
	var hits, rest plotter.XYs
	for _, r := range results {
		pt := plotter.XY{X: r.AveExpr, Y: r.LogFC}
		if Significant(r, pCut, fcCut) {
			hits = append(hits, pt)
		} else {
			rest = append(rest, pt)
		}
	}

	p := plot.New()
	p.Title.Text = "MA"
	p.X.Label.Text = "average log2 expression"
	p.Y.Label.Text = "log2 fold change"
	p.Add(plotter.NewGrid())

	if err := addScatter(p, rest, colorRest); err != nil {
		return err
	}
	if err := addScatter(p, hits, colorHit); err != nil {
		return err
	}

	return savePlot(p, path)
}

func addScatter(p *plot.Plot, xys plotter.XYs, c color.Color) error {
	if len(xys) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(sc)
	return nil
}

func savePlot(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating plot dir: %w", err)
	}
	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

// negLog10 caps -log10(p) so p values underflowing to zero still plot.
func negLog10(p float64) float64 {
	if p <= 0 {
		return 300
	}
	v := -math.Log10(p)
	if v > 300 {
		v = 300
	}
	return v
}
