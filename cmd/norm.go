package cmd

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcellatlas/internal/expr"
	"tcellatlas/internal/rma"
)

var normCmd = &cobra.Command{
	Use:   "norm <accession>",
	Short: "Load raw signals and normalize them into a log2 intensity matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return stageNorm(a, args[0])
	},
}

func init() {
	rootCmd.AddCommand(normCmd)
}

// stageNorm fans the cached per-sample raw files into one matrix and
// writes the normalized table next to the series matrix.
func stageNorm(a *app, accession string) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	series, err := db.GetSeries(accession)
	if err != nil {
		return err
	}

	files := make([]expr.SignalFile, len(series.Samples))
	for i, sm := range series.Samples {
		files[i] = expr.SignalFile{
			Sample: sm.Accession,
			Path:   filepath.Join(a.geo.RawDir(accession), path.Base(sm.Supplementary)),
		}
	}

	raw, err := expr.LoadSignals(files)
	if err != nil {
		return fmt.Errorf("loading raw signals: %w", err)
	}
	nProbes, nSamples := raw.Dims()
	a.log.Info("raw matrix loaded",
		zap.String("series", accession),
		zap.Int("probes", nProbes),
		zap.Int("samples", nSamples))

	norm, err := rma.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalizing: %w", err)
	}

	out := normalizedPath(a, accession)
	if err := norm.WriteTSVFile(out); err != nil {
		return err
	}
	a.log.Info("normalized matrix written", zap.String("path", out))
	return nil
}
