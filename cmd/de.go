package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcellatlas/internal/diffexpr"
	"tcellatlas/internal/expr"
	"tcellatlas/internal/report"
)

var deCmd = &cobra.Command{
	Use:   "de <accession>",
	Short: "Fit the linear model and rank genes by differential expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return stageDE(a, args[0])
	},
}

func init() {
	rootCmd.AddCommand(deCmd)
}

// stageDE fits the two-group model per gene, applies the empirical-Bayes
// moderation, stores the ranked table, and prints the top genes.
func stageDE(a *app, accession string) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	series, err := db.GetSeries(accession)
	if err != nil {
		return err
	}
	treatments := make(map[string]string, len(series.Samples))
	for _, sm := range series.Samples {
		treatments[sm.Accession] = sm.Treatment
	}

	genes, err := expr.ReadTSVFile(geneMatrixPath(a, accession))
	if err != nil {
		return fmt.Errorf("reading gene matrix (run: tcellatlas annot %s): %w", accession, err)
	}

	design, err := diffexpr.NewDesign(genes, treatments, a.cfg.Design.Reference, a.cfg.Design.Contrast)
	if err != nil {
		return fmt.Errorf("building design: %w", err)
	}

	fit, err := diffexpr.FitLinear(genes, design)
	if err != nil {
		return err
	}
	results, err := diffexpr.Moderate(fit)
	if err != nil {
		return err
	}

	if err := db.SaveResults(accession, results); err != nil {
		return fmt.Errorf("saving results: %w", err)
	}

	nRef, nCon := design.Counts()
	a.log.Info("differential expression fitted",
		zap.String("series", accession),
		zap.Int("genes", len(results)),
		zap.String("reference", design.Reference),
		zap.Int("n_reference", nRef),
		zap.String("contrast", design.Contrast),
		zap.Int("n_contrast", nCon))

	summary := report.Summarize(accession, design.Reference, design.Contrast, results,
		a.cfg.Report.TopN, a.cfg.Report.PValueCutoff, a.cfg.Report.LogFCCutoff)
	summary.WriteText(os.Stdout)
	return nil
}
