package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcellatlas/internal/report"
)

var (
	reportJSON    bool
	reportTopN    int
	reportNoPlots bool
)

var reportCmd = &cobra.Command{
	Use:   "report <accession>",
	Short: "Render the top table and volcano/MA plots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return stageReport(a, args[0])
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Output summary as JSON")
	reportCmd.Flags().IntVar(&reportTopN, "top-n", 0, "Rows in the top table (default from config)")
	reportCmd.Flags().BoolVar(&reportNoPlots, "no-plots", false, "Skip plot rendering")
	rootCmd.AddCommand(reportCmd)
}

// stageReport renders the ranked table for the human reader and writes
// the volcano and MA plots.
func stageReport(a *app, accession string) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.GetResults(accession, 0)
	if err != nil {
		return err
	}

	topN := a.cfg.Report.TopN
	if reportTopN > 0 {
		topN = reportTopN
	}
	pCut := a.cfg.Report.PValueCutoff
	fcCut := a.cfg.Report.LogFCCutoff

	reference, contrast := a.cfg.Design.Reference, a.cfg.Design.Contrast

	summary := report.Summarize(accession, reference, contrast, results, topN, pCut, fcCut)
	if reportJSON {
		if err := summary.WriteJSON(os.Stdout); err != nil {
			return err
		}
	} else {
		summary.WriteText(os.Stdout)
	}

	if reportNoPlots {
		return nil
	}

	volcano := filepath.Join(a.cfg.Report.PlotDir, accession+"_volcano.png")
	if err := report.VolcanoPlot(results, pCut, fcCut, volcano); err != nil {
		return fmt.Errorf("volcano plot: %w", err)
	}
	ma := filepath.Join(a.cfg.Report.PlotDir, accession+"_ma.png")
	if err := report.MAPlot(results, pCut, fcCut, ma); err != nil {
		return fmt.Errorf("MA plot: %w", err)
	}

	a.log.Info("plots written",
		zap.String("volcano", volcano),
		zap.String("ma", ma))
	return nil
}
