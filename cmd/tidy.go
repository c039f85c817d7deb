package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcellatlas/internal/pheno"
)

var tidyCmd = &cobra.Command{
	Use:   "tidy <accession>",
	Short: "Tidy sample metadata and persist it to the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return stageTidy(cmd.Context(), a, args[0])
	},
}

func init() {
	rootCmd.AddCommand(tidyCmd)
}

// stageTidy extracts the descriptive sample fields from the series
// matrix, parses each title through the fixed grammar, and replaces the
// stored metadata for the series.
func stageTidy(ctx context.Context, a *app, accession string) error {
	matrixPath, _, err := a.geo.FetchSeriesMatrix(ctx, accession)
	if err != nil {
		return fmt.Errorf("fetching series matrix: %w", err)
	}

	series, err := pheno.Tidy(matrixPath, accession)
	if err != nil {
		return err
	}

	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveSeries(series); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}

	a.log.Info("metadata tidied",
		zap.String("series", accession),
		zap.Int("samples", len(series.Samples)))
	printSampleTable(series)
	return nil
}

func printSampleTable(s *pheno.Series) {
	fmt.Printf("\n  %s: %d samples\n\n", s.Accession, len(s.Samples))
	fmt.Println("  SAMPLES")
	fmt.Println("  ────────────────────────────────────────────────────────────")
	fmt.Printf("  %-12s %-10s %-10s %-6s %-4s %s\n",
		"accession", "condition", "treatment", "time", "rep", "chip")
	for _, sm := range s.Samples {
		fmt.Printf("  %-12s %-10s %-10s %-6s %-4d %s\n",
			sm.Accession, sm.Condition, sm.Treatment, sm.Time, sm.Replicate, sm.Chip)
	}
	fmt.Println()
}
