package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tcellatlas/internal/annot"
	"tcellatlas/internal/expr"
)

var annotCmd = &cobra.Command{
	Use:   "annot <accession>",
	Short: "Map probes to gene symbols and collapse duplicates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return stageAnnot(cmd.Context(), a, args[0])
	},
}

func init() {
	rootCmd.AddCommand(annotCmd)
}

// stageAnnot resolves probes to single gene symbols, drops unmapped
// probes, and collapses multiple probes per gene by per-sample maximum.
func stageAnnot(ctx context.Context, a *app, accession string) error {
	annotPath, _, err := a.geo.FetchAnnotation(ctx)
	if err != nil {
		return fmt.Errorf("fetching annotation: %w", err)
	}
	table, err := annot.Load(annotPath)
	if err != nil {
		return err
	}

	norm, err := expr.ReadTSVFile(normalizedPath(a, accession))
	if err != nil {
		return fmt.Errorf("reading normalized matrix (run: tcellatlas norm %s): %w", accession, err)
	}

	mapped := annot.FilterUnmapped(norm, table)
	genes := annot.CollapseMaxByGene(mapped, table)

	nProbes, _ := norm.Dims()
	nMapped, _ := mapped.Dims()
	nGenes, _ := genes.Dims()
	a.log.Info("probes collapsed to genes",
		zap.String("series", accession),
		zap.Int("probes", nProbes),
		zap.Int("mapped", nMapped),
		zap.Int("genes", nGenes))

	out := geneMatrixPath(a, accession)
	if err := genes.WriteTSVFile(out); err != nil {
		return err
	}
	a.log.Info("gene matrix written", zap.String("path", out))
	return nil
}
