package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run <accession>",
	Short: "Run the full pipeline: fetch, tidy, norm, annot, de, report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		accession := args[0]
		ctx := cmd.Context()

		stages := []struct {
			name string
			fn   func() error
		}{
			{"fetch", func() error { return stageFetch(ctx, a, accession) }},
			{"tidy", func() error { return stageTidy(ctx, a, accession) }},
			{"norm", func() error { return stageNorm(a, accession) }},
			{"annot", func() error { return stageAnnot(ctx, a, accession) }},
			{"de", func() error { return stageDE(a, accession) }},
			{"report", func() error { return stageReport(a, accession) }},
		}

		for _, s := range stages {
			a.log.Info("stage starting", zap.String("stage", s.name), zap.String("series", accession))
			if err := s.fn(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
