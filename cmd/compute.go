package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mfi-cli/internal/export"
	"github.com/sells-group/mfi-cli/internal/pipeline"
)

var (
	computeFlags     reportFlags
	computeNoPersist bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Run a computation pass and persist scores and rankings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("compute"); err != nil {
			return err
		}

		res, err := computePass(cmd.Context(), computeFlags.cycle, !computeNoPersist)
		if err != nil {
			return eris.Wrap(err, "compute")
		}

		zap.L().Info("compute complete",
			zap.String("cycle_id", res.Cycle.ID),
			zap.Int("companies", len(res.Companies)),
			zap.Int("failures", len(res.Failures)),
			zap.Bool("persisted", res.Persisted),
		)

		sheets := []export.Sheet{export.CompanySheet(res.Companies)}
		if len(res.Failures) > 0 {
			sheets = append(sheets, failureSheet(res.Failures))
		}
		return computeFlags.write(cmd, res, sheets...)
	},
}

func failureSheet(failures []pipeline.Failure) export.Sheet {
	s := export.Sheet{Name: "Failures", Headers: []string{"Company ID", "Stage", "Error"}}
	for _, f := range failures {
		s.Rows = append(s.Rows, []any{f.CompanyID, f.Stage, f.Error})
	}
	return s
}

func init() {
	computeFlags.register(computeCmd)
	computeCmd.Flags().BoolVar(&computeNoPersist, "no-persist", false, "compute and print without writing results")
	rootCmd.AddCommand(computeCmd)
}
