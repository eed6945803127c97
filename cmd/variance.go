package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mfi-cli/internal/export"
)

var varianceFlags reportFlags

var varianceCmd = &cobra.Command{
	Use:   "variance",
	Short: "Compare self-assessed SAT scores with validated IVC scores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("compute"); err != nil {
			return err
		}

		res, err := computePass(cmd.Context(), varianceFlags.cycle, false)
		if err != nil {
			return eris.Wrap(err, "variance")
		}
		return varianceFlags.write(cmd, res.Variance, export.VarianceSheet(res.Variance))
	},
}

func init() {
	varianceFlags.register(varianceCmd)
	rootCmd.AddCommand(varianceCmd)
}
