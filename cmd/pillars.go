package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mfi-cli/internal/export"
)

var pillarsFlags reportFlags

var pillarsCmd = &cobra.Command{
	Use:   "pillars",
	Short: "Build the 4PG pillar report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("compute"); err != nil {
			return err
		}

		res, err := computePass(cmd.Context(), pillarsFlags.cycle, false)
		if err != nil {
			return eris.Wrap(err, "pillars")
		}
		return pillarsFlags.write(cmd, res.Pillars.Rows, export.PillarSheet(res.Pillars))
	},
}

func init() {
	pillarsFlags.register(pillarsCmd)
	rootCmd.AddCommand(pillarsCmd)
}
