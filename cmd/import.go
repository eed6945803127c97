package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mfi-cli/internal/fixture"
	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/scorer"
)

var importLabResults string

var importCmd = &cobra.Command{
	Use:   "import [dataset.yaml]",
	Short: "Import a YAML dataset and lab results into the store",
	Long: `Imports cycles, companies, categories, brands, answers, assessment scores
and product tests from a YAML dataset. Lab results exported as CSV or XLSX
can be imported with --lab-results, alone or alongside a dataset.

Records are upserted in dependency order; the import stops at the first
record the store rejects (tier locked, cycle locked, invalid values).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && importLabResults == "" {
			return eris.New("import: a dataset file or --lab-results is required")
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		ds := &fixture.Dataset{}
		if len(args) == 1 {
			parsed, err := fixture.ParseFile(args[0])
			if err != nil {
				return err
			}
			ds = parsed
		}
		if importLabResults != "" {
			tests, err := readLabResults(importLabResults)
			if err != nil {
				return err
			}
			ds.ProductTests = append(ds.ProductTests, tests...)
		}

		opts, err := scorer.OptionsFromConfig(cfg.Scoring)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := fixture.Load(ctx, st, ds, scorer.NewTierWeightTable(opts.PartlyMet))
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.Int("cycles", stats.Cycles),
			zap.Int("companies", stats.Companies),
			zap.Int("categories", stats.Categories),
			zap.Int("brands", stats.Brands),
			zap.Int("answers", stats.Answers),
			zap.Int("assessment_scores", stats.AssessmentScores),
			zap.Int("product_tests", stats.ProductTests),
		)
		return nil
	},
}

func readLabResults(path string) ([]model.ProductTest, error) {
	rows, err := fixture.ReadRows(path)
	if err != nil {
		return nil, err
	}
	return fixture.ParseLabResults(rows)
}

func init() {
	importCmd.Flags().StringVar(&importLabResults, "lab-results", "", "path to a CSV or XLSX lab results sheet")
	rootCmd.AddCommand(importCmd)
}
