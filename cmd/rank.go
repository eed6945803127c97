package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mfi-cli/internal/export"
	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/pipeline"
	"github.com/sells-group/mfi-cli/internal/scorer"
)

var (
	rankFlags       reportFlags
	rankGranularity string
	rankProductType string
	rankBrand       string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank companies or brands by MFI",
	Long: `Ranks the population selected by --granularity:
  all           companies across all industries
  product-type  brands of one product type (requires --product-type)
  brand         all brands, or one brand against its industry average with --brand`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("compute"); err != nil {
			return err
		}

		g := scorer.Granularity(rankGranularity)
		var pt model.ProductType
		switch g {
		case scorer.GranularityAll, scorer.GranularityBrand:
		case scorer.GranularityProductType:
			var ok bool
			if pt, ok = model.ParseProductType(rankProductType); !ok {
				return eris.Errorf("rank: --product-type must be one of %v (got %q)", model.ProductTypes, rankProductType)
			}
		default:
			return eris.Errorf("rank: unknown granularity %q (want all, product-type or brand)", rankGranularity)
		}

		res, err := computePass(cmd.Context(), rankFlags.cycle, false)
		if err != nil {
			return eris.Wrap(err, "rank")
		}
		return writeRanking(cmd, res, g, pt, rankBrand)
	},
}

func writeRanking(cmd *cobra.Command, res *pipeline.Result, g scorer.Granularity, pt model.ProductType, brandID string) error {
	switch g {
	case scorer.GranularityProductType:
		entries := res.Rankings.ByProductType[pt]
		return rankFlags.write(cmd, entries, export.RankingSheet(string(pt), entries))
	case scorer.GranularityBrand:
		if brandID == "" {
			return rankFlags.write(cmd, res.Rankings.Brands, export.RankingSheet("Brands", res.Rankings.Brands))
		}
		cmp, err := res.CompareBrand(brandID)
		if err != nil {
			return eris.Wrap(err, "rank")
		}
		return rankFlags.write(cmd, cmp, export.ComparisonSheet(cmp))
	default:
		return rankFlags.write(cmd, res.Rankings.All, export.RankingSheet("All Industries", res.Rankings.All))
	}
}

func init() {
	rankFlags.register(rankCmd)
	rankCmd.Flags().StringVar(&rankGranularity, "granularity", string(scorer.GranularityAll), "all, product-type or brand")
	rankCmd.Flags().StringVar(&rankProductType, "product-type", "", "product type for --granularity product-type (Flour, Sugar, Edible Oil)")
	rankCmd.Flags().StringVar(&rankBrand, "brand", "", "brand ID to compare against its industry (--granularity brand)")
	rootCmd.AddCommand(rankCmd)
}
