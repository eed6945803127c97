// Package export renders scoring reports as terminal tables, CSV, JSON and
// XLSX workbooks. Every report is first flattened into a Sheet so all formats
// share one column order.
package export

import (
	"fmt"
	"strconv"

	"github.com/sells-group/mfi-cli/internal/scorer"
)

// Sheet is a named table of cells. A cell is a string, an int, a float64 or a
// *float64 (nil renders as an empty cell).
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// RankingSheet flattens ranked entries.
func RankingSheet(name string, entries []scorer.RankEntry) Sheet {
	s := Sheet{
		Name:    name,
		Headers: []string{"Rank", "Name", "Kind", "Company", "Tier", "Product Type", "SAT", "IEG", "PT", "MFI", "Complete"},
	}
	for _, e := range entries {
		s.Rows = append(s.Rows, []any{
			e.Rank, e.EntityName, string(e.Kind), e.CompanyName, string(e.CompanyTier), string(e.ProductType),
			e.Composite.SAT, e.Composite.IEG, e.Composite.PT, e.MFI, strconv.FormatBool(e.Composite.Complete),
		})
	}
	return s
}

// ComparisonSheet sets one brand against the average MFI of its industry.
func ComparisonSheet(cmp scorer.BrandComparison) Sheet {
	return Sheet{
		Name:    "Brand Comparison",
		Headers: []string{"Brand", "Company", "Product Type", "Rank", "Population", "MFI", "Industry Average MFI", "Delta"},
		Rows: [][]any{{
			cmp.Brand.EntityName, cmp.Brand.CompanyName, string(cmp.Brand.ProductType),
			cmp.Brand.Rank, cmp.Population, cmp.Brand.MFI, cmp.IndustryAverageMFI, cmp.Delta,
		}},
	}
}

// VarianceSheet flattens SAT vs IVC variance rows.
func VarianceSheet(rows []scorer.VarianceRow) Sheet {
	s := Sheet{
		Name:    "Variance",
		Headers: []string{"Company", "Self Assessment", "Validated", "Variance", "Variance %"},
	}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.CompanyName, r.SelfScore, r.ValidatedScore, r.Variance, r.VariancePct})
	}
	return s
}

// PillarSheet flattens the 4PG report in PillarHeaders order.
func PillarSheet(report scorer.PillarReport) Sheet {
	s := Sheet{Name: "4PG", Headers: scorer.PillarHeaders()}
	for _, r := range report.Rows {
		s.Rows = append(s.Rows, r.Values())
	}
	return s
}

// CompanySheet flattens per-company stream totals and composites.
func CompanySheet(results []scorer.CompanyResult) Sheet {
	s := Sheet{
		Name:    "Companies",
		Headers: []string{"Company", "Tier", "SAT Tier 1", "SAT Tier 3", "IVC", "IEG", "PT", "MFI", "Complete"},
	}
	for _, r := range results {
		s.Rows = append(s.Rows, []any{
			r.Company.Name, string(r.Company.Tier), r.SATTiers.Tier1, r.SATTiers.Tier3,
			scorer.SelectAggregate(r.IVCTiers), r.IEG.Total, r.PT, r.Composite.MFI,
			strconv.FormatBool(r.Composite.Complete),
		})
	}
	return s
}

// FormatCell renders a cell as text. Floats use two decimals; a nil *float64
// renders as empty.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', 2, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Strings returns the sheet rows rendered by FormatCell.
func (s Sheet) Strings() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatCell(v)
		}
		out[i] = cells
	}
	return out
}
