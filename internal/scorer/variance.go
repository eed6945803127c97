package scorer

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// VarianceRow compares a company's self-reported SAT total with its
// independently verified IVC total.
type VarianceRow struct {
	CompanyID      string   `json:"company_id"`
	CompanyName    string   `json:"company_name"`
	SelfScore      float64  `json:"self_score"`
	ValidatedScore float64  `json:"validated_score"`
	Variance       float64  `json:"variance"`
	VariancePct    *float64 `json:"variance_pct"`
}

// AnalyzeVariance returns one row per active company, ordered by name then id.
// Scores of inactive or unknown companies are ignored. A company without a
// positive validated score gets a null percentage and an ErrDivideByZero
// diagnostic.
func AnalyzeVariance(companies []model.Company, scores []model.AssessmentScore) ([]VarianceRow, []Diagnostic) {
	self := make(map[string]float64)
	validated := make(map[string]float64)
	for _, s := range scores {
		switch s.Type {
		case model.ScoreSAT:
			self[s.CompanyID] += s.Value
		case model.ScoreIVC:
			validated[s.CompanyID] += s.Value
		}
	}

	active := make([]model.Company, 0, len(companies))
	for _, c := range companies {
		if c.Active {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Name != active[j].Name {
			return active[i].Name < active[j].Name
		}
		return active[i].ID < active[j].ID
	})

	var diags []Diagnostic
	rows := make([]VarianceRow, 0, len(active))
	for _, c := range active {
		row := VarianceRow{
			CompanyID:      c.ID,
			CompanyName:    c.Name,
			SelfScore:      self[c.ID],
			ValidatedScore: validated[c.ID],
		}
		row.Variance = math.Abs(row.SelfScore - row.ValidatedScore)
		row.VariancePct = percentOf(row.Variance, row.ValidatedScore)
		if row.VariancePct == nil {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrDivideByZero, "variance of %s: validated score %g", c.ID, row.ValidatedScore), c.ID, "", ""))
		}
		rows = append(rows, row)
	}
	return rows, diags
}

// percentOf returns part/whole*100, or nil when whole is not positive.
func percentOf(part, whole float64) *float64 {
	if whole <= 0 {
		return nil
	}
	v := part / whole * 100
	return &v
}
