package scorer

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/mfi-cli/internal/model"
)

// Pillar is one of the five governance pillars of the 4PG framework.
type Pillar string

const (
	PillarPersonnel        Pillar = "Personnel"
	PillarProduction       Pillar = "Production"
	PillarProcurement      Pillar = "Procurement & Suppliers"
	PillarPublicEngagement Pillar = "Public Engagement"
	PillarGovernance       Pillar = "Governance"
)

// Pillars lists the pillars in report column order.
var Pillars = [5]Pillar{
	PillarPersonnel,
	PillarProduction,
	PillarProcurement,
	PillarPublicEngagement,
	PillarGovernance,
}

// pillarRules are tried in order; the first keyword hit wins.
var pillarRules = []struct {
	pillar   Pillar
	keywords []string
}{
	{PillarPersonnel, []string{"personnel"}},
	{PillarProduction, []string{"production"}},
	{PillarProcurement, []string{"procurement", "supplier"}},
	{PillarPublicEngagement, []string{"public engagement"}},
	{PillarGovernance, []string{"governance"}},
}

// ClassifyPillar matches texts against the pillar keywords, case-insensitively.
// Texts are tried in order, so a category's own name beats its parent's.
func ClassifyPillar(texts ...string) (Pillar, bool) {
	fold := cases.Fold()
	for _, text := range texts {
		if text == "" {
			continue
		}
		t := fold.String(text)
		for _, rule := range pillarRules {
			for _, kw := range rule.keywords {
				if strings.Contains(t, fold.String(kw)) {
					return rule.pillar, true
				}
			}
		}
	}
	return "", false
}

func pillarIndex(p Pillar) int {
	for i, q := range Pillars {
		if q == p {
			return i
		}
	}
	return -1
}

// PillarHeaders returns the 4PG column headers in export order.
func PillarHeaders() []string {
	h := []string{"Company Name", "Tier", "Validated Scores"}
	for _, p := range Pillars {
		h = append(h, "IVC "+string(p))
	}
	h = append(h, "IEG Scores")
	for _, p := range Pillars {
		h = append(h, "IEG "+string(p))
	}
	for _, p := range Pillars {
		h = append(h, string(p)+" Average")
	}
	return append(h, "Average 4PG", "IVC Overall", "IEG Overall")
}

// PillarRow is one company's 4PG cross-tabulation.
type PillarRow struct {
	CompanyID       string
	CompanyName     string
	Tier            model.CompanyTier
	ValidatedScores *float64
	IVC             [5]*float64
	IEGScores       *float64
	IEG             [5]*float64
	Averages        [5]*float64
	Average4PG      *float64

	// IVCOverall and IEGOverall sum every record of the stream, including
	// those no pillar matched.
	IVCOverall *float64
	IEGOverall *float64
}

// Values returns the row cells in PillarHeaders order. Cells are a string or a
// *float64 (nil when the pillar has no data).
func (r PillarRow) Values() []any {
	v := []any{r.CompanyName, string(r.Tier), r.ValidatedScores}
	for _, x := range r.IVC {
		v = append(v, x)
	}
	v = append(v, r.IEGScores)
	for _, x := range r.IEG {
		v = append(v, x)
	}
	for _, x := range r.Averages {
		v = append(v, x)
	}
	return append(v, r.Average4PG, r.IVCOverall, r.IEGOverall)
}

// MarshalJSON encodes the row as an object whose keys follow PillarHeaders.
func (r PillarRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	values := r.Values()
	for i, h := range PillarHeaders() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(values[i])
		if err != nil {
			return nil, eris.Wrapf(err, "scorer: marshal 4PG column %s", h)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PillarInput is one company's IVC and IEG assessment scores for a cycle.
type PillarInput struct {
	Company model.Company
	Scores  []model.AssessmentScore
}

// PillarReport is the 4PG report with the diagnostics raised building it.
type PillarReport struct {
	Rows        []PillarRow  `json:"rows"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// BuildPillarReport classifies each IVC and IEG score into a pillar, averages
// per pillar and stream, and returns one row per active company sorted by
// Average 4PG descending.
func BuildPillarReport(tree *CategoryTree, inputs []PillarInput) PillarReport {
	var report PillarReport

	for _, in := range inputs {
		if !in.Company.Active {
			continue
		}
		row, diags := buildPillarRow(tree, in)
		report.Rows = append(report.Rows, row)
		report.Diagnostics = append(report.Diagnostics, diags...)
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if (a.Average4PG == nil) != (b.Average4PG == nil) {
			return a.Average4PG != nil
		}
		if a.Average4PG != nil && *a.Average4PG != *b.Average4PG {
			return *a.Average4PG > *b.Average4PG
		}
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		return a.CompanyID < b.CompanyID
	})
	return report
}

func buildPillarRow(tree *CategoryTree, in PillarInput) (PillarRow, []Diagnostic) {
	var diags []Diagnostic
	row := PillarRow{CompanyID: in.Company.ID, CompanyName: in.Company.Name, Tier: in.Company.Tier}

	scores := make([]model.AssessmentScore, len(in.Scores))
	copy(scores, in.Scores)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].ID < scores[j].ID })

	var ivc, ieg [5][]*float64
	for _, s := range scores {
		if s.Type != model.ScoreIVC && s.Type != model.ScoreIEG {
			continue
		}
		if s.Type == model.ScoreIVC {
			row.IVCOverall = addTo(row.IVCOverall, s.Value)
		} else {
			row.IEGOverall = addTo(row.IEGOverall, s.Value)
		}

		var texts []string
		if c, ok := tree.Category(s.CategoryID); ok {
			texts = append(texts, c.Name)
			if root, ok := tree.Root(c.ID); ok && root.ID != c.ID {
				texts = append(texts, root.Name)
			}
		}
		pillar, ok := ClassifyPillar(texts...)
		if !ok {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrUnclassifiedPillar, "%s score %s category %q", s.Type, s.ID, s.CategoryID),
				in.Company.ID, s.CategoryID, s.ID))
			continue
		}

		v := s.Value
		idx := pillarIndex(pillar)
		if s.Type == model.ScoreIVC {
			ivc[idx] = append(ivc[idx], &v)
		} else {
			ieg[idx] = append(ieg[idx], &v)
		}
	}

	for i := range Pillars {
		row.IVC[i] = mean(ivc[i])
		row.IEG[i] = mean(ieg[i])
		row.Averages[i] = mean([]*float64{row.IVC[i], row.IEG[i]})
	}
	row.ValidatedScores = sum(row.IVC[:])
	row.IEGScores = sum(row.IEG[:])
	row.Average4PG = sum(row.Averages[:])

	return row, diags
}

// sum adds the present values, or returns nil when none are present.
func sum(values []*float64) *float64 {
	var total float64
	present := false
	for _, v := range values {
		if v != nil {
			total += *v
			present = true
		}
	}
	if !present {
		return nil
	}
	return &total
}

func addTo(sum *float64, v float64) *float64 {
	if sum != nil {
		v += *sum
	}
	return &v
}
