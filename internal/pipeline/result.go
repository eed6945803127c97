package pipeline

import (
	"errors"
	"sort"
	"time"

	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/scorer"
)

// Result is the outcome of one computation pass.
type Result struct {
	Cycle             model.Cycle                            `json:"cycle"`
	ComputedAt        time.Time                              `json:"computed_at"`
	Companies         []scorer.CompanyResult                 `json:"companies"`
	Rankings          Rankings                               `json:"rankings"`
	Industry          scorer.Composite                       `json:"industry"`
	IndustryByProduct map[model.ProductType]scorer.Composite `json:"industry_by_product"`
	Variance          []scorer.VarianceRow                   `json:"variance"`
	Pillars           scorer.PillarReport                    `json:"pillars"`
	Diagnostics       []scorer.Diagnostic                    `json:"diagnostics,omitempty"`
	Failures          []Failure                              `json:"failures,omitempty"`
	Persisted         bool                                   `json:"persisted"`

	engine *scorer.Engine
}

// Rankings are the three ranking populations of a pass.
type Rankings struct {
	All           []scorer.RankEntry                       `json:"all"`
	ByProductType map[model.ProductType][]scorer.RankEntry `json:"by_product_type"`
	Brands        []scorer.RankEntry                       `json:"brands"`
}

// assemble scores every input and derives the cross-company reports.
func assemble(engine *scorer.Engine, cycle model.Cycle, inputs []scorer.CompanyInput, now time.Time) *Result {
	res := &Result{
		Cycle:             cycle,
		ComputedAt:        now,
		IndustryByProduct: make(map[model.ProductType]scorer.Composite),
		engine:            engine,
	}

	companies := make([]model.Company, 0, len(inputs))
	var scores []model.AssessmentScore
	pillarInputs := make([]scorer.PillarInput, 0, len(inputs))

	for _, in := range inputs {
		cr := engine.ScoreCompany(in)
		res.Companies = append(res.Companies, cr)
		res.Diagnostics = append(res.Diagnostics, cr.Diagnostics...)

		companies = append(companies, in.Company)
		scores = append(scores, in.Scores...)
		pillarInputs = append(pillarInputs, scorer.PillarInput{Company: in.Company, Scores: in.Scores})
	}

	res.Rankings = Rankings{
		All:           scorer.RankIndustries(res.Companies),
		ByProductType: make(map[model.ProductType][]scorer.RankEntry),
		Brands:        scorer.Rank(scorer.BrandEntries(res.Companies, "")),
	}
	res.Industry = engine.IndustryComposite(res.Companies, "")
	for _, pt := range model.ProductTypes {
		ranked, err := scorer.RankProductType(res.Companies, pt)
		if err != nil || len(ranked) == 0 {
			continue
		}
		res.Rankings.ByProductType[pt] = ranked
		res.IndustryByProduct[pt] = engine.IndustryComposite(res.Companies, pt)
	}

	var varianceDiags []scorer.Diagnostic
	res.Variance, varianceDiags = scorer.AnalyzeVariance(companies, scores)
	res.Diagnostics = append(res.Diagnostics, varianceDiags...)
	res.Pillars = scorer.BuildPillarReport(engine.Tree(), pillarInputs)
	res.Diagnostics = append(res.Diagnostics, res.Pillars.Diagnostics...)
	return res
}

// Company returns the result for one company.
func (res *Result) Company(id string) (scorer.CompanyResult, bool) {
	for _, c := range res.Companies {
		if c.Company.ID == id {
			return c, true
		}
	}
	return scorer.CompanyResult{}, false
}

// CompareBrand ranks a brand within its industry for this pass.
func (res *Result) CompareBrand(brandID string) (scorer.BrandComparison, error) {
	return res.engine.CompareBrand(res.Companies, brandID)
}

// ComputedScores returns the SAT, IVC and IEG aggregates to persist, one of
// each per company. Missing aggregates are stored as null.
func (res *Result) ComputedScores() []model.ComputedAssessmentScore {
	out := make([]model.ComputedAssessmentScore, 0, 3*len(res.Companies))
	for _, c := range res.Companies {
		add := func(t model.ScoreType, v *float64) {
			out = append(out, model.ComputedAssessmentScore{
				CompanyID:  c.Company.ID,
				CycleID:    res.Cycle.ID,
				ScoreType:  t,
				Value:      v,
				ComputedAt: res.ComputedAt,
			})
		}
		add(model.ScoreSAT, scorer.SelectAggregate(c.SATTiers))
		add(model.ScoreIVC, scorer.SelectAggregate(c.IVCTiers))
		add(model.ScoreIEG, c.IEG.Total)
	}
	return out
}

// Snapshot is one persisted ranking population.
type Snapshot struct {
	Granularity scorer.Granularity
	ProductType model.ProductType
	Entries     []model.RankingEntry
}

// Snapshots returns every ranking population in a stable order: all
// companies, each product type, then all brands.
func (res *Result) Snapshots() []Snapshot {
	snaps := []Snapshot{{Granularity: scorer.GranularityAll, Entries: res.rankingEntries(scorer.GranularityAll, "", res.Rankings.All)}}
	for _, pt := range model.ProductTypes {
		ranked, ok := res.Rankings.ByProductType[pt]
		if !ok {
			continue
		}
		snaps = append(snaps, Snapshot{
			Granularity: scorer.GranularityProductType,
			ProductType: pt,
			Entries:     res.rankingEntries(scorer.GranularityProductType, pt, ranked),
		})
	}
	return append(snaps, Snapshot{
		Granularity: scorer.GranularityBrand,
		Entries:     res.rankingEntries(scorer.GranularityBrand, "", res.Rankings.Brands),
	})
}

func (res *Result) rankingEntries(g scorer.Granularity, pt model.ProductType, ranked []scorer.RankEntry) []model.RankingEntry {
	out := make([]model.RankingEntry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, model.RankingEntry{
			CycleID:     res.Cycle.ID,
			Granularity: string(g),
			ProductType: pt,
			EntityID:    e.EntityID,
			EntityName:  e.EntityName,
			Kind:        string(e.Kind),
			CompanyID:   e.CompanyID,
			Rank:        e.Rank,
			MFI:         e.MFI,
			ComputedAt:  res.ComputedAt,
		})
	}
	return out
}

func sortFailures(f []Failure) {
	sort.Slice(f, func(i, j int) bool { return f[i].CompanyID < f[j].CompanyID })
}

var diagnosticKinds = []struct {
	err  error
	kind string
}{
	{scorer.ErrMissingData, "missing_data"},
	{scorer.ErrInconsistentTier, "inconsistent_tier"},
	{scorer.ErrUnclassifiedPillar, "unclassified_pillar"},
	{scorer.ErrDivideByZero, "divide_by_zero"},
	{scorer.ErrUnknownCategory, "unknown_category"},
	{scorer.ErrInvalidInput, "invalid_input"},
}

func diagnosticKind(d scorer.Diagnostic) string {
	for _, k := range diagnosticKinds {
		if errors.Is(d.Err, k.err) {
			return k.kind
		}
	}
	return "other"
}
