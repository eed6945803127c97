package scorer

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

// Engine computes company and brand composites from already-fetched records.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	opts  Options
	table TierWeightTable
	agg   *Aggregator
}

// NewEngine validates opts and returns an Engine over the category tree.
func NewEngine(opts Options, tree *CategoryTree) (*Engine, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, eris.New("scorer: nil category tree")
	}
	table := NewTierWeightTable(opts.PartlyMet)
	return &Engine{opts: opts, table: table, agg: NewAggregator(table, tree)}, nil
}

// Options returns the engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Table returns the tier weight table in use.
func (e *Engine) Table() TierWeightTable {
	return e.table
}

// Tree returns the category tree.
func (e *Engine) Tree() *CategoryTree {
	return e.agg.Tree()
}

// CompanyInput is everything the engine reads for one company and cycle.
type CompanyInput struct {
	Company      model.Company
	CycleID      string
	Brands       []model.Brand
	Answers      []model.Answer
	Scores       []model.AssessmentScore
	ProductTests []model.ProductTest
}

// BrandResult is the scored state of one brand.
type BrandResult struct {
	Brand         model.Brand          `json:"brand"`
	LatestTest    *model.ProductTest   `json:"latest_test,omitempty"`
	Fortification *model.Fortification `json:"fortification,omitempty"`
	PT            *float64             `json:"pt"`
	Composite     Composite            `json:"composite"`
}

// CompanyResult is the full computation for one company and cycle.
type CompanyResult struct {
	Company     model.Company `json:"company"`
	CycleID     string        `json:"cycle_id"`
	SAT         Rollup        `json:"sat"`
	SATTiers    TierTotals    `json:"sat_tiers"`
	IVC         Rollup        `json:"ivc"`
	IVCTiers    TierTotals    `json:"ivc_tiers"`
	IEG         Rollup        `json:"ieg"`
	PT          *float64      `json:"pt"`
	Brands      []BrandResult `json:"brands"`
	Composite   Composite     `json:"composite"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// ScoreCompany runs every per-company stage: SAT and IVC rollups with tier
// selection, the IEG rollup, brand PT from the latest test of each active
// brand, and the company and brand composites.
func (e *Engine) ScoreCompany(in CompanyInput) CompanyResult {
	res := CompanyResult{Company: in.Company, CycleID: in.CycleID}
	var diags []Diagnostic

	var sat, ivc []model.Answer
	for _, a := range in.Answers {
		switch {
		case a.Type == model.ScoreSAT && a.Approved:
			sat = append(sat, a)
		case a.Type == model.ScoreIVC:
			ivc = append(ivc, a)
		}
	}

	var d []Diagnostic
	res.SATTiers, res.SAT, d = e.agg.TierTotals(in.Company, sat)
	diags = append(diags, d...)
	res.IVCTiers, res.IVC, d = e.agg.TierTotals(in.Company, ivc)
	diags = append(diags, d...)
	res.IEG, d = e.agg.RollupScores(in.Company.ID, in.Scores, model.ScoreIEG)
	diags = append(diags, d...)

	satAggregate := SelectAggregate(res.SATTiers)
	if satAggregate == nil {
		diags = append(diags, newDiagnostic(eris.Wrap(ErrMissingData, "no SAT answers"), in.Company.ID, "", ""))
	}

	res.Brands, d = e.scoreBrands(in)
	diags = append(diags, d...)

	brandPT := make([]*float64, 0, len(res.Brands))
	for _, b := range res.Brands {
		brandPT = append(brandPT, b.PT)
	}
	res.PT = mean(brandPT)

	res.Composite = e.opts.Weights.Compose(Components{SAT: satAggregate, IEG: res.IEG.Total, PT: res.PT})
	for i := range res.Brands {
		res.Brands[i].Composite = e.opts.Weights.Compose(Components{
			SAT: satAggregate,
			IEG: res.IEG.Total,
			PT:  res.Brands[i].PT,
		})
	}

	res.Diagnostics = diags
	return res
}

func (e *Engine) scoreBrands(in CompanyInput) ([]BrandResult, []Diagnostic) {
	var diags []Diagnostic

	brands := make([]model.Brand, 0, len(in.Brands))
	for _, b := range in.Brands {
		if b.Active && b.CompanyID == in.Company.ID {
			brands = append(brands, b)
		}
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].ID < brands[j].ID })

	latest := LatestTests(in.ProductTests)

	out := make([]BrandResult, 0, len(brands))
	for _, b := range brands {
		br := BrandResult{Brand: b}
		test, ok := latest[b.ID]
		if !ok {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrMissingData, "brand %s has no product test", b.ID), in.Company.ID, "", b.ID))
			out = append(out, br)
			continue
		}
		if test.ProductType == "" {
			test.ProductType = b.ProductType
		}

		pt, err := BrandScore(test)
		if err != nil {
			diags = append(diags, newDiagnostic(err, in.Company.ID, "", test.ID))
			out = append(out, br)
			continue
		}
		fort, _ := Fortify(test)
		test.Fortification = &fort

		br.LatestTest = &test
		br.Fortification = &fort
		br.PT = pt
		if pt == nil {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrMissingData, "test %s lacks required micronutrients", test.ID), in.Company.ID, "", test.ID))
		}
		out = append(out, br)
	}
	return out, diags
}

// IndustryComposite aggregates company results into an industry composite.
// With productType empty it spans all industries: SAT and IEG are company
// means and PT is IndustryPT over every brand. With a product type only
// companies selling it count and PT is the mean PT of its brands.
func (e *Engine) IndustryComposite(results []CompanyResult, productType model.ProductType) Composite {
	var sat, ieg []*float64
	byType := make(map[model.ProductType][]*float64)
	for _, r := range results {
		selling := false
		for _, b := range r.Brands {
			if productType != "" && b.Brand.ProductType != productType {
				continue
			}
			selling = true
			byType[b.Brand.ProductType] = append(byType[b.Brand.ProductType], b.PT)
		}
		if productType != "" && !selling {
			continue
		}
		sat = append(sat, r.Composite.SAT)
		ieg = append(ieg, r.Composite.IEG)
	}

	pt := IndustryPT(byType)
	if productType != "" {
		pt = mean(byType[productType])
	}
	return e.opts.Weights.Compose(Components{SAT: mean(sat), IEG: mean(ieg), PT: pt})
}
