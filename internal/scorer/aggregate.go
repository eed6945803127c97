package scorer

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mfi-cli/internal/model"
)

// CategoryScore is the score of one child category.
type CategoryScore struct {
	CategoryID string  `json:"category_id"`
	Score      float64 `json:"score"`
}

// RootScore is the weighted aggregate of one root category. Score is nil when
// none of the root's children had data.
type RootScore struct {
	CategoryID string   `json:"category_id"`
	Name       string   `json:"name"`
	Score      *float64 `json:"score"`
	Children   int      `json:"children"`
}

// Rollup is a company's category breakdown for one stream. Total is nil
// unless every root category has data; Roots still carry the partial scores.
type Rollup struct {
	FullVersion bool            `json:"full_version"`
	Categories  []CategoryScore `json:"categories"`
	Roots       []RootScore     `json:"roots"`
	Total       *float64        `json:"total"`
}

// TierTotals holds the reduced (Tier-1 only) and full-questionnaire totals of
// a company. Either may be nil.
type TierTotals struct {
	Tier1 *float64 `json:"tier1"`
	Tier3 *float64 `json:"tier3"`
}

// AggregateCategories groups child scores by root and applies
// score = mean(children) * weight/100 per root.
func AggregateCategories(tree *CategoryTree, companyID string, scores []CategoryScore) ([]RootScore, []Diagnostic) {
	var diags []Diagnostic
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, s := range scores {
		root, ok := tree.Root(s.CategoryID)
		if !ok {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrUnknownCategory, "category %s", s.CategoryID), companyID, s.CategoryID, ""))
			continue
		}
		sums[root.ID] += s.Score
		counts[root.ID]++
	}

	roots := make([]RootScore, 0, len(tree.Roots()))
	for _, r := range tree.Roots() {
		rs := RootScore{CategoryID: r.ID, Name: r.Name, Children: counts[r.ID]}
		if n := counts[r.ID]; n > 0 {
			v := (sums[r.ID] / float64(n)) * (r.Weight / 100)
			rs.Score = &v
		} else {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrMissingData, "root category %s has no scored children", r.ID), companyID, r.ID, ""))
		}
		roots = append(roots, rs)
	}
	return roots, diags
}

// Total sums the root scores. It is nil when any root is missing, so a
// partial rollup never reads as a complete one.
func Total(roots []RootScore) *float64 {
	if len(roots) == 0 {
		return nil
	}
	var sum float64
	for _, r := range roots {
		if r.Score == nil {
			return nil
		}
		sum += *r.Score
	}
	return &sum
}

// Aggregator rolls answers and assessment scores up through the category tree.
type Aggregator struct {
	table TierWeightTable
	tree  *CategoryTree
}

// NewAggregator returns an Aggregator over tree using table for answer points.
func NewAggregator(table TierWeightTable, tree *CategoryTree) *Aggregator {
	return &Aggregator{table: table, tree: tree}
}

// Tree returns the category tree.
func (a *Aggregator) Tree() *CategoryTree {
	return a.tree
}

// usableAnswers drops answers that cannot be aggregated and keeps only the
// latest answer per (category, tier). The result is sorted by category and tier.
func (a *Aggregator) usableAnswers(company model.Company, answers []model.Answer) ([]model.Answer, []Diagnostic) {
	var diags []Diagnostic

	type key struct {
		category string
		tier     model.Tier
	}
	latest := make(map[key]model.Answer)

	for _, ans := range answers {
		switch {
		case !a.tree.IsLeaf(ans.CategoryID):
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrUnknownCategory, "answer %s references %q", ans.ID, ans.CategoryID),
				company.ID, ans.CategoryID, ans.ID))
			continue
		case !ans.Tier.Valid() || !ans.Response.Valid():
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrInvalidInput, "answer %s tier %q response %q", ans.ID, ans.Tier, ans.Response),
				company.ID, ans.CategoryID, ans.ID))
			continue
		case !company.Tier.Allows(ans.Tier):
			zap.L().Warn("scorer: excluding answer outside company tier",
				zap.String("company_id", company.ID),
				zap.String("company_tier", string(company.Tier)),
				zap.String("answer_id", ans.ID),
				zap.String("answer_tier", string(ans.Tier)),
			)
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrInconsistentTier, "answer %s tier %s for %s company", ans.ID, ans.Tier, company.Tier),
				company.ID, ans.CategoryID, ans.ID))
			continue
		}

		k := key{ans.CategoryID, ans.Tier}
		if prev, ok := latest[k]; ok && !isLater(ans, prev) {
			continue
		}
		latest[k] = ans
	}

	out := make([]model.Answer, 0, len(latest))
	for _, ans := range latest {
		out = append(out, ans)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Tier < out[j].Tier
	})
	return out, diags
}

func isLater(a, b model.Answer) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

func (a *Aggregator) rollupAnswers(companyID string, answers []model.Answer, fullVersion bool) (Rollup, []Diagnostic) {
	var diags []Diagnostic
	sums := make(map[string]float64)
	var order []string

	for _, ans := range answers {
		pts, err := a.table.PercentagePoints(ans.Tier, ans.Response, fullVersion)
		if err != nil {
			diags = append(diags, newDiagnostic(err, companyID, ans.CategoryID, ans.ID))
			continue
		}
		if _, seen := sums[ans.CategoryID]; !seen {
			order = append(order, ans.CategoryID)
		}
		sums[ans.CategoryID] += pts
	}

	cats := make([]CategoryScore, 0, len(order))
	for _, id := range order {
		cats = append(cats, CategoryScore{CategoryID: id, Score: sums[id]})
	}

	roots, rootDiags := AggregateCategories(a.tree, companyID, cats)
	diags = append(diags, rootDiags...)

	return Rollup{
		FullVersion: fullVersion,
		Categories:  cats,
		Roots:       roots,
		Total:       Total(roots),
	}, diags
}

// RollupAnswers scores a company's SAT or IVC answers. The full-version flag is
// set when any usable answer lies outside TIER_1.
func (a *Aggregator) RollupAnswers(company model.Company, answers []model.Answer) (Rollup, []Diagnostic) {
	usable, diags := a.usableAnswers(company, answers)
	r, more := a.rollupAnswers(company.ID, usable, hasBeyondTier1(usable))
	return r, append(diags, more...)
}

// TierTotals computes the reduced Tier-1 total and, when the company answered
// beyond Tier 1, the full-questionnaire total. The returned rollup is the
// broadest breakdown available.
func (a *Aggregator) TierTotals(company model.Company, answers []model.Answer) (TierTotals, Rollup, []Diagnostic) {
	usable, diags := a.usableAnswers(company, answers)

	var tier1Only []model.Answer
	for _, ans := range usable {
		if ans.Tier == model.Tier1 {
			tier1Only = append(tier1Only, ans)
		}
	}

	var totals TierTotals
	reduced, more := a.rollupAnswers(company.ID, tier1Only, false)
	totals.Tier1 = reduced.Total

	if !hasBeyondTier1(usable) {
		return totals, reduced, append(diags, more...)
	}

	full, fullDiags := a.rollupAnswers(company.ID, usable, true)
	totals.Tier3 = full.Total
	return totals, full, append(diags, fullDiags...)
}

func hasBeyondTier1(answers []model.Answer) bool {
	for _, ans := range answers {
		if ans.Tier != model.Tier1 {
			return true
		}
	}
	return false
}

// RollupScores aggregates per-category assessment scores of one type. Several
// rows for the same category are averaged.
func (a *Aggregator) RollupScores(companyID string, scores []model.AssessmentScore, typ model.ScoreType) (Rollup, []Diagnostic) {
	var diags []Diagnostic
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, s := range scores {
		if s.Type != typ {
			continue
		}
		if _, ok := a.tree.Category(s.CategoryID); !ok {
			diags = append(diags, newDiagnostic(
				eris.Wrapf(ErrUnknownCategory, "%s score %s references %q", typ, s.ID, s.CategoryID),
				companyID, s.CategoryID, s.ID))
			continue
		}
		sums[s.CategoryID] += s.Value
		counts[s.CategoryID]++
	}

	ids := make([]string, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cats := make([]CategoryScore, 0, len(ids))
	for _, id := range ids {
		cats = append(cats, CategoryScore{CategoryID: id, Score: sums[id] / float64(counts[id])})
	}

	roots, rootDiags := AggregateCategories(a.tree, companyID, cats)
	diags = append(diags, rootDiags...)

	return Rollup{Categories: cats, Roots: roots, Total: Total(roots)}, diags
}
