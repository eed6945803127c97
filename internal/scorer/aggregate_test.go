package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mfi-cli/internal/model"
)

func TestAggregateCategories(t *testing.T) {
	tree := testTree(t)

	roots, diags := AggregateCategories(tree, "co-1", []CategoryScore{
		{CategoryID: "c1", Score: 80},
		{CategoryID: "c2", Score: 60},
		{CategoryID: "ghost", Score: 100},
	})

	require.Len(t, roots, 2)
	require.NotNil(t, roots[0].Score)
	assert.InDelta(t, 28, *roots[0].Score, 1e-9) // mean(80, 60) * 0.4
	assert.Equal(t, 2, roots[0].Children)

	assert.Nil(t, roots[1].Score, "a root without data is null, not 0")
	assert.Equal(t, 1, CountDiagnostics(diags, ErrMissingData))
	assert.Equal(t, 1, CountDiagnostics(diags, ErrUnknownCategory))

	assert.Nil(t, Total(roots), "a missing root leaves the total undefined")
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		roots []RootScore
		want  *float64
	}{
		{"every root present", []RootScore{{CategoryID: "a", Score: Float(40)}, {CategoryID: "b", Score: Float(35)}}, Float(75)},
		{"one root missing", []RootScore{{CategoryID: "a", Score: Float(40)}, {CategoryID: "b"}}, nil},
		{"all missing", []RootScore{{CategoryID: "a"}, {CategoryID: "b"}}, nil},
		{"no roots", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(tt.roots)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestRollupAnswers_PartialRoots(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))
	company := model.Company{ID: "co-1", Tier: model.CompanyTier1}

	rollup, diags := agg.RollupAnswers(company, []model.Answer{
		answer("a1", "c1", model.Tier1, model.FullyMet),
		answer("a2", "c2", model.Tier1, model.FullyMet),
	})

	require.Len(t, rollup.Roots, 2)
	require.NotNil(t, rollup.Roots[0].Score)
	assert.InDelta(t, 40, *rollup.Roots[0].Score, 1e-6)
	assert.Nil(t, rollup.Roots[1].Score)
	assert.Nil(t, rollup.Total, "production has no answers")
	assert.Equal(t, 1, CountDiagnostics(diags, ErrMissingData))
}

func TestRollupScores_PartialRoots(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))

	rollup, diags := agg.RollupScores("co-1", []model.AssessmentScore{
		{ID: "s1", CompanyID: "co-1", CategoryID: "c3", Type: model.ScoreIEG, Value: 100},
	}, model.ScoreIEG)

	require.Len(t, rollup.Roots, 2)
	assert.Nil(t, rollup.Roots[0].Score)
	require.NotNil(t, rollup.Roots[1].Score)
	assert.InDelta(t, 60, *rollup.Roots[1].Score, 1e-9)
	assert.Nil(t, rollup.Total)
	assert.Equal(t, 1, CountDiagnostics(diags, ErrMissingData))
}

func TestRollupAnswers_Tier1Company(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))
	company := model.Company{ID: "co-1", Tier: model.CompanyTier1, Active: true}

	rollup, diags := agg.RollupAnswers(company, []model.Answer{
		answer("a1", "c1", model.Tier1, model.FullyMet),
		answer("a2", "c2", model.Tier1, model.MostlyMet),
		answer("a3", "c3", model.Tier1, model.NotMet),
		answer("a4", "c3", model.Tier3, model.FullyMet),
	})

	assert.False(t, rollup.FullVersion)
	assert.Equal(t, 1, CountDiagnostics(diags, ErrInconsistentTier))

	require.Len(t, rollup.Roots, 2)
	assert.InDelta(t, 35.015015015, *rollup.Roots[0].Score, 1e-6)
	assert.InDelta(t, 9.009009009, *rollup.Roots[1].Score, 1e-6)
	require.NotNil(t, rollup.Total)
	assert.InDelta(t, 44.024024024, *rollup.Total, 1e-6)
}

func TestRollupAnswers_LatestAnswerWins(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))
	company := model.Company{ID: "co-1", Tier: model.CompanyTier1}

	older := answer("a1", "c1", model.Tier1, model.NotMet)
	newer := answer("a2", "c1", model.Tier1, model.FullyMet)
	newer.UpdatedAt = baseTime.Add(1)

	rollup, _ := agg.RollupAnswers(company, []model.Answer{newer, older})

	require.Len(t, rollup.Categories, 1)
	assert.InDelta(t, 100, rollup.Categories[0].Score, 1e-9)
}

func TestRollupAnswers_SkipsInvalid(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))
	company := model.Company{ID: "co-1", Tier: model.CompanyTier3}

	rollup, diags := agg.RollupAnswers(company, []model.Answer{
		answer("a1", "gov", model.Tier1, model.FullyMet),
		answer("a2", "c1", model.Tier("TIER_7"), model.FullyMet),
		answer("a3", "c1", model.Tier1, model.Response("MAYBE")),
	})

	assert.Empty(t, rollup.Categories)
	assert.Nil(t, rollup.Total)
	assert.Equal(t, 1, CountDiagnostics(diags, ErrUnknownCategory))
	assert.Equal(t, 2, CountDiagnostics(diags, ErrInvalidInput))
}

func TestTierTotals(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))

	t.Run("tier3 company answering all tiers", func(t *testing.T) {
		company := model.Company{ID: "co-1", Tier: model.CompanyTier3}
		totals, rollup, _ := agg.TierTotals(company, []model.Answer{
			answer("a1", "c1", model.Tier1, model.FullyMet),
			answer("a2", "c1", model.Tier2, model.FullyMet),
			answer("a3", "c1", model.Tier3, model.FullyMet),
			answer("a4", "c3", model.Tier1, model.FullyMet),
		})

		require.NotNil(t, totals.Tier1)
		require.NotNil(t, totals.Tier3)
		assert.InDelta(t, 100, *totals.Tier1, 1e-6)
		assert.InDelta(t, 76, *totals.Tier3, 1e-6) // 100*0.4 + 60*0.6
		assert.True(t, rollup.FullVersion)

		selected := SelectAggregate(totals)
		require.NotNil(t, selected)
		assert.InDelta(t, 88, *selected, 1e-6)
	})

	t.Run("tier1 answers only", func(t *testing.T) {
		company := model.Company{ID: "co-1", Tier: model.CompanyTier3}
		totals, rollup, _ := agg.TierTotals(company, []model.Answer{
			answer("a1", "c1", model.Tier1, model.FullyMet),
			answer("a2", "c3", model.Tier1, model.MostlyMet),
		})

		require.NotNil(t, totals.Tier1)
		assert.InDelta(t, 85.045045045, *totals.Tier1, 1e-6) // 100*0.4 + 75.075*0.6
		assert.Nil(t, totals.Tier3)
		assert.False(t, rollup.FullVersion)
	})

	t.Run("tier1 answers for one root", func(t *testing.T) {
		company := model.Company{ID: "co-1", Tier: model.CompanyTier1}
		totals, rollup, _ := agg.TierTotals(company, []model.Answer{
			answer("a1", "c1", model.Tier1, model.FullyMet),
		})

		assert.Nil(t, totals.Tier1)
		assert.Nil(t, totals.Tier3)
		assert.Nil(t, SelectAggregate(totals))
		require.NotNil(t, rollup.Roots[0].Score)
		assert.InDelta(t, 40, *rollup.Roots[0].Score, 1e-6)
	})

	t.Run("no answers", func(t *testing.T) {
		company := model.Company{ID: "co-1", Tier: model.CompanyTier1}
		totals, _, diags := agg.TierTotals(company, nil)

		assert.Nil(t, totals.Tier1)
		assert.Nil(t, totals.Tier3)
		assert.Nil(t, SelectAggregate(totals))
		assert.Equal(t, 2, CountDiagnostics(diags, ErrMissingData))
	})
}

func TestRollupScores(t *testing.T) {
	agg := NewAggregator(NewTierWeightTable(PartlyMetLegacy), testTree(t))

	rollup, diags := agg.RollupScores("co-1", []model.AssessmentScore{
		{ID: "s1", CompanyID: "co-1", CategoryID: "c1", Type: model.ScoreIEG, Value: 80},
		{ID: "s2", CompanyID: "co-1", CategoryID: "c1", Type: model.ScoreIEG, Value: 60},
		{ID: "s3", CompanyID: "co-1", CategoryID: "c3", Type: model.ScoreIEG, Value: 50},
		{ID: "s4", CompanyID: "co-1", CategoryID: "c3", Type: model.ScoreIVC, Value: 100},
		{ID: "s5", CompanyID: "co-1", CategoryID: "nope", Type: model.ScoreIEG, Value: 100},
	}, model.ScoreIEG)

	require.Len(t, rollup.Categories, 2)
	assert.Equal(t, "c1", rollup.Categories[0].CategoryID)
	assert.InDelta(t, 70, rollup.Categories[0].Score, 1e-9)
	require.NotNil(t, rollup.Total)
	assert.InDelta(t, 58, *rollup.Total, 1e-9) // 70*0.4 + 50*0.6
	assert.Equal(t, 1, CountDiagnostics(diags, ErrUnknownCategory))
}
