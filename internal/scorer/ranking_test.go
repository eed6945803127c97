package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mfi-cli/internal/model"
)

func entries(mfis ...float64) []RankEntry {
	out := make([]RankEntry, len(mfis))
	for i, m := range mfis {
		out[i] = RankEntry{EntityID: string(rune('a' + i)), MFI: m}
	}
	return out
}

func ranks(in []RankEntry) []int {
	out := make([]int, len(in))
	for i, e := range in {
		out[i] = e.Rank
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name string
		mfis []float64
		want []int
	}{
		{"ties share rank", []float64{90, 90, 80}, []int{1, 1, 3}},
		{"tie in the middle", []float64{70, 80, 90, 80}, []int{1, 2, 2, 4}},
		{"distinct", []float64{10, 30, 20}, []int{1, 2, 3}},
		{"single", []float64{55}, []int{1}},
		{"empty", nil, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ranks(Rank(entries(tt.mfis...))))
		})
	}
}

func TestRank_StableAndPure(t *testing.T) {
	in := entries(80, 90, 90)
	out := Rank(in)

	assert.Equal(t, []string{"b", "c", "a"}, []string{out[0].EntityID, out[1].EntityID, out[2].EntityID})
	assert.Zero(t, in[0].Rank, "input must not be modified")
}

func TestRank_IncompleteAfterComplete(t *testing.T) {
	w := DefaultWeights()
	noData := RankEntry{EntityID: "no-data", Composite: w.Compose(Components{})}
	zeroIEG := RankEntry{EntityID: "zero-ieg", Composite: w.Compose(Components{SAT: Float(0), IEG: Float(0), PT: Float(0)})}
	partial := RankEntry{EntityID: "partial", Composite: w.Compose(Components{SAT: Float(100), PT: Float(20)})}
	for _, e := range []*RankEntry{&noData, &zeroIEG, &partial} {
		e.MFI = e.Composite.MFI
	}

	out := Rank([]RankEntry{noData, partial, zeroIEG})

	require.Len(t, out, 3)
	assert.Equal(t, "zero-ieg", out[0].EntityID)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, "partial", out[1].EntityID, "incomplete entries rank after complete ones even with a higher MFI")
	assert.Equal(t, 2, out[1].Rank)
	assert.Equal(t, "no-data", out[2].EntityID)
	assert.Equal(t, 3, out[2].Rank, "no data does not tie with a real zero")
	assert.InDelta(t, out[0].MFI, out[2].MFI, 1e-9)
}

func rankingResults() []CompanyResult {
	w := DefaultWeights()
	mk := func(id string, pt model.ProductType, sat, ptScore float64) BrandResult {
		return BrandResult{
			Brand:     model.Brand{ID: id, Name: "Brand " + id, ProductType: pt, Active: true},
			PT:        Float(ptScore),
			Composite: w.Compose(Components{SAT: Float(sat), IEG: Float(50), PT: Float(ptScore)}),
		}
	}
	return []CompanyResult{
		{
			Company:   model.Company{ID: "co-1", Name: "Acme", Tier: model.CompanyTier1},
			Brands:    []BrandResult{mk("b1", model.ProductFlour, 80, 20), mk("b2", model.ProductSugar, 80, 10)},
			Composite: w.Compose(Components{SAT: Float(80), IEG: Float(50), PT: Float(15)}),
		},
		{
			Company:   model.Company{ID: "co-2", Name: "Bolt", Tier: model.CompanyTier3},
			Brands:    []BrandResult{mk("b3", model.ProductFlour, 60, 10)},
			Composite: w.Compose(Components{SAT: Float(60), IEG: Float(50), PT: Float(10)}),
		},
	}
}

func TestRankIndustries(t *testing.T) {
	ranked := RankIndustries(rankingResults())

	require.Len(t, ranked, 2)
	assert.Equal(t, "co-1", ranked[0].EntityID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, EntityCompany, ranked[0].Kind)
	assert.InDelta(t, 73, ranked[0].MFI, 1e-9)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestRankProductType(t *testing.T) {
	ranked, err := RankProductType(rankingResults(), model.ProductFlour)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "b1", ranked[0].EntityID)
	assert.Equal(t, "Acme", ranked[0].CompanyName)
	assert.Equal(t, "b3", ranked[1].EntityID)

	_, err = RankProductType(rankingResults(), "Salt")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompareBrand(t *testing.T) {
	engine, err := NewEngine(DefaultOptions(), testTree(t))
	require.NoError(t, err)

	cmp, err := engine.CompareBrand(rankingResults(), "b3")
	require.NoError(t, err)

	// b1: 48 + 10 + 20 = 78, b3: 36 + 10 + 10 = 56
	assert.Equal(t, 2, cmp.Population)
	assert.Equal(t, 2, cmp.Brand.Rank)
	assert.InDelta(t, 67, cmp.IndustryAverageMFI, 1e-9)
	assert.InDelta(t, -11, cmp.Delta, 1e-9)

	_, err = engine.CompareBrand(rankingResults(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
