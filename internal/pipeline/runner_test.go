package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mfi-cli/internal/config"
	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/resilience"
	"github.com/sells-group/mfi-cli/internal/store"
	"github.com/sells-group/mfi-cli/internal/store/mocks"
)

var produced = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{SATWeight: 60, IEGWeight: 20, PTWeight: 20, PartlyMetPolicy: "legacy"},
		Batch:   config.BatchConfig{MaxConcurrentCompanies: 2},
		Store:   config.StoreConfig{FetchRetries: 2},
	}
}

func newTestRunner(t *testing.T, st *mocks.MockStore, metrics *Metrics) *Runner {
	t.Helper()
	r, err := New(testConfig(), st, st, metrics)
	require.NoError(t, err)
	r.retry.InitialBackoff = time.Millisecond
	r.retry.MaxBackoff = time.Millisecond
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func categories() []model.Category {
	return []model.Category{
		{ID: "gov", Name: "Governance", Weight: 40, SortOrder: 1},
		{ID: "prod", Name: "Production", Weight: 60, SortOrder: 2},
		{ID: "c1", ParentID: "gov", Name: "Board oversight", SortOrder: 1},
		{ID: "c3", ParentID: "prod", Name: "Quality control", SortOrder: 1},
	}
}

func fullyMet(company string) []model.Answer {
	mk := func(id, category string) model.Answer {
		return model.Answer{
			ID: id, Type: model.ScoreSAT, CompanyID: company, CycleID: "cy-1", CategoryID: category,
			Tier: model.Tier1, Response: model.FullyMet, Approved: true,
		}
	}
	return []model.Answer{mk(company+"-a1", "c1"), mk(company+"-a2", "c3")}
}

func flourTest(company, brand string) []model.ProductTest {
	return []model.ProductTest{{
		ID: brand + "-t1", BrandID: brand, CompanyID: company, CycleID: "cy-1", ProductType: model.ProductFlour,
		SampleProductionDate: produced,
		Scores: []model.MicroNutrientScore{
			{Name: model.VitaminA, Value: 85, ExpectedValue: 100},
			{Name: model.VitaminB3, Value: 60, ExpectedValue: 100},
			{Name: model.Iron, Value: 40, ExpectedValue: 100},
		},
	}}
}

// expectDataset wires two scorable companies, one whose brands cannot be
// fetched and one inactive company that must never be fetched.
func expectDataset(st *mocks.MockStore) {
	st.On("GetActiveCycle", mock.Anything).Return(&model.Cycle{ID: "cy-1", Name: "2025", Active: true}, nil)
	st.On("ListCategories", mock.Anything).Return(categories(), nil)
	st.On("ListCompanies", mock.Anything).Return([]model.Company{
		{ID: "co-1", Name: "Acme Mills", Tier: model.CompanyTier1, Active: true},
		{ID: "co-2", Name: "Bolt Foods", Tier: model.CompanyTier1, Active: true},
		{ID: "co-3", Name: "Crumb Co", Tier: model.CompanyTier1, Active: true},
		{ID: "co-4", Name: "Dormant Ltd", Tier: model.CompanyTier1, Active: false},
	}, nil)

	st.On("ListBrands", mock.Anything, "co-1").
		Return([]model.Brand{{ID: "b1", CompanyID: "co-1", ProductType: model.ProductFlour, Name: "Golden", Active: true}}, nil)
	st.On("ListBrands", mock.Anything, "co-2").
		Return([]model.Brand{{ID: "b2", CompanyID: "co-2", ProductType: model.ProductFlour, Name: "Bolt Best", Active: true}}, nil)
	st.On("ListBrands", mock.Anything, "co-3").Return(nil, errors.New("permission denied"))

	for _, id := range []string{"co-1", "co-2"} {
		st.On("ListAnswers", mock.Anything, store.AnswerFilter{CompanyID: id, CycleID: "cy-1"}).Return(fullyMet(id), nil)
		st.On("ListProductTests", mock.Anything, store.TestFilter{CompanyID: id, CycleID: "cy-1"}).
			Return(flourTest(id, map[string]string{"co-1": "b1", "co-2": "b2"}[id]), nil)
	}
	st.On("ListAssessmentScores", mock.Anything, store.ScoreFilter{CompanyID: "co-1", CycleID: "cy-1"}).
		Return([]model.AssessmentScore{
			{ID: "s1", CompanyID: "co-1", CycleID: "cy-1", CategoryID: "c1", Type: model.ScoreIEG, Value: 70},
			{ID: "s2", CompanyID: "co-1", CycleID: "cy-1", CategoryID: "c3", Type: model.ScoreIEG, Value: 70},
			{ID: "s3", CompanyID: "co-1", CycleID: "cy-1", CategoryID: "c1", Type: model.ScoreSAT, Value: 60},
			{ID: "s4", CompanyID: "co-1", CycleID: "cy-1", CategoryID: "c1", Type: model.ScoreIVC, Value: 80},
		}, nil)
	st.On("ListAssessmentScores", mock.Anything, store.ScoreFilter{CompanyID: "co-2", CycleID: "cy-1"}).
		Return([]model.AssessmentScore{}, nil)
}

func TestRun_ScoresAndRanks(t *testing.T) {
	st := mocks.NewMockStore(t)
	expectDataset(st)
	metrics := NewMetrics()

	res, err := newTestRunner(t, st, metrics).Run(context.Background(), Request{})
	require.NoError(t, err)

	require.Len(t, res.Companies, 2)
	assert.Equal(t, "cy-1", res.Cycle.ID)
	assert.False(t, res.Persisted)

	acme, ok := res.Company("co-1")
	require.True(t, ok)
	assert.InDelta(t, 85.67, acme.Composite.MFI, 1e-9) // 60 + 14 + 11.67

	bolt, ok := res.Company("co-2")
	require.True(t, ok)
	assert.InDelta(t, 71.67, bolt.Composite.MFI, 1e-9) // no IEG

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "co-3", res.Failures[0].CompanyID)
	assert.Equal(t, "brands", res.Failures[0].Stage)

	require.Len(t, res.Rankings.All, 2)
	assert.Equal(t, "co-1", res.Rankings.All[0].EntityID)
	assert.Equal(t, 1, res.Rankings.All[0].Rank)
	assert.Equal(t, 2, res.Rankings.All[1].Rank)

	require.Contains(t, res.Rankings.ByProductType, model.ProductFlour)
	assert.NotContains(t, res.Rankings.ByProductType, model.ProductSugar)
	assert.Len(t, res.Rankings.ByProductType[model.ProductFlour], 2)
	assert.Len(t, res.Rankings.Brands, 2)

	require.Len(t, res.Variance, 2)
	assert.Equal(t, "Acme Mills", res.Variance[0].CompanyName)
	assert.InDelta(t, 20, res.Variance[0].Variance, 1e-9)

	require.Len(t, res.Pillars.Rows, 2)

	cmp, err := res.CompareBrand("b2")
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.Brand.Rank)

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.CompaniesScored), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CompanyFailures.WithLabelValues("brands")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RunDuration))
	// co-2 has no IVC scores, so its variance percentage is undefined.
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Diagnostics.WithLabelValues("divide_by_zero")), 1e-9)

	st.AssertNotCalled(t, "ListBrands", mock.Anything, "co-4")
	st.AssertNotCalled(t, "SaveComputedScores", mock.Anything, mock.Anything)
}

func TestRun_Persist(t *testing.T) {
	st := mocks.NewMockStore(t)
	expectDataset(st)

	st.On("SaveComputedScores", mock.Anything, mock.MatchedBy(func(s []model.ComputedAssessmentScore) bool {
		return len(s) == 6
	})).Return(nil).Once()
	st.On("SaveRankings", mock.Anything, "cy-1", "all", model.ProductType(""), mock.Anything).Return(nil).Once()
	st.On("SaveRankings", mock.Anything, "cy-1", "product-type", model.ProductFlour, mock.Anything).Return(nil).Once()
	st.On("SaveRankings", mock.Anything, "cy-1", "brand", model.ProductType(""), mock.Anything).Return(nil).Once()

	res, err := newTestRunner(t, st, nil).Run(context.Background(), Request{Persist: true})
	require.NoError(t, err)
	assert.True(t, res.Persisted)
}

func TestRun_PersistFailure(t *testing.T) {
	st := mocks.NewMockStore(t)
	expectDataset(st)
	st.On("SaveComputedScores", mock.Anything, mock.Anything).Return(errors.New("read-only database"))

	res, err := newTestRunner(t, st, nil).Run(context.Background(), Request{Persist: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save computed scores")
	require.NotNil(t, res, "scored results are returned even when persisting fails")
	assert.False(t, res.Persisted)
}

func TestRun_RetriesTransientFetch(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("GetCycle", mock.Anything, "cy-1").Return(&model.Cycle{ID: "cy-1"}, nil)
	st.On("ListCategories", mock.Anything).Return(nil, resilience.NewTransientError(errors.New("conn closed"))).Once()
	st.On("ListCategories", mock.Anything).Return(categories(), nil).Once()
	st.On("ListCompanies", mock.Anything).Return([]model.Company{}, nil)

	res, err := newTestRunner(t, st, nil).Run(context.Background(), Request{CycleID: "cy-1"})
	require.NoError(t, err)
	assert.Empty(t, res.Companies)
	assert.Empty(t, res.Rankings.All)
}

func TestRun_NoActiveCycle(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("GetActiveCycle", mock.Anything).Return(nil, store.ErrNotFound)

	metrics := NewMetrics()
	_, err := newTestRunner(t, st, metrics).Run(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RunDuration))
}

func TestResult_ComputedScores(t *testing.T) {
	st := mocks.NewMockStore(t)
	expectDataset(st)

	res, err := newTestRunner(t, st, nil).Run(context.Background(), Request{})
	require.NoError(t, err)

	scores := res.ComputedScores()
	require.Len(t, scores, 6)
	byKey := map[string]*float64{}
	for _, s := range scores {
		byKey[s.CompanyID+"/"+string(s.ScoreType)] = s.Value
	}
	require.NotNil(t, byKey["co-1/SAT"])
	assert.InDelta(t, 100, *byKey["co-1/SAT"], 1e-9)
	assert.Nil(t, byKey["co-1/IVC"], "no IVC answers")
	assert.Nil(t, byKey["co-2/IEG"])

	snaps := res.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, "all", string(snaps[0].Granularity))
	assert.Equal(t, model.ProductFlour, snaps[1].ProductType)
	assert.Equal(t, "b1", snaps[1].Entries[0].EntityID)
	assert.Equal(t, "brand", snaps[2].Entries[0].Kind)
}

func TestNew_InvalidWeights(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.SATWeight = 90
	_, err := New(cfg, nil, nil, nil)
	assert.Error(t, err)
}
