// Package mocks provides test doubles for the store interfaces.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/mfi-cli/internal/model"
	store "github.com/sells-group/mfi-cli/internal/store"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

func (_m *MockStore) errAt(ret mock.Arguments, i int) error {
	if len(ret) <= i {
		return nil
	}
	return ret.Error(i)
}

// ListCompanies provides a mock function with given fields: ctx
func (_m *MockStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for ListCompanies")
	}
	var r0 []model.Company
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Company)
	}
	return r0, _m.errAt(ret, 1)
}

// GetCompany provides a mock function with given fields: ctx, id
func (_m *MockStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	ret := _m.Called(ctx, id)
	if len(ret) == 0 {
		panic("no return value specified for GetCompany")
	}
	var r0 *model.Company
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Company)
	}
	return r0, _m.errAt(ret, 1)
}

// GetCycle provides a mock function with given fields: ctx, id
func (_m *MockStore) GetCycle(ctx context.Context, id string) (*model.Cycle, error) {
	ret := _m.Called(ctx, id)
	if len(ret) == 0 {
		panic("no return value specified for GetCycle")
	}
	var r0 *model.Cycle
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Cycle)
	}
	return r0, _m.errAt(ret, 1)
}

// GetActiveCycle provides a mock function with given fields: ctx
func (_m *MockStore) GetActiveCycle(ctx context.Context) (*model.Cycle, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for GetActiveCycle")
	}
	var r0 *model.Cycle
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Cycle)
	}
	return r0, _m.errAt(ret, 1)
}

// ListCategories provides a mock function with given fields: ctx
func (_m *MockStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	ret := _m.Called(ctx)
	if len(ret) == 0 {
		panic("no return value specified for ListCategories")
	}
	var r0 []model.Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Category)
	}
	return r0, _m.errAt(ret, 1)
}

// ListBrands provides a mock function with given fields: ctx, companyID
func (_m *MockStore) ListBrands(ctx context.Context, companyID string) ([]model.Brand, error) {
	ret := _m.Called(ctx, companyID)
	if len(ret) == 0 {
		panic("no return value specified for ListBrands")
	}
	var r0 []model.Brand
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Brand)
	}
	return r0, _m.errAt(ret, 1)
}

// ListAnswers provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListAnswers(ctx context.Context, filter store.AnswerFilter) ([]model.Answer, error) {
	ret := _m.Called(ctx, filter)
	if len(ret) == 0 {
		panic("no return value specified for ListAnswers")
	}
	var r0 []model.Answer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Answer)
	}
	return r0, _m.errAt(ret, 1)
}

// ListAssessmentScores provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListAssessmentScores(ctx context.Context, filter store.ScoreFilter) ([]model.AssessmentScore, error) {
	ret := _m.Called(ctx, filter)
	if len(ret) == 0 {
		panic("no return value specified for ListAssessmentScores")
	}
	var r0 []model.AssessmentScore
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.AssessmentScore)
	}
	return r0, _m.errAt(ret, 1)
}

// ListProductTests provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListProductTests(ctx context.Context, filter store.TestFilter) ([]model.ProductTest, error) {
	ret := _m.Called(ctx, filter)
	if len(ret) == 0 {
		panic("no return value specified for ListProductTests")
	}
	var r0 []model.ProductTest
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ProductTest)
	}
	return r0, _m.errAt(ret, 1)
}

// ListComputedScores provides a mock function with given fields: ctx, cycleID, companyID
func (_m *MockStore) ListComputedScores(ctx context.Context, cycleID string, companyID string) ([]model.ComputedAssessmentScore, error) {
	ret := _m.Called(ctx, cycleID, companyID)
	if len(ret) == 0 {
		panic("no return value specified for ListComputedScores")
	}
	var r0 []model.ComputedAssessmentScore
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ComputedAssessmentScore)
	}
	return r0, _m.errAt(ret, 1)
}

// ListRankings provides a mock function with given fields: ctx, cycleID, granularity, productType
func (_m *MockStore) ListRankings(ctx context.Context, cycleID string, granularity string, productType model.ProductType) ([]model.RankingEntry, error) {
	ret := _m.Called(ctx, cycleID, granularity, productType)
	if len(ret) == 0 {
		panic("no return value specified for ListRankings")
	}
	var r0 []model.RankingEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.RankingEntry)
	}
	return r0, _m.errAt(ret, 1)
}

// SaveComputedScores provides a mock function with given fields: ctx, scores
func (_m *MockStore) SaveComputedScores(ctx context.Context, scores []model.ComputedAssessmentScore) error {
	return _m.errAt(_m.Called(ctx, scores), 0)
}

// SaveRankings provides a mock function with given fields: ctx, cycleID, granularity, productType, entries
func (_m *MockStore) SaveRankings(ctx context.Context, cycleID string, granularity string, productType model.ProductType, entries []model.RankingEntry) error {
	return _m.errAt(_m.Called(ctx, cycleID, granularity, productType, entries), 0)
}

// UpsertCompany provides a mock function with given fields: ctx, c
func (_m *MockStore) UpsertCompany(ctx context.Context, c model.Company) error {
	return _m.errAt(_m.Called(ctx, c), 0)
}

// UpsertCycle provides a mock function with given fields: ctx, c
func (_m *MockStore) UpsertCycle(ctx context.Context, c model.Cycle) error {
	return _m.errAt(_m.Called(ctx, c), 0)
}

// UpsertCategory provides a mock function with given fields: ctx, c
func (_m *MockStore) UpsertCategory(ctx context.Context, c model.Category) error {
	return _m.errAt(_m.Called(ctx, c), 0)
}

// UpsertBrand provides a mock function with given fields: ctx, b
func (_m *MockStore) UpsertBrand(ctx context.Context, b model.Brand) error {
	return _m.errAt(_m.Called(ctx, b), 0)
}

// UpsertAnswer provides a mock function with given fields: ctx, a
func (_m *MockStore) UpsertAnswer(ctx context.Context, a model.Answer) (*model.Answer, error) {
	ret := _m.Called(ctx, a)
	if len(ret) == 0 {
		panic("no return value specified for UpsertAnswer")
	}
	var r0 *model.Answer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Answer)
	}
	return r0, _m.errAt(ret, 1)
}

// UpsertAssessmentScore provides a mock function with given fields: ctx, sc
func (_m *MockStore) UpsertAssessmentScore(ctx context.Context, sc model.AssessmentScore) error {
	return _m.errAt(_m.Called(ctx, sc), 0)
}

// UpsertProductTest provides a mock function with given fields: ctx, t
func (_m *MockStore) UpsertProductTest(ctx context.Context, t model.ProductTest) error {
	return _m.errAt(_m.Called(ctx, t), 0)
}

// Ping provides a mock function with given fields: ctx
func (_m *MockStore) Ping(ctx context.Context) error {
	return _m.errAt(_m.Called(ctx), 0)
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	return _m.errAt(_m.Called(ctx), 0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	return _m.errAt(_m.Called(), 0)
}

// NewMockStore creates a new MockStore and registers cleanup assertions.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
