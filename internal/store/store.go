// Package store is the data-access boundary of the scoring engine. Reader
// feeds the pipeline, Writer persists computed results and Loader imports
// records while enforcing the data-entry invariants.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mfi-cli/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = eris.New("store: not found")

	// ErrTierLocked is returned when a company's tier would change after
	// scores were computed for it in the active cycle.
	ErrTierLocked = eris.New("store: company tier locked")

	// ErrCycleLocked is returned for answers submitted after the cycle lock.
	ErrCycleLocked = eris.New("store: cycle locked")
)

// AnswerFilter selects answers. Empty fields match everything.
type AnswerFilter struct {
	CompanyID string          `json:"company_id,omitempty"`
	CycleID   string          `json:"cycle_id,omitempty"`
	Type      model.ScoreType `json:"type,omitempty"`
}

// ScoreFilter selects assessment scores. Empty fields match everything.
type ScoreFilter struct {
	CompanyID string          `json:"company_id,omitempty"`
	CycleID   string          `json:"cycle_id,omitempty"`
	Type      model.ScoreType `json:"type,omitempty"`
}

// TestFilter selects product tests. Empty fields match everything.
type TestFilter struct {
	CompanyID string `json:"company_id,omitempty"`
	CycleID   string `json:"cycle_id,omitempty"`
	BrandID   string `json:"brand_id,omitempty"`
}

// Reader is the read side used by the pipeline and the API.
type Reader interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCycle(ctx context.Context, id string) (*model.Cycle, error)
	GetActiveCycle(ctx context.Context) (*model.Cycle, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListBrands(ctx context.Context, companyID string) ([]model.Brand, error)
	ListAnswers(ctx context.Context, filter AnswerFilter) ([]model.Answer, error)
	ListAssessmentScores(ctx context.Context, filter ScoreFilter) ([]model.AssessmentScore, error)
	ListProductTests(ctx context.Context, filter TestFilter) ([]model.ProductTest, error)
	ListComputedScores(ctx context.Context, cycleID, companyID string) ([]model.ComputedAssessmentScore, error)
	ListRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType) ([]model.RankingEntry, error)
}

// Writer persists the output of a computation pass.
type Writer interface {
	SaveComputedScores(ctx context.Context, scores []model.ComputedAssessmentScore) error
	SaveRankings(ctx context.Context, cycleID, granularity string, productType model.ProductType, entries []model.RankingEntry) error
}

// Loader imports source records.
type Loader interface {
	UpsertCompany(ctx context.Context, c model.Company) error
	UpsertCycle(ctx context.Context, c model.Cycle) error
	UpsertCategory(ctx context.Context, c model.Category) error
	UpsertBrand(ctx context.Context, b model.Brand) error
	UpsertAnswer(ctx context.Context, a model.Answer) (*model.Answer, error)
	UpsertAssessmentScore(ctx context.Context, s model.AssessmentScore) error
	UpsertProductTest(ctx context.Context, t model.ProductTest) error
}

// Store is the full persistence interface.
type Store interface {
	Reader
	Writer
	Loader

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
