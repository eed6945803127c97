// Package pipeline runs a full MFI computation pass: it fetches every active
// company's inputs from the store, scores them with the scorer engine and
// assembles rankings, variance and 4PG reports, optionally persisting the
// computed scores and ranking snapshots.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mfi-cli/internal/config"
	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/resilience"
	"github.com/sells-group/mfi-cli/internal/scorer"
	"github.com/sells-group/mfi-cli/internal/store"
)

const defaultConcurrency = 8

// Runner orchestrates computation passes over a store.
type Runner struct {
	reader  store.Reader
	writer  store.Writer
	opts    scorer.Options
	limit   int
	retry   resilience.RetryConfig
	metrics *Metrics
	now     func() time.Time
}

// New creates a Runner. writer may be nil when results are never persisted;
// metrics may be nil to disable instrumentation.
func New(cfg *config.Config, r store.Reader, w store.Writer, metrics *Metrics) (*Runner, error) {
	opts, err := scorer.OptionsFromConfig(cfg.Scoring)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scoring options")
	}
	limit := cfg.Batch.MaxConcurrentCompanies
	if limit <= 0 {
		limit = defaultConcurrency
	}
	return &Runner{
		reader:  r,
		writer:  w,
		opts:    opts,
		limit:   limit,
		retry:   resilience.FromStoreConfig(cfg.Store),
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// Request selects the cycle to compute. An empty CycleID uses the active cycle.
type Request struct {
	CycleID string
	Persist bool
}

// Run executes one computation pass. Per-company fetch failures are recorded
// in Result.Failures and do not abort the pass; failures to load the cycle,
// the category tree or the company list do.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := r.now()
	res, err := r.run(ctx, req)
	r.observe(start, res, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, req Request) (*Result, error) {
	cycle, err := r.resolveCycle(ctx, req.CycleID)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("cycle_id", cycle.ID))
	log.Info("pipeline: starting computation pass")

	categories, err := resilience.DoVal(ctx, r.retryFor("list categories"), r.reader.ListCategories)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list categories")
	}
	tree, err := scorer.NewCategoryTree(categories)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build category tree")
	}
	engine, err := scorer.NewEngine(r.opts, tree)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create engine")
	}

	companies, err := resilience.DoVal(ctx, r.retryFor("list companies"), r.reader.ListCompanies)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list companies")
	}

	inputs, failures := r.fetchAll(ctx, cycle.ID, companies)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch inputs")
	}

	res := assemble(engine, *cycle, inputs, r.now().UTC())
	res.Failures = failures
	scorer.LogDiagnostics(res.Diagnostics)

	if req.Persist {
		if err := r.persist(ctx, res); err != nil {
			return res, err
		}
		res.Persisted = true
	}

	log.Info("pipeline: computation pass complete",
		zap.Int("companies", len(res.Companies)),
		zap.Int("failures", len(res.Failures)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Bool("persisted", res.Persisted),
	)
	return res, nil
}

func (r *Runner) resolveCycle(ctx context.Context, cycleID string) (*model.Cycle, error) {
	if cycleID == "" {
		c, err := resilience.DoVal(ctx, r.retryFor("get active cycle"), r.reader.GetActiveCycle)
		return c, eris.Wrap(err, "pipeline: resolve active cycle")
	}
	c, err := resilience.DoVal(ctx, r.retryFor("get cycle"), func(ctx context.Context) (*model.Cycle, error) {
		return r.reader.GetCycle(ctx, cycleID)
	})
	return c, eris.Wrapf(err, "pipeline: resolve cycle %s", cycleID)
}

// Failure records a company whose inputs could not be fetched.
type Failure struct {
	CompanyID string `json:"company_id"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// fetchAll loads inputs for every active company concurrently, bounded by the
// configured limit. Inputs keep the company list order; failed companies are
// omitted and reported instead.
func (r *Runner) fetchAll(ctx context.Context, cycleID string, companies []model.Company) ([]scorer.CompanyInput, []Failure) {
	var active []model.Company
	for _, c := range companies {
		if c.Active {
			active = append(active, c)
		}
	}

	slots := make([]*scorer.CompanyInput, len(active))
	var (
		mu       sync.Mutex
		failures []Failure
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, c := range active {
		i, c := i, c // per-iteration copies; go directive is below 1.22
		g.Go(func() error {
			in, stage, err := r.fetchCompany(gCtx, cycleID, c)
			if err != nil {
				zap.L().Warn("pipeline: skipping company",
					zap.String("company_id", c.ID),
					zap.String("stage", stage),
					zap.Error(err),
				)
				mu.Lock()
				failures = append(failures, Failure{CompanyID: c.ID, Stage: stage, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			slots[i] = in
			return nil
		})
	}
	_ = g.Wait()

	inputs := make([]scorer.CompanyInput, 0, len(slots))
	for _, in := range slots {
		if in != nil {
			inputs = append(inputs, *in)
		}
	}
	sortFailures(failures)
	return inputs, failures
}

func (r *Runner) fetchCompany(ctx context.Context, cycleID string, c model.Company) (*scorer.CompanyInput, string, error) {
	in := &scorer.CompanyInput{Company: c, CycleID: cycleID}
	var err error

	in.Brands, err = resilience.DoVal(ctx, r.retryFor("list brands", zap.String("company_id", c.ID)),
		func(ctx context.Context) ([]model.Brand, error) {
			return r.reader.ListBrands(ctx, c.ID)
		})
	if err != nil {
		return nil, "brands", err
	}

	in.Answers, err = resilience.DoVal(ctx, r.retryFor("list answers", zap.String("company_id", c.ID)),
		func(ctx context.Context) ([]model.Answer, error) {
			return r.reader.ListAnswers(ctx, store.AnswerFilter{CompanyID: c.ID, CycleID: cycleID})
		})
	if err != nil {
		return nil, "answers", err
	}

	in.Scores, err = resilience.DoVal(ctx, r.retryFor("list assessment scores", zap.String("company_id", c.ID)),
		func(ctx context.Context) ([]model.AssessmentScore, error) {
			return r.reader.ListAssessmentScores(ctx, store.ScoreFilter{CompanyID: c.ID, CycleID: cycleID})
		})
	if err != nil {
		return nil, "scores", err
	}

	in.ProductTests, err = resilience.DoVal(ctx, r.retryFor("list product tests", zap.String("company_id", c.ID)),
		func(ctx context.Context) ([]model.ProductTest, error) {
			return r.reader.ListProductTests(ctx, store.TestFilter{CompanyID: c.ID, CycleID: cycleID})
		})
	if err != nil {
		return nil, "product_tests", err
	}
	return in, "", nil
}

func (r *Runner) retryFor(operation string, fields ...zap.Field) resilience.RetryConfig {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("pipeline: "+operation, fields...)
	return cfg
}

func (r *Runner) observe(start time.Time, res *Result, err error) {
	if r.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.metrics.RunDuration.WithLabelValues(outcome).Observe(r.now().Sub(start).Seconds())
	if res == nil {
		return
	}
	r.metrics.CompaniesScored.Add(float64(len(res.Companies)))
	for _, f := range res.Failures {
		r.metrics.CompanyFailures.WithLabelValues(f.Stage).Inc()
	}
	for _, d := range res.Diagnostics {
		r.metrics.Diagnostics.WithLabelValues(diagnosticKind(d)).Inc()
	}
	r.metrics.IndustryMFI.WithLabelValues("all").Set(res.Industry.MFI)
	for _, pt := range model.ProductTypes {
		if c, ok := res.IndustryByProduct[pt]; ok {
			r.metrics.IndustryMFI.WithLabelValues(string(pt)).Set(c.MFI)
		}
	}
	if err == nil {
		r.metrics.LastRunTimestamp.Set(float64(r.now().Unix()))
	}
}
