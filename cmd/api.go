package main

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/mfi-cli/internal/config"
	"github.com/sells-group/mfi-cli/internal/model"
	"github.com/sells-group/mfi-cli/internal/pipeline"
	"github.com/sells-group/mfi-cli/internal/scorer"
	"github.com/sells-group/mfi-cli/internal/store"
)

// activeCycle in a cycle path segment selects the active cycle.
const activeCycle = "active"

type api struct {
	runner *pipeline.Runner
	ping   func(r *http.Request) error
}

// envelope wraps every cycle-scoped response.
type envelope struct {
	CycleID    string    `json:"cycle_id"`
	ComputedAt time.Time `json:"computed_at"`
	Data       any       `json:"data"`
}

// buildRouter wires the read-only API. Cycle routes compute a fresh pass per
// request and never write to the store. The runner should carry no metrics of
// its own; requests are counted through metrics.APIRequests instead.
func buildRouter(runner *pipeline.Runner, st store.Store, metrics *pipeline.Metrics, sc config.ServerConfig) http.Handler {
	a := &api{runner: runner}
	if st != nil {
		a.ping = func(r *http.Request) error { return st.Ping(r.Context()) }
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/cycles/{cycleID}", func(r chi.Router) {
		if metrics != nil {
			r.Use(countRequests(metrics))
		}
		r.Use(rateLimit(sc.RateLimitRPS))
		r.Get("/rankings", a.rankings)
		r.Get("/rankings/{productType}", a.productRankings)
		r.Get("/brands/{brandID}", a.brand)
		r.Get("/variance", a.variance)
		r.Get("/pillars", a.pillars)
		r.Get("/companies/{companyID}", a.company)
	})

	return r
}

// countRequests records each request under its route pattern and status.
func countRequests(m *pipeline.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.APIRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		})
	}
}

// rateLimit rejects requests above rps with 429. rps <= 0 disables limiting.
func rateLimit(rps float64) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		if err := a.ping(r); err != nil {
			zap.L().Warn("api: health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// compute runs a pass for the cycle in the path. It writes the error
// response itself and returns nil on failure.
func (a *api) compute(w http.ResponseWriter, r *http.Request) *pipeline.Result {
	cycleID := chi.URLParam(r, "cycleID")
	if cycleID == activeCycle {
		cycleID = ""
	}
	res, err := a.runner.Run(r.Context(), pipeline.Request{CycleID: cycleID})
	if err != nil {
		writeError(w, r, err)
		return nil
	}
	return res
}

func (a *api) rankings(w http.ResponseWriter, r *http.Request) {
	res := a.compute(w, r)
	if res == nil {
		return
	}
	writeResult(w, res, res.Rankings.All)
}

func (a *api) productRankings(w http.ResponseWriter, r *http.Request) {
	pt, ok := model.ParseProductType(chi.URLParam(r, "productType"))
	if !ok {
		writeError(w, r, eris.Wrapf(scorer.ErrInvalidInput, "unknown product type %q", chi.URLParam(r, "productType")))
		return
	}
	res := a.compute(w, r)
	if res == nil {
		return
	}
	entries := res.Rankings.ByProductType[pt]
	if entries == nil {
		entries = []scorer.RankEntry{}
	}
	writeResult(w, res, entries)
}

func (a *api) brand(w http.ResponseWriter, r *http.Request) {
	res := a.compute(w, r)
	if res == nil {
		return
	}
	cmp, err := res.CompareBrand(chi.URLParam(r, "brandID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResult(w, res, cmp)
}

func (a *api) variance(w http.ResponseWriter, r *http.Request) {
	res := a.compute(w, r)
	if res == nil {
		return
	}
	writeResult(w, res, res.Variance)
}

func (a *api) pillars(w http.ResponseWriter, r *http.Request) {
	res := a.compute(w, r)
	if res == nil {
		return
	}
	writeResult(w, res, res.Pillars.Rows)
}

func (a *api) company(w http.ResponseWriter, r *http.Request) {
	res := a.compute(w, r)
	if res == nil {
		return
	}
	id := chi.URLParam(r, "companyID")
	cr, ok := res.Company(id)
	if !ok {
		writeError(w, r, eris.Wrapf(store.ErrNotFound, "company %s", id))
		return
	}
	writeResult(w, res, cr)
}

func writeResult(w http.ResponseWriter, res *pipeline.Result, data any) {
	writeJSON(w, http.StatusOK, envelope{CycleID: res.Cycle.ID, ComputedAt: res.ComputedAt, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, store.ErrNotFound), eris.Is(err, scorer.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, scorer.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
