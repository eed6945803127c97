package pipeline

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for computation passes and the read
// API. Each instance owns its registry so tests and multiple runners never
// collide. Passes computed to answer API requests are counted in APIRequests
// only.
type Metrics struct {
	Registry *prometheus.Registry

	RunDuration      *prometheus.HistogramVec
	CompaniesScored  prometheus.Counter
	CompanyFailures  *prometheus.CounterVec
	Diagnostics      *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
	IndustryMFI      *prometheus.GaugeVec
	APIRequests      *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mfi_run_duration_seconds",
				Help:    "Duration of MFI computation passes in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		),
		CompaniesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mfi_companies_scored_total",
			Help: "Total number of companies scored",
		}),
		CompanyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfi_company_failures_total",
				Help: "Companies skipped because their inputs could not be fetched, by stage",
			},
			[]string{"stage"},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfi_diagnostics_total",
				Help: "Non-fatal scoring diagnostics by kind",
			},
			[]string{"kind"},
		),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mfi_last_run_timestamp_seconds",
			Help: "Unix time of the last completed computation pass",
		}),
		IndustryMFI: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mfi_industry_score",
				Help: "Industry composite MFI by product type (all for the cross-industry composite)",
			},
			[]string{"product_type"},
		),
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mfi_api_requests_total",
				Help: "Read API requests by route pattern and status code",
			},
			[]string{"route", "status"},
		),
	}

	m.Registry.MustRegister(
		m.RunDuration,
		m.CompaniesScored,
		m.CompanyFailures,
		m.Diagnostics,
		m.LastRunTimestamp,
		m.IndustryMFI,
		m.APIRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
