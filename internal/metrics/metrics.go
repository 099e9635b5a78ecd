package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus metrics for the grading service. A
// dedicated registry keeps tests free of global-registration collisions.
type Registry struct {
	registry *prometheus.Registry

	CasesTotal        *prometheus.CounterVec
	CaseDuration      prometheus.Histogram
	FailureReasons    *prometheus.CounterVec
	TransportFailures prometheus.Counter
	ActiveRuns        prometheus.Gauge
}

// NewRegistry creates and registers all grading metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		CasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenagent_cases_total",
				Help: "Graded cases by dataset family and result",
			},
			[]string{"dataset", "result"},
		),
		CaseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "greenagent_case_duration_seconds",
				Help:    "End-to-end duration of one case, candidate call included",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		FailureReasons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greenagent_failure_reasons_total",
				Help: "Case failure reasons by code",
			},
			[]string{"code"},
		),
		TransportFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "greenagent_transport_failures_total",
				Help: "Candidate calls that failed or timed out",
			},
		),
		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "greenagent_active_runs",
				Help: "Assessment runs currently in flight",
			},
		),
	}

	r.registry.MustRegister(
		r.CasesTotal,
		r.CaseDuration,
		r.FailureReasons,
		r.TransportFailures,
		r.ActiveRuns,
	)
	return r
}

// Handler exposes the registry for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
