// Package metrics defines the Prometheus collectors for the batch
// pipeline and exposes an HTTP handler for scraping them during a run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bibassitoula/Impatient/engine"
)

// Metrics holds all collectors for the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	RecordsReadTotal    prometheus.Counter
	RecordsDroppedTotal *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	StageFailuresTotal  *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RecordsReadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tfidf_records_read_total",
			Help: "Total token records read from the source.",
		}),
		RecordsDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfidf_records_dropped_total",
			Help: "Total records dropped, by reason (malformed, join_mismatch).",
		}, []string{"reason"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tfidf_stage_duration_seconds",
			Help:    "Wall time per dataflow stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		StageFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfidf_stage_failures_total",
			Help: "Failed stage attempts, by stage.",
		}, []string{"stage"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfidf_runs_total",
			Help: "Completed runs, by status (ok, error).",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.RecordsReadTotal,
		m.RecordsDroppedTotal,
		m.StageDuration,
		m.StageFailuresTotal,
		m.RunsTotal,
	)
	return m
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StageStarted implements engine.StageObserver.
func (m *Metrics) StageStarted(engine.NodeID) {}

// StageFinished implements engine.StageObserver.
func (m *Metrics) StageFinished(id engine.NodeID, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(string(id)).Observe(d.Seconds())
	if err != nil {
		m.StageFailuresTotal.WithLabelValues(string(id)).Inc()
	}
}
