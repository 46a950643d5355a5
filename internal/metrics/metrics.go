// Package metrics exposes Prometheus collectors for the import pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File outcome label values.
const (
	OutcomeImported  = "imported"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Metrics bundles the collectors the daemon registers and serves. A nil
// *Metrics is valid and records nothing, so tests can wire components
// without a registry.
type Metrics struct {
	registry *prometheus.Registry

	filesTotal  *prometheus.CounterVec
	jobsTotal   prometheus.Counter
	jobsRunning prometheus.Gauge
}

// New constructs a Metrics bundle with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mupacs_import_files_total",
			Help: "Files handled by import jobs, by outcome.",
		}, []string{"outcome"}),
		jobsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mupacs_import_jobs_total",
			Help: "Import jobs accepted by the registry.",
		}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mupacs_import_jobs_running",
			Help: "Import jobs currently executing.",
		}),
	}
	registry.MustRegister(m.filesTotal, m.jobsTotal, m.jobsRunning)
	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FileOutcome records one handled file by outcome label.
func (m *Metrics) FileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(outcome).Inc()
}

// JobAccepted records a newly registered import job.
func (m *Metrics) JobAccepted() {
	if m == nil {
		return
	}
	m.jobsTotal.Inc()
}

// JobStarted marks a job as executing.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsRunning.Inc()
}

// JobFinished marks a job as no longer executing.
func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.jobsRunning.Dec()
}
