// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records collection outcomes on a private Prometheus
// registry. The CLI writes them to a textfile after a run; the HTTP server
// exposes them for scraping.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/intel-engine/pkg/types"
)

const namespace = "intel_engine"

// Metrics implements collect.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	items      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	lastRun    prometheus.Gauge
	records    *prometheus.GaugeVec
	alertLevel prometheus.Gauge
}

// New registers the engine's collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_total",
		Help:      "Items processed by collector and outcome",
	}, []string{"collector", "outcome"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collector_duration_seconds",
		Help:      "Time spent in one collector run",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"collector"})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed collection run",
	})
	m.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Records in the store by category",
	}, []string{"category"})
	m.alertLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "alert_level",
		Help:      "Current aggregate alert level (1 most severe, 5 least)",
	})

	m.registry.MustRegister(m.items, m.duration, m.lastRun, m.records, m.alertLevel)
	return m
}

// Item counts one item outcome.
func (m *Metrics) Item(collector, outcome string) {
	m.items.WithLabelValues(collector, outcome).Inc()
}

// Duration observes one collector run.
func (m *Metrics) Duration(collector string, d time.Duration) {
	m.duration.WithLabelValues(collector).Observe(d.Seconds())
}

// RunFinished stamps the end of a collection run.
func (m *Metrics) RunFinished(t time.Time) {
	m.lastRun.Set(float64(t.Unix()))
}

// SetCounts publishes per-category store counts. Categories missing from
// counts are reported as zero.
func (m *Metrics) SetCounts(counts map[types.Category]int) {
	for _, c := range types.AllCategories() {
		m.records.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}

// SetAlertLevel publishes the aggregate alert level.
func (m *Metrics) SetAlertLevel(level int) {
	m.alertLevel.Set(float64(level))
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteToTextfile writes the registry to path for a node exporter
// textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
