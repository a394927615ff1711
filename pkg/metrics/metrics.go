// Package metrics holds the Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors of one private registry.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Registry owns the collectors and backs the /metrics endpoint.
	Registry *prometheus.Registry

	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	messages         *prometheus.CounterVec
	extractionMisses *prometheus.CounterVec
	ledgerRows       prometheus.Gauge
}

// New creates a registry and registers all collectors in it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grabledger_runs_total",
				Help: "Total pipeline runs by outcome.",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "grabledger_run_duration_seconds",
				Help:    "Duration of pipeline runs.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grabledger_messages_read_total",
				Help: "Total receipt messages read by category.",
			},
			[]string{"category"},
		),
		extractionMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grabledger_extraction_misses_total",
				Help: "Total receipts whose amount could not be located.",
			},
			[]string{"category"},
		),
		ledgerRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "grabledger_ledger_rows",
				Help: "Number of daily rows produced by the last successful run.",
			},
		),
	}
}

// RecordRun records the outcome and duration of one run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// IncrMessage counts one message read for category.
func (m *Metrics) IncrMessage(category string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(category).Inc()
}

// IncrExtractionMiss counts one receipt with no extractable amount.
func (m *Metrics) IncrExtractionMiss(category string) {
	if m == nil {
		return
	}
	m.extractionMisses.WithLabelValues(category).Inc()
}

// SetLedgerRows records the size of the last ledger.
func (m *Metrics) SetLedgerRows(n int) {
	if m == nil {
		return
	}
	m.ledgerRows.Set(float64(n))
}
