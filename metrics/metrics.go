// Package metrics provides Prometheus metrics for a pricing run.
//
// A run is a short-lived batch job, so nothing is served over HTTP; the
// registry is written once to a node_exporter textfile when the run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the loader/engine/CLI report into. A nil *Manager is a
// valid no-op Recorder.
type Recorder interface {
	RecordsLoaded(n int)
	ParseErrors(n int)
	BondPriced(d time.Duration)
	ValuationFailed(reason string)
}

// Manager owns a private registry and the run's collectors.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	recordsLoaded     prometheus.Counter
	parseErrors       prometheus.Counter
	bondsPriced       prometheus.Counter
	valuationErrors   *prometheus.CounterVec
	valuationDuration prometheus.Histogram
	lastRunUnix       prometheus.Gauge
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// NewManager creates a manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "bondval",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.recordsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "records_loaded_total",
		Help:      "Bond records parsed from the input file.",
	})
	m.parseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "parse_errors_total",
		Help:      "Input lines rejected by the loader.",
	})
	m.bondsPriced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "bonds_priced_total",
		Help:      "Bonds valued successfully.",
	})
	m.valuationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "valuation_errors_total",
		Help:      "Bonds that could not be valued, by reason.",
	}, []string{"reason"})
	m.valuationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "valuation_duration_seconds",
		Help:      "Time spent valuing one bond.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
	m.lastRunUnix = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the metrics file was written.",
	})

	m.registry.MustRegister(
		m.recordsLoaded,
		m.parseErrors,
		m.bondsPriced,
		m.valuationErrors,
		m.valuationDuration,
		m.lastRunUnix,
	)
	return m
}

// Registry exposes the underlying registry (tests, custom exporters).
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) RecordsLoaded(n int) {
	if m == nil {
		return
	}
	m.recordsLoaded.Add(float64(n))
}

func (m *Manager) ParseErrors(n int) {
	if m == nil {
		return
	}
	m.parseErrors.Add(float64(n))
}

func (m *Manager) BondPriced(d time.Duration) {
	if m == nil {
		return
	}
	m.bondsPriced.Inc()
	m.valuationDuration.Observe(d.Seconds())
}

func (m *Manager) ValuationFailed(reason string) {
	if m == nil {
		return
	}
	m.valuationErrors.WithLabelValues(reason).Inc()
}

// WriteTextfile stamps the run time and writes the registry in the text
// exposition format to path (atomically, via a temp file).
func (m *Manager) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	m.lastRunUnix.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
