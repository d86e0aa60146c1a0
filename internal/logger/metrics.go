package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "ultra_entrants"

// Metrics tracks operational metrics including counters, gauges, and timings.
// All operations are thread-safe.
//
// Metrics live under the ultra_entrants namespace. Characters outside
// [A-Za-z0-9_] are replaced by underscores, counters get a _total suffix and
// timings are histograms in seconds.
type Metrics struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	timings  map[string]prometheus.Histogram
}

var defaultMetrics *Metrics

func init() {
	defaultMetrics = NewMetrics()
}

// NewMetrics creates a new metrics tracker backed by its own registry.
func NewMetrics() *Metrics {
	return &Metrics{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
		timings:  make(map[string]prometheus.Histogram),
	}
}

// metricName converts a dotted name into a valid Prometheus metric name
func metricName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// IncrCounter increments a counter by 1. If the counter doesn't exist, it is initialized to 1.
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      metricName(name) + "_total",
			Help:      fmt.Sprintf("Counter %s", name),
		})
		if err := m.registry.Register(c); err != nil {
			return
		}
		m.counters[name] = c
	}
	c.Inc()
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      metricName(name),
			Help:      fmt.Sprintf("Gauge %s", name),
		})
		if err := m.registry.Register(g); err != nil {
			return
		}
		m.gauges[name] = g
	}
	g.Set(value)
}

// RecordTiming records a duration measurement.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.timings[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      metricName(name) + "_seconds",
			Help:      fmt.Sprintf("Timing %s", name),
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		})
		if err := m.registry.Register(h); err != nil {
			return
		}
		m.timings[name] = h
	}
	h.Observe(duration.Seconds())
}

// GetSnapshot returns a snapshot of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average)
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64)
	for name, c := range m.counters {
		var out dto.Metric
		if err := c.Write(&out); err == nil {
			counters[name] = int64(out.GetCounter().GetValue())
		}
	}

	gauges := make(map[string]float64)
	for name, g := range m.gauges {
		var out dto.Metric
		if err := g.Write(&out); err == nil {
			gauges[name] = out.GetGauge().GetValue()
		}
	}

	timings := make(map[string]map[string]interface{})
	for name, h := range m.timings {
		var out dto.Metric
		if err := h.Write(&out); err != nil {
			continue
		}
		hist := out.GetHistogram()
		count := hist.GetSampleCount()
		if count == 0 {
			continue
		}
		total := time.Duration(hist.GetSampleSum() * float64(time.Second))
		timings[name] = map[string]interface{}{
			"count":   count,
			"total":   total.String(),
			"average": (total / time.Duration(count)).String(),
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// WriteTextfile writes the registry in Prometheus text format, atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Package-level metrics functions using the default metrics tracker

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the default metrics tracker.
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of all metrics from the default tracker.
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}

// WriteMetricsTextfile dumps the default tracker to a textfile.
func WriteMetricsTextfile(path string) error {
	return defaultMetrics.WriteTextfile(path)
}
