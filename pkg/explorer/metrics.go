package explorer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/terrascout/terrascout/internal/constants"
)

// MetricsCollector records query activity as Prometheus metrics. All methods
// are safe on a nil receiver so callers never need to check.
type MetricsCollector struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pages       *prometheus.CounterVec
	records     *prometheus.CounterVec
	pauses      *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

// NewMetricsCollector creates a collector and registers it with registry. If
// registry is nil a private registry is created.
func NewMetricsCollector(registry *prometheus.Registry) (*MetricsCollector, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &MetricsCollector{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "requests_total",
			Help:      "Page requests issued, by resource kind and HTTP status code.",
		}, []string{"kind", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Page request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "pages_total",
			Help:      "Pages decoded successfully.",
		}, []string{"kind"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "records_total",
			Help:      "Records aggregated from decoded pages.",
		}, []string{"kind"}),
		pauses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "rate_limit_pauses_total",
			Help:      "Pacing pauses inserted between pages.",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "rate_limited_total",
			Help:      "Requests rejected with HTTP 429.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.pages, m.records, m.pauses, m.rateLimited} {
		err := registry.Register(c)
		if err != nil {
			return nil, fmt.Errorf("registering explorer metrics: %w", err)
		}
	}

	return m, nil
}

// Registry returns the registry the collector is registered with.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

// ObserveRequest records one HTTP exchange. code is 0 for transport failures.
func (m *MetricsCollector) ObserveRequest(kind ResourceKind, code int, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(kind.String(), strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// ObservePage records a decoded page and its record count.
func (m *MetricsCollector) ObservePage(kind ResourceKind, records int) {
	if m == nil {
		return
	}

	m.pages.WithLabelValues(kind.String()).Inc()
	m.records.WithLabelValues(kind.String()).Add(float64(records))
}

// ObservePause records a pacing pause.
func (m *MetricsCollector) ObservePause(kind ResourceKind) {
	if m == nil {
		return
	}

	m.pauses.WithLabelValues(kind.String()).Inc()
}

// ObserveRateLimited records a 429 rejection.
func (m *MetricsCollector) ObserveRateLimited(kind ResourceKind) {
	if m == nil {
		return
	}

	m.rateLimited.WithLabelValues(kind.String()).Inc()
}
