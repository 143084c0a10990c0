// Package metrics provides Prometheus metrics for the EJI dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the dashboard's collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	datasetLoads        *prometheus.CounterVec
	datasetLoadDuration *prometheus.HistogramVec
	datasetCache        *prometheus.CounterVec
	downloads           *prometheus.CounterVec

	viewsRendered *prometheus.CounterVec
	noticesShown  *prometheus.CounterVec
}

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry()

var globalManager = NewManager(WithPrometheusRegistry(customRegistry))

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom buckets for the duration histograms.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets the registry collectors are registered on.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eji",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.datasetLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_loads_total",
		Help:      "Year dataset loads by outcome",
	}, []string{"year", "outcome"})

	m.datasetLoadDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_load_duration_milliseconds",
		Help:      "Time to download and ingest one year of data",
		Buckets:   m.histogramBuckets,
	}, []string{"year"})

	m.datasetCache = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_cache_total",
		Help:      "Memoized dataset lookups by result (hit or miss)",
	}, []string{"result"})

	m.downloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "downloads_total",
		Help:      "Source CSV downloads by year and outcome",
	}, []string{"year", "outcome"})

	m.viewsRendered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "views_rendered_total",
		Help:      "Dashboard views rendered by kind and surface",
	}, []string{"kind", "surface"})

	m.noticesShown = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "no_data_notices_total",
		Help:      "Selections that matched no row, by kind",
	}, []string{"kind"})
}

// RecordHTTPRequest counts one request.
func RecordHTTPRequest(route, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(route, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one request's latency.
func RecordHTTPRequestDuration(route, method string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(route, method).Observe(durationMs)
}

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RecordDatasetLoad counts a load of one year and its duration.
func RecordDatasetLoad(year, outcome string, durationMs float64) {
	globalManager.datasetLoads.WithLabelValues(year, outcome).Inc()
	if outcome == OutcomeSuccess {
		globalManager.datasetLoadDuration.WithLabelValues(year).Observe(durationMs)
	}
}

// RecordCacheHit counts a memoized dataset lookup.
func RecordCacheHit() {
	globalManager.datasetCache.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a lookup that had to load.
func RecordCacheMiss() {
	globalManager.datasetCache.WithLabelValues("miss").Inc()
}

// RecordDownload counts one CSV download.
func RecordDownload(year, outcome string) {
	globalManager.downloads.WithLabelValues(year, outcome).Inc()
}

// RecordView counts a rendered view. kind is single or comparison; surface
// is web, api, tui or cli.
func RecordView(kind, surface string) {
	globalManager.viewsRendered.WithLabelValues(kind, surface).Inc()
}

// RecordNotice counts a selection that produced a no-data notice.
func RecordNotice(kind string) {
	globalManager.noticesShown.WithLabelValues(kind).Inc()
}

// GetRegistry returns the registry the global collectors live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
