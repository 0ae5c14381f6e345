package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values used by the recorders.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Manager owns every Prometheus collector of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Data Manager
	rowsLoaded  *prometheus.CounterVec
	loadErrors  *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec

	// Wrangler
	rowsExcluded  *prometheus.CounterVec
	malformedSpin prometheus.Counter

	// Load cache
	cacheRequests *prometheus.CounterVec

	// Renders
	renderDuration *prometheus.HistogramVec
	renderEmpty    *prometheus.CounterVec

	// HTTP feed
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager and its registry. Call it at startup,
// before the registry is handed to an HTTP handler.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bab",
		subsystem:        "analysis",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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

	m.rowsLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_loaded_total",
		Help:      "Rows read from the sensor databases by table",
	}, []string{"table"})

	m.loadErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "load_errors_total",
		Help:      "Failed loads by table and error kind",
	}, []string{"table", "kind"})

	m.loadLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "load_latency_milliseconds",
		Help:      "Latency of uncached table loads in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"table"})

	m.rowsExcluded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_excluded_total",
		Help:      "Shots removed during wrangling by reason",
	}, []string{"reason"})

	m.malformedSpin = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_spin_total",
		Help:      "Sessions whose spin statistics could not be parsed",
	})

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_requests_total",
		Help:      "Load cache lookups by table and result",
	}, []string{"table", "result"})

	m.renderDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_duration_milliseconds",
		Help:      "Time to build the chart specifications of a view",
		Buckets:   m.histogramBuckets,
	}, []string{"view"})

	m.renderEmpty = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_empty_total",
		Help:      "Renders that produced an empty result",
	}, []string{"view"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRowsLoaded adds n rows read from table.
func RecordRowsLoaded(table string, n int) {
	globalManager.rowsLoaded.WithLabelValues(table).Add(float64(n))
}

// RecordLoadError counts a failed load.
func RecordLoadError(table, kind string) {
	globalManager.loadErrors.WithLabelValues(table, kind).Inc()
}

// RecordLoadLatency records the latency of one uncached load.
func RecordLoadLatency(table string, latencyMs float64) {
	globalManager.loadLatency.WithLabelValues(table).Observe(latencyMs)
}

// RecordRowsExcluded adds n shots excluded for reason.
func RecordRowsExcluded(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsExcluded.WithLabelValues(reason).Add(float64(n))
}

// RecordMalformedSpin adds n sessions with unparseable spin statistics.
func RecordMalformedSpin(n int) {
	if n <= 0 {
		return
	}
	globalManager.malformedSpin.Add(float64(n))
}

// RecordCacheRequest counts a cache lookup; result is CacheHit or CacheMiss.
func RecordCacheRequest(table, result string) {
	globalManager.cacheRequests.WithLabelValues(table, result).Inc()
}

// RecordRenderDuration records how long a view took to build.
func RecordRenderDuration(view string, durationMs float64) {
	globalManager.renderDuration.WithLabelValues(view).Observe(durationMs)
}

// RecordRenderEmpty counts a render with no data.
func RecordRenderEmpty(view string) {
	globalManager.renderEmpty.WithLabelValues(view).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
