// Package metrics provides Prometheus metrics for the scoreboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second

	// Latency histograms observe milliseconds: 0.5ms doubling up to ~4s.
	latencyBucketStart  = 0.5
	latencyBucketFactor = 2
	latencyBucketCount  = 14
)

// Manager manages all Prometheus metrics for the scoreboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Submission flow
	submissions     *prometheus.CounterVec
	remoteFailures  *prometheus.CounterVec
	localWrites     prometheus.Counter
	leaderboardRead *prometheus.CounterVec
	storedRecords   *prometheus.GaugeVec

	// Store latency
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rbd",
		subsystem:        "scoreboard",
		histogramBuckets: prometheus.ExponentialBuckets(latencyBucketStart, latencyBucketFactor, latencyBucketCount),
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("submissions_total"),
		Help:        "Score sheet submissions by storage outcome (remote, local, skipped, failed)",
		ConstLabels: labels,
	}, []string{"status"})

	m.remoteFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("remote_failures_total"),
		Help:        "Remote store operations that failed and triggered the local fallback",
		ConstLabels: labels,
	}, []string{"op"})

	m.localWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("local_writes_total"),
		Help:        "Records appended to the local fallback store",
		ConstLabels: labels,
	})

	m.leaderboardRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("leaderboard_loads_total"),
		Help:        "Leaderboard loads by the store that supplied the records",
		ConstLabels: labels,
	}, []string{"source"})

	m.storedRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stored_records"),
		Help:        "Named records seen on the last leaderboard load",
		ConstLabels: labels,
	}, []string{"source"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("store_latency_milliseconds"),
		Help:        "Store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"backend", "op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_type_total"),
		Help:        "Errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "Errors by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// RefreshInterval reports how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordSubmission counts a submission by its storage status.
func (m *Manager) RecordSubmission(status string) {
	if m.enabled {
		m.submissions.WithLabelValues(status).Inc()
	}
}

// RecordRemoteFailure counts a failed remote operation.
func (m *Manager) RecordRemoteFailure(op string) {
	if m.enabled {
		m.remoteFailures.WithLabelValues(op).Inc()
	}
}

// RecordLocalWrite counts an append to the local fallback store.
func (m *Manager) RecordLocalWrite() {
	if m.enabled {
		m.localWrites.Inc()
	}
}

// RecordLeaderboardLoad counts a leaderboard load and the number of records it used.
func (m *Manager) RecordLeaderboardLoad(source string, records int) {
	if m.enabled {
		m.leaderboardRead.WithLabelValues(source).Inc()
		m.storedRecords.WithLabelValues(source).Set(float64(records))
	}
}

// RecordStoreLatency records a store operation latency in milliseconds.
func (m *Manager) RecordStoreLatency(backend, op string, latencyMs float64) {
	if m.enabled {
		m.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
	}
}

// Package-level helpers delegate to the global manager.

// RecordSubmission counts a submission by its storage status.
func RecordSubmission(status string) { globalManager.RecordSubmission(status) }

// RecordRemoteFailure counts a failed remote operation.
func RecordRemoteFailure(op string) { globalManager.RecordRemoteFailure(op) }

// RecordLocalWrite counts an append to the local fallback store.
func RecordLocalWrite() { globalManager.RecordLocalWrite() }

// RecordLeaderboardLoad counts a leaderboard load.
func RecordLeaderboardLoad(source string, records int) {
	globalManager.RecordLeaderboardLoad(source, records)
}

// RecordStoreLatency records store latency in milliseconds.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.RecordStoreLatency(backend, op, latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByType increments error rate by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint increments error rate by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage updates the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records the average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any handler captures GetRegistry.
func Configure(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	return globalManager
}

// GetRegistry returns the custom registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Default returns the global manager.
func Default() *Manager {
	return globalManager
}
