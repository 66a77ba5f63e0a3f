// Package metrics provides Prometheus metrics for the arcboard leaderboard engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ledger read path
	ledgerQueries      *prometheus.CounterVec
	ledgerQueryErrors  *prometheus.CounterVec
	ledgerQueryLatency prometheus.Histogram

	// Request cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Refresh scheduler
	refreshPasses       prometheus.Counter
	refreshDropped      prometheus.Counter
	refreshPassDuration prometheus.Histogram
	refreshLastUnix     prometheus.Gauge

	// Submission pipeline
	submissionsAccepted prometheus.Counter
	submissionsRejected prometheus.Counter
	submissionsInvalid  prometheus.Counter
	submissionLatency   prometheus.Histogram

	// Board scale
	trackedPlayers prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "arcboard",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ledgerQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ledger_queries_total",
			Help:      "Total number of ledger read queries by action",
		},
		[]string{"action"},
	)

	m.ledgerQueryErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "ledger_query_errors_total",
			Help:      "Total number of failed ledger read queries by action",
		},
		[]string{"action"},
	)

	m.ledgerQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_query_latency_milliseconds",
		Help:      "Histogram of ledger round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of request cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of request cache misses",
	})

	m.refreshPasses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_passes_total",
		Help:      "Total number of completed refresh passes",
	})

	m.refreshDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_dropped_total",
		Help:      "Total number of refresh passes discarded by the epoch guard",
	})

	m.refreshPassDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_pass_duration_milliseconds",
		Help:      "Refresh pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.refreshLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_last_unix",
		Help:      "Unix timestamp of the last applied refresh snapshot",
	})

	m.submissionsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Total number of score submissions accepted by the ledger",
	})

	m.submissionsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_rejected_total",
		Help:      "Total number of score submissions rejected by the signer or ledger",
	})

	m.submissionsInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_invalid_total",
		Help:      "Total number of score submissions failing client-side validation",
	})

	m.submissionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submission_latency_milliseconds",
		Help:      "Signer dispatch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trackedPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_players",
		Help:      "Number of distinct players in the last applied snapshot",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordLedgerQuery increments the query counter for one ledger action.
func RecordLedgerQuery(action string) {
	globalManager.ledgerQueries.WithLabelValues(action).Inc()
}

// RecordLedgerQueryError increments the error counter for one ledger action.
func RecordLedgerQueryError(action string) {
	globalManager.ledgerQueryErrors.WithLabelValues(action).Inc()
}

// RecordLedgerQueryLatency records one ledger round-trip duration.
func RecordLedgerQueryLatency(latencyMs float64) {
	globalManager.ledgerQueryLatency.Observe(latencyMs)
}

// RecordCacheHit records a read served from cache.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss records a read that fell through to the ledger.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordRefreshPass increments the completed-pass counter.
func RecordRefreshPass() {
	globalManager.refreshPasses.Inc()
}

// RecordRefreshDropped increments the dropped-pass counter.
func RecordRefreshDropped() {
	globalManager.refreshDropped.Inc()
}

// RecordRefreshPassDuration records how long one pass took to settle.
func RecordRefreshPassDuration(durationMs float64) {
	globalManager.refreshPassDuration.Observe(durationMs)
}

// UpdateRefreshLastUnix records when the last snapshot was applied.
func UpdateRefreshLastUnix(unix int64) {
	globalManager.refreshLastUnix.Set(float64(unix))
}

// RecordSubmissionAccepted increments the accepted-submission counter.
func RecordSubmissionAccepted() {
	globalManager.submissionsAccepted.Inc()
}

// RecordSubmissionRejected increments the rejected-submission counter.
func RecordSubmissionRejected() {
	globalManager.submissionsRejected.Inc()
}

// RecordSubmissionInvalid increments the invalid-submission counter.
func RecordSubmissionInvalid() {
	globalManager.submissionsInvalid.Inc()
}

// RecordSubmissionLatency records one signer dispatch duration.
func RecordSubmissionLatency(latencyMs float64) {
	globalManager.submissionLatency.Observe(latencyMs)
}

// UpdateTrackedPlayers updates the distinct-player gauge.
func UpdateTrackedPlayers(count int) {
	globalManager.trackedPlayers.Set(float64(count))
}

// RecordHTTPRequest records one handled HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
