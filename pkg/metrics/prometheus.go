// Package metrics provides Prometheus metrics for the hotlap leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the hotlap service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Business metrics
	submissions          *prometheus.CounterVec
	ghostUploads         prometheus.Counter
	integrityRejections  prometheus.Counter
	ghostBytesWritten    prometheus.Counter
	recordCount          prometheus.Gauge

	// Persistence metrics
	storeSaveLatency prometheus.Histogram
	storeQuarantines prometheus.Counter
	blobPutLatency   *prometheus.HistogramVec

	// HTTP metrics
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
		namespace:        "hotlap",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
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

	m.submissions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_total",
			Help:      "Total lap-time submissions by outcome (created, updated_best, ignored_slower)",
		},
		[]string{"outcome"},
	)

	m.ghostUploads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ghost_uploads_total",
		Help:      "Total ghost uploads accepted after integrity verification",
	})

	m.integrityRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "integrity_rejections_total",
		Help:      "Total ghost uploads rejected for a digest mismatch",
	})

	m.ghostBytesWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ghost_bytes_written_total",
		Help:      "Total verified ghost bytes written to the blob backend",
	})

	m.recordCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records",
		Help:      "Current number of leaderboard records in the store",
	})

	m.storeSaveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_save_latency_milliseconds",
		Help:      "Histogram of record store save latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQuarantines = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_quarantines_total",
		Help:      "Total corrupted record documents quarantined at load",
	})

	m.blobPutLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "blob_put_latency_milliseconds",
			Help:      "Blob write latency in milliseconds by backend",
			Buckets:   m.histogramBuckets,
		},
		[]string{"backend"},
	)

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

// Package-level helpers operating on the global manager.

// RecordSubmission increments the submission counter for an outcome.
func RecordSubmission(outcome string) {
	if globalManager.enabled {
		globalManager.submissions.WithLabelValues(outcome).Inc()
	}
}

// RecordGhostUpload increments the accepted ghost upload counter.
func RecordGhostUpload() {
	if globalManager.enabled {
		globalManager.ghostUploads.Inc()
	}
}

// RecordIntegrityRejection increments the digest mismatch counter.
func RecordIntegrityRejection() {
	if globalManager.enabled {
		globalManager.integrityRejections.Inc()
	}
}

// AddGhostBytes adds verified blob bytes to the write counter.
func AddGhostBytes(n int64) {
	if globalManager.enabled {
		globalManager.ghostBytesWritten.Add(float64(n))
	}
}

// UpdateRecordCount sets the current record count gauge.
func UpdateRecordCount(count int) {
	if globalManager.enabled {
		globalManager.recordCount.Set(float64(count))
	}
}

// RecordStoreSaveLatency observes a record store save duration.
func RecordStoreSaveLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeSaveLatency.Observe(latencyMs)
	}
}

// RecordStoreQuarantine increments the corrupted document counter.
func RecordStoreQuarantine() {
	if globalManager.enabled {
		globalManager.storeQuarantines.Inc()
	}
}

// RecordBlobPutLatency observes a blob write duration for a backend.
func RecordBlobPutLatency(backend string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.blobPutLatency.WithLabelValues(backend).Observe(latencyMs)
	}
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
