// Package metrics provides Prometheus metrics for the scorecard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are in milliseconds.
var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the scorecard service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Scoring
	computations        *prometheus.CounterVec
	computationLatency  prometheus.Histogram
	usersScored         prometheus.Gauge
	tasksNormalized     *prometheus.CounterVec
	recordsSkipped      *prometheus.GaugeVec
	trendPeriodsPlanned prometheus.Histogram

	// Snapshot
	snapshotReloads        prometheus.Counter
	snapshotReloadFailures prometheus.Counter
	snapshotReloadLatency  prometheus.Histogram
	snapshotLoadedUnix     prometheus.Gauge
	snapshotRecords        *prometheus.GaugeVec
	refreshQueueSize       prometheus.Gauge
	refreshRejected        prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

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
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "scorecard",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBuckets,
		enabled:        true,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the optional metric prefix.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.computations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("computations_total"),
		Help:        "Total number of scorecard computations by filter mode",
		ConstLabels: labels,
	}, []string{"filter"})

	m.computationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("computation_latency_milliseconds"),
		Help:        "Wall time of one full scorecard computation in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.usersScored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("users_scored"),
		Help:        "Number of users in the last computed scorecard",
		ConstLabels: labels,
	})

	m.tasksNormalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("tasks_normalized_total"),
		Help:        "Normalized tasks produced by source kind",
		ConstLabels: labels,
	}, []string{"source"})

	m.recordsSkipped = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("records_skipped"),
		Help:        "Raw records or step instances in the current snapshot that normalization skips, by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.trendPeriodsPlanned = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("trend_periods"),
		Help:        "Number of trend buckets planned per computation",
		Buckets:     []float64{1, 2, 4, 7, 12, 24, 52},
		ConstLabels: labels,
	})

	m.snapshotReloads = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("reloads_total"),
		Help:        "Successful snapshot reloads",
		ConstLabels: labels,
	})

	m.snapshotReloadFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("reload_failures_total"),
		Help:        "Failed snapshot reloads",
		ConstLabels: labels,
	})

	m.snapshotReloadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("reload_latency_milliseconds"),
		Help:        "Time to fetch a full snapshot from the source in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	})

	m.snapshotLoadedUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("loaded_unixtime"),
		Help:        "Unix time of the last successful snapshot load",
		ConstLabels: labels,
	})

	m.snapshotRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("records"),
		Help:        "Records in the current snapshot by collection",
		ConstLabels: labels,
	}, []string{"collection"})

	m.refreshQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("refresh_queue_size"),
		Help:        "Pending refresh requests",
		ConstLabels: labels,
	})

	m.refreshRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "snapshot",
		Name:        m.name("refresh_rejected_total"),
		Help:        "Refresh requests rejected because the queue was full",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("errors_by_endpoint_total"),
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("errors_by_type_total"),
		Help:        "HTTP errors by type and severity",
		ConstLabels: labels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// RecordComputation counts one scorecard computation and its latency.
func RecordComputation(filter string, latencyMs float64, users, periods int) {
	if !globalManager.enabled {
		return
	}
	globalManager.computations.WithLabelValues(filter).Inc()
	globalManager.computationLatency.Observe(latencyMs)
	globalManager.usersScored.Set(float64(users))
	globalManager.trendPeriodsPlanned.Observe(float64(periods))
}

// AddTasksNormalized adds n normalized tasks for a source kind.
func AddTasksNormalized(source string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.tasksNormalized.WithLabelValues(source).Add(float64(n))
}

// SetRecordsSkipped replaces the skipped-record gauges with counts from the
// current snapshot. Reasons absent from counts drop out.
func SetRecordsSkipped(counts map[string]int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recordsSkipped.Reset()
	for reason, n := range counts {
		globalManager.recordsSkipped.WithLabelValues(reason).Set(float64(n))
	}
}

// RecordSnapshotReload records a successful reload and its latency.
func RecordSnapshotReload(latencyMs float64, loadedAt time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotReloads.Inc()
	globalManager.snapshotReloadLatency.Observe(latencyMs)
	globalManager.snapshotLoadedUnix.Set(float64(loadedAt.Unix()))
}

// RecordSnapshotReloadFailure increments the failed reload counter.
func RecordSnapshotReloadFailure() {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotReloadFailures.Inc()
}

// UpdateSnapshotRecords sets the record count of one snapshot collection.
func UpdateSnapshotRecords(collection string, count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotRecords.WithLabelValues(collection).Set(float64(count))
}

// UpdateRefreshQueueSize sets the number of pending refresh requests.
func UpdateRefreshQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshQueueSize.Set(float64(size))
}

// RecordRefreshRejected increments the rejected refresh counter.
func RecordRefreshRejected() {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshRejected.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
