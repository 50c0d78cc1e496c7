// Package metrics provides Prometheus metrics for the trade value service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Trade verdict labels, mirroring trade.Status.
var verdicts = []string{"incomplete", "fair", "unfavors"} //nolint:gochecknoglobals // fixed label set

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Vote rounds
	roundsAccepted  prometheus.Counter
	roundsDuplicate prometheus.Counter
	roundsApplied   prometheus.Counter
	roundsFailed    prometheus.Counter
	roundLatency    prometheus.Histogram
	valueUpdates    prometheus.Counter
	valueDelta      prometheus.Histogram
	playersTotal    prometheus.Gauge

	// Trades
	tradeEvaluations *prometheus.CounterVec
	tradeSubmissions prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Store and snapshots
	storeLatency     *prometheus.HistogramVec
	snapshotsTaken   prometheus.Counter
	snapshotLastUnix prometheus.Gauge
	snapshotDuration prometheus.Histogram

	// Events
	eventsPublished     *prometheus.CounterVec
	eventPublishFailure *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tradevalue",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.roundsAccepted = m.counter("rounds_accepted_total", "Vote rounds accepted onto the queue")
	m.roundsDuplicate = m.counter("rounds_duplicate_total", "Vote rounds rejected as retries of an accepted round")
	m.roundsApplied = m.counter("rounds_applied_total", "Vote rounds applied to the store")
	m.roundsFailed = m.counter("rounds_failed_total", "Vote rounds that failed validation or storage")
	m.roundLatency = m.histogram("round_latency_milliseconds", "Time from dequeue to applied round", m.histogramBuckets)
	m.valueUpdates = m.counter("value_updates_total", "Player values written by vote rounds")
	m.valueDelta = m.histogram("value_delta_points", "Absolute value change per update",
		[]float64{0, 1, 2, 4, 8, 12, 16, 20, 24, 28, 32})
	m.playersTotal = m.gauge("players_total", "Players in the store")

	m.tradeEvaluations = m.counterVec("trade_evaluations_total", "Trade evaluations by verdict", "verdict")
	m.tradeSubmissions = m.counter("trade_submissions_total", "Trade submissions recorded")

	m.queueSize = m.gauge("queue_size", "Vote rounds waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size over capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Vote rounds enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Vote rounds dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts refused")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency", "op")
	m.snapshotsTaken = m.counter("snapshots_total", "Value snapshots saved")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time of the last saved snapshot")
	m.snapshotDuration = m.histogram("snapshot_duration_milliseconds", "Snapshot save duration", m.histogramBuckets)

	m.eventsPublished = m.counterVec("events_published_total", "Domain events published", "subject")
	m.eventPublishFailure = m.counterVec("events_publish_errors_total", "Domain events that failed to publish", "subject")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		"endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})

	for _, v := range verdicts {
		m.tradeEvaluations.WithLabelValues(v)
	}
}

// RecordRoundAccepted counts a round accepted onto the queue.
func RecordRoundAccepted() { globalManager.roundsAccepted.Inc() }

// RecordRoundDuplicate counts a retried round.
func RecordRoundDuplicate() { globalManager.roundsDuplicate.Inc() }

// RecordRoundApplied counts an applied round and its latency.
func RecordRoundApplied(latencyMs float64) {
	globalManager.roundsApplied.Inc()
	globalManager.roundLatency.Observe(latencyMs)
}

// RecordRoundFailed counts a failed round.
func RecordRoundFailed() { globalManager.roundsFailed.Inc() }

// RecordValueUpdate counts a written value and the size of its change.
func RecordValueUpdate(delta int) {
	if delta < 0 {
		delta = -delta
	}
	globalManager.valueUpdates.Inc()
	globalManager.valueDelta.Observe(float64(delta))
}

// UpdatePlayersTotal sets the number of players in the store.
func UpdatePlayersTotal(n int) { globalManager.playersTotal.Set(float64(n)) }

// RecordTradeEvaluation counts an evaluation by verdict.
func RecordTradeEvaluation(verdict string) error {
	for _, v := range verdicts {
		if v == verdict {
			globalManager.tradeEvaluations.WithLabelValues(verdict).Inc()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownVerdict, verdict)
}

// RecordTradeSubmission counts a recorded submission.
func RecordTradeSubmission() { globalManager.tradeSubmissions.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// ObserveStore records the latency of store operation op started at start.
func ObserveStore(op string, start time.Time) {
	globalManager.storeLatency.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// RecordSnapshot counts a saved snapshot.
func RecordSnapshot(durationMs float64, at time.Time) {
	globalManager.snapshotsTaken.Inc()
	globalManager.snapshotDuration.Observe(durationMs)
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
}

// RecordEventPublished counts a published event.
func RecordEventPublished(subject string) { globalManager.eventsPublished.WithLabelValues(subject).Inc() }

// RecordEventPublishError counts a failed publish.
func RecordEventPublishError(subject string) {
	globalManager.eventPublishFailure.WithLabelValues(subject).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
