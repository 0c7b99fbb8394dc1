// Package metrics provides Prometheus metrics for the bout scoreboard.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoreboard.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	durationBuckets []float64
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Match Metrics - what happened on the mats
	matchesStarted  prometheus.Counter
	matchesFinished *prometheus.CounterVec
	matchDuration   prometheus.Histogram
	matchesActive   prometheus.Gauge
	scoreChanges    *prometheus.CounterVec
	configChanges   prometheus.Counter

	// Notification Metrics
	notificationsEmitted   *prometheus.CounterVec
	notificationsDropped   *prometheus.CounterVec
	notificationsDuplicate prometheus.Counter

	// Queue Metrics
	queueCapacity    prometheus.Gauge
	queueSize        prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Worker Metrics
	workerCount      prometheus.Gauge
	workerActive     prometheus.Gauge
	deliveryLatency  *prometheus.HistogramVec
	deliveryRetries  *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec

	// Store Metrics
	storeOperations *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
}

// The global manager and the registry it writes to. Configure swaps both.
var (
	globalManager  atomic.Pointer[Manager]             //nolint:gochecknoglobals // singleton metrics manager
	customRegistry atomic.Pointer[prometheus.Registry] //nolint:gochecknoglobals // registry without default Go metrics
)

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup before anything is recorded; values
// recorded earlier are discarded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	m := NewManager(append([]Option{WithPrometheusRegistry(registry)}, opts...)...)
	customRegistry.Store(registry)
	globalManager.Store(m)
}

func manager() *Manager { return globalManager.Load() }

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "bout",
		subsystem:       "scoreboard",
		latencyBuckets:  []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		durationBuckets: prometheus.LinearBuckets(30, 30, 10),
		constLabels:     map[string]string{},
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Match Metrics
	m.matchesStarted = auto.NewCounter(
		m.counterOpts("matches_started_total", "Total number of successful match clock starts"),
	)
	m.matchesFinished = auto.NewCounterVec(
		m.counterOpts("matches_finished_total", "Total number of finished matches by reason and winner"),
		[]string{"reason", "winner"},
	)
	m.matchDuration = auto.NewHistogram(
		m.histogramOpts("match_duration_seconds", "Elapsed match time at finish in seconds",
			m.durationBuckets),
	)
	m.matchesActive = auto.NewGauge(
		m.gaugeOpts("matches_active", "Number of open match sessions"),
	)
	m.scoreChanges = auto.NewCounterVec(
		m.counterOpts("score_changes_total", "Counted changes by kind, competitor and direction"),
		[]string{"kind", "competitor", "direction"},
	)
	m.configChanges = auto.NewCounter(
		m.counterOpts("config_changes_total", "Total number of persisted match config changes"),
	)

	// Notification Metrics
	m.notificationsEmitted = auto.NewCounterVec(
		m.counterOpts("notifications_emitted_total", "Total number of notifications accepted for delivery"),
		[]string{"kind"},
	)
	m.notificationsDropped = auto.NewCounterVec(
		m.counterOpts("notifications_dropped_total", "Total number of notifications dropped before delivery"),
		[]string{"reason"},
	)
	m.notificationsDuplicate = auto.NewCounter(
		m.counterOpts("notifications_duplicate_total", "Total number of duplicate notifications skipped"),
	)

	// Queue Metrics
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the notification queue"))
	m.queueUtilization = auto.NewGauge(
		m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"),
	)
	m.queueEnqueue = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of notifications enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of notifications dequeued"))
	m.queueEnqueueErrs = auto.NewCounter(
		m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"),
	)

	// Worker Metrics
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of delivery workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers delivering right now"))
	m.deliveryLatency = auto.NewHistogramVec(
		m.histogramOpts("delivery_latency_milliseconds", "Sink delivery latency in milliseconds",
			m.latencyBuckets),
		[]string{"sink"},
	)
	m.deliveryRetries = auto.NewCounterVec(
		m.counterOpts("delivery_retries_total", "Total number of delayed delivery retries"),
		[]string{"sink"},
	)
	m.deliveryFailures = auto.NewCounterVec(
		m.counterOpts("delivery_failures_total", "Total number of deliveries that failed after the retry"),
		[]string{"sink"},
	)

	// Store Metrics
	m.storeOperations = auto.NewCounterVec(
		m.counterOpts("store_operations_total", "Config store operations by backend, operation and result"),
		[]string{"backend", "operation", "result"},
	)
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Config store operation latency in milliseconds",
			m.latencyBuckets),
		[]string{"backend", "operation"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
}

// Match Metrics Functions.

// RecordMatchStarted counts a clock start. Tables are named by operators, so
// they are not a label; a process can carry its table as a const label
// through Configure.
func RecordMatchStarted() {
	manager().matchesStarted.Inc()
}

// RecordMatchFinished counts a finished match and observes its elapsed time.
func RecordMatchFinished(reason, winner string, elapsedSeconds float64) {
	manager().matchesFinished.WithLabelValues(reason, winner).Inc()
	manager().matchDuration.Observe(elapsedSeconds)
}

// UpdateMatchesActive sets the number of open matches.
func UpdateMatchesActive(count int) {
	manager().matchesActive.Set(float64(count))
}

// RecordScoreChange counts a point, foul or exit change. direction is "up"
// or "down".
func RecordScoreChange(kind, competitor, direction string) {
	manager().scoreChanges.WithLabelValues(kind, competitor, direction).Inc()
}

// RecordConfigChange counts a persisted config change.
func RecordConfigChange() {
	manager().configChanges.Inc()
}

// Notification Metrics Functions.

// RecordNotificationEmitted counts a notification accepted by the queue.
func RecordNotificationEmitted(kind string) {
	manager().notificationsEmitted.WithLabelValues(kind).Inc()
}

// RecordNotificationDropped counts a notification that never reached a sink.
func RecordNotificationDropped(reason string) {
	manager().notificationsDropped.WithLabelValues(reason).Inc()
}

// RecordNotificationDuplicate counts a skipped duplicate.
func RecordNotificationDuplicate() {
	manager().notificationsDuplicate.Inc()
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	manager().queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	manager().queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	manager().queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	manager().queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	manager().queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	manager().queueEnqueueErrs.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	manager().workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of workers mid-delivery.
func UpdateWorkerActiveCount(count int) {
	manager().workerActive.Set(float64(count))
}

// RecordDeliveryLatency records the latency of one sink delivery.
func RecordDeliveryLatency(sink string, latencyMs float64) {
	manager().deliveryLatency.WithLabelValues(sink).Observe(latencyMs)
}

// RecordDeliveryRetry counts a delayed retry.
func RecordDeliveryRetry(sink string) {
	manager().deliveryRetries.WithLabelValues(sink).Inc()
}

// RecordDeliveryFailure counts a delivery given up after the retry.
func RecordDeliveryFailure(sink string) {
	manager().deliveryFailures.WithLabelValues(sink).Inc()
}

// Store Metrics Functions.

// RecordStoreOperation counts a store call and observes its latency.
func RecordStoreOperation(backend, operation, result string, latencyMs float64) {
	manager().storeOperations.WithLabelValues(backend, operation, result).Inc()
	manager().storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	manager().errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry.Load()
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("%w: %w", ErrTextfileWrite, err)
	}
	return nil
}
