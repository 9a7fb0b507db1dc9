// Package metrics provides Prometheus metrics for the highlight pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline
	segmentsSubmitted  prometheus.Counter
	segmentsDuplicate  prometheus.Counter
	segmentsFinished   *prometheus.CounterVec
	segmentLatency     prometheus.Histogram
	jobPollAttempts    *prometheus.CounterVec
	candidatesPerRun   prometheus.Histogram
	highlightsStored   prometheus.Counter
	storeBatchWrites   *prometheus.CounterVec
	storeRecords       *prometheus.GaugeVec
	enrichmentOutcomes *prometheus.CounterVec
	enrichmentLatency  *prometheus.HistogramVec

	// Clips
	clipTransitions *prometheus.CounterVec

	// Ranking
	rankingRequests *prometheus.CounterVec
	rankingLatency  prometheus.Histogram

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Resilience
	breakerState *prometheus.GaugeVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var (
	managerMu     sync.RWMutex
	globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager
	// customRegistry keeps the default Go collectors out of /metrics.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "highlights",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Use swaps the global manager; tests use it to isolate registries.
func Use(m *Manager) error {
	if m == nil {
		return ErrUnknownManager
	}
	managerMu.Lock()
	globalManager = m
	managerMu.Unlock()
	return nil
}

func current() *Manager {
	managerMu.RLock()
	defer managerMu.RUnlock()
	return globalManager
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.segmentsSubmitted = m.counter("segments_submitted_total", "Segments accepted for processing")
	m.segmentsDuplicate = m.counter("segments_duplicate_total", "Segment submissions rejected as already in flight")
	m.segmentsFinished = m.counterVec("segments_finished_total", "Segments that reached a terminal state", "status")
	m.segmentLatency = m.histogram("segment_duration_seconds", "End-to-end segment pipeline duration in seconds",
		[]float64{1, 5, 15, 30, 60, 120, 300, 600, 1200})
	m.jobPollAttempts = m.counterVec("job_poll_attempts_total", "Polls issued against external analysis jobs", "job")
	m.candidatesPerRun = m.histogram("candidates_per_segment", "Highlight candidates produced per clustering run",
		[]float64{0, 1, 2, 3, 5, 8, 13, 21, 34})
	m.highlightsStored = m.counter("highlights_stored_total", "Enriched highlights written to the store")
	m.storeBatchWrites = m.counterVec("store_batch_writes_total", "Store batch writes by result", "result")
	m.storeRecords = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "store_records",
		Help: "Records held by the store", ConstLabels: m.constLabels,
	}, []string{"backend"})
	m.enrichmentOutcomes = m.counterVec("enrichment_outcomes_total", "Per-highlight enrichment outcomes", "stage", "outcome")
	m.enrichmentLatency = m.histogramVec("enrichment_latency_seconds", "Enrichment collaborator call latency", "stage")

	m.clipTransitions = m.counterVec("clip_transitions_total", "Clip state transitions", "status")

	m.rankingRequests = m.counterVec("ranking_requests_total", "Personalized ranking requests by strategy", "strategy")
	m.rankingLatency = m.histogram("ranking_latency_seconds", "Personalized ranking latency", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Segments waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.workerCount = m.gauge("worker_count", "Active pipeline workers")
	m.workerErrors = m.counter("worker_errors_total", "Segments whose processing returned an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by route, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.breakerState = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)", ConstLabels: m.constLabels,
	}, []string{"name"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordSegmentSubmitted counts an accepted segment.
func RecordSegmentSubmitted() { current().segmentsSubmitted.Inc() }

// RecordSegmentDuplicate counts a rejected duplicate submission.
func RecordSegmentDuplicate() { current().segmentsDuplicate.Inc() }

// RecordSegmentFinished counts a terminal segment and its duration.
func RecordSegmentFinished(status string, seconds float64) {
	m := current()
	m.segmentsFinished.WithLabelValues(status).Inc()
	m.segmentLatency.Observe(seconds)
}

// RecordJobPoll counts one poll against an external job kind.
func RecordJobPoll(job string) { current().jobPollAttempts.WithLabelValues(job).Inc() }

// RecordCandidates observes the candidate count of a clustering run.
func RecordCandidates(n int) { current().candidatesPerRun.Observe(float64(n)) }

// RecordHighlightsStored adds to the stored highlights counter.
func RecordHighlightsStored(n int) { current().highlightsStored.Add(float64(n)) }

// RecordStoreBatch counts a batch write by result ("ok" or "error").
func RecordStoreBatch(result string) { current().storeBatchWrites.WithLabelValues(result).Inc() }

// UpdateStoreRecords sets the number of highlights held by a store backend.
func UpdateStoreRecords(backend string, count int) {
	current().storeRecords.WithLabelValues(backend).Set(float64(count))
}

// RecordEnrichment counts an enrichment outcome ("enhanced" or "fallback").
func RecordEnrichment(stage, outcome string) {
	current().enrichmentOutcomes.WithLabelValues(stage, outcome).Inc()
}

// RecordEnrichmentLatency observes a collaborator call duration.
func RecordEnrichmentLatency(stage string, seconds float64) {
	current().enrichmentLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordClipTransition counts a clip state change.
func RecordClipTransition(status string) { current().clipTransitions.WithLabelValues(status).Inc() }

// RecordRanking counts a ranking request served by strategy.
func RecordRanking(strategy string, seconds float64) {
	m := current()
	m.rankingRequests.WithLabelValues(strategy).Inc()
	m.rankingLatency.Observe(seconds)
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { current().queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { current().queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the worker count.
func UpdateWorkerCount(count int) { current().workerCount.Set(float64(count)) }

// RecordWorkerError counts a failed segment run.
func RecordWorkerError() { current().workerErrors.Inc() }

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	m := current()
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// UpdateBreakerState publishes a circuit breaker state.
func UpdateBreakerState(name string, state float64) {
	current().breakerState.WithLabelValues(name).Set(state)
}

// RecordErrorByComponent counts an error for a component.
func RecordErrorByComponent(component, errorType string) {
	current().errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { current().systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { current().systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry that backs the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
