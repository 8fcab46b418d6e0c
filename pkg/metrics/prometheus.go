// Package metrics provides Prometheus metrics for the ergofit solver.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Manager owns all Prometheus metrics for the solver.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Evaluation
	evaluations       *prometheus.CounterVec
	infeasibleAngles  *prometheus.CounterVec
	evaluationLatency prometheus.Histogram
	sweepSamples      prometheus.Counter
	framesConverted   prometheus.Counter
	framesDegenerate  prometheus.Counter

	// Batch queue and workers
	batchRows               prometheus.Counter
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Result cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	// Candidate ranking
	rankedCandidates     prometheus.Gauge
	rankingUpdateLatency prometheus.Histogram

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "ergofit",
		subsystem:        "fit",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

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
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.evaluations = auto.NewCounterVec(m.counterOpts("evaluations_total",
		"Total number of rider and bike evaluations"), []string{"discipline"})
	m.infeasibleAngles = auto.NewCounterVec(m.counterOpts("infeasible_angles_total",
		"Total number of angles left undefined by infeasible geometry"), []string{"angle", "reason"})
	m.evaluationLatency = auto.NewHistogram(m.histogramOpts("evaluation_latency_milliseconds",
		"Histogram of single evaluation latency in milliseconds"))
	m.sweepSamples = auto.NewCounter(m.counterOpts("sweep_samples_total",
		"Total number of crank angles evaluated by knee sweeps"))
	m.framesConverted = auto.NewCounter(m.counterOpts("frames_converted_total",
		"Total number of frames converted to interface points"))
	m.framesDegenerate = auto.NewCounter(m.counterOpts("frames_degenerate_total",
		"Total number of frames rejected as degenerate or invalid"))

	m.batchRows = auto.NewCounter(m.counterOpts("batch_rows_total",
		"Total number of rows evaluated through the worker pool"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of batch rows waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum number of batch rows the queue can hold"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Total number of rows the queue refused"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Number of workers currently evaluating rows"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Histogram of per-row processing latency in milliseconds"))

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total",
		"Total number of solves served from the result cache"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total",
		"Total number of solves not found in the result cache"))
	m.cacheSize = auto.NewGauge(m.gaugeOpts("cache_size",
		"Current number of results in the cache"))

	m.rankedCandidates = auto.NewGauge(m.gaugeOpts("ranked_candidates",
		"Current number of candidates in the ranking store"))
	m.rankingUpdateLatency = auto.NewHistogram(m.histogramOpts("ranking_update_latency_milliseconds",
		"Histogram of ranking store update latency in milliseconds"))

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Total number of errors by component and type"), []string{"component", "error_type"})
}

func active() bool { return globalManager.enabled.Load() }

// SetEnabled turns the package-level recorders on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// RecordEvaluation increments the evaluation counter for a discipline.
func RecordEvaluation(discipline string) {
	if active() {
		globalManager.evaluations.WithLabelValues(discipline).Inc()
	}
}

// RecordInfeasibleAngle counts an undefined angle by name and reason.
func RecordInfeasibleAngle(angle, reason string) {
	if active() {
		globalManager.infeasibleAngles.WithLabelValues(angle, reason).Inc()
	}
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	if active() {
		globalManager.evaluationLatency.Observe(latencyMs)
	}
}

// RecordSweepSamples adds to the sweep sample counter.
func RecordSweepSamples(n int) {
	if active() {
		globalManager.sweepSamples.Add(float64(n))
	}
}

// RecordFrameConverted increments the converted frames counter.
func RecordFrameConverted() {
	if active() {
		globalManager.framesConverted.Inc()
	}
}

// RecordFrameDegenerate increments the rejected frames counter.
func RecordFrameDegenerate() {
	if active() {
		globalManager.framesDegenerate.Inc()
	}
}

// RecordBatchRow increments the batch rows counter.
func RecordBatchRow() {
	if active() {
		globalManager.batchRows.Inc()
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if active() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if active() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueueError increments the refused rows counter.
func RecordQueueEnqueueError() {
	if active() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// AddWorkerActive adjusts the active worker gauge by delta.
func AddWorkerActive(delta int) {
	if active() {
		globalManager.workerActiveCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records per-row latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if active() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if active() {
		globalManager.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if active() {
		globalManager.cacheMisses.Inc()
	}
}

// UpdateCacheSize sets the current cache size.
func UpdateCacheSize(size int64) {
	if active() {
		globalManager.cacheSize.Set(float64(size))
	}
}

// UpdateRankedCandidates sets the number of ranked candidates.
func UpdateRankedCandidates(count int) {
	if active() {
		globalManager.rankedCandidates.Set(float64(count))
	}
}

// RecordRankingUpdateLatency records ranking update latency in milliseconds.
func RecordRankingUpdateLatency(latencyMs float64) {
	if active() {
		globalManager.rankingUpdateLatency.Observe(latencyMs)
	}
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	if active() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteText renders every metric in the registry in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather: %w: %w", ErrExportFailed, err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w: %w", mf.GetName(), ErrExportFailed, err)
		}
	}
	return nil
}
