package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/drain-watcher/internal/oracle"
)

// ExternalAPIMetrics contains all metrics for external API monitoring
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

// NewExternalAPIMetrics creates a new instance of external API metrics
func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drain_watcher_external_api_duration_seconds",
				Help:    "Duration of external API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api_name", "status"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drain_watcher_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),

		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_external_api_timeouts_total",
				Help: "Total number of external API timeouts",
			},
			[]string{"api_name", "endpoint"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *ExternalAPIMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

// RecordAPICall records an API call with duration and status
func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

// RecordTimeout records a timeout event
func (m *ExternalAPIMetrics) RecordTimeout(apiName, endpoint string) {
	m.timeouts.WithLabelValues(apiName, endpoint).Inc()
}

// DetectorMetrics counts scans and what they found.
type DetectorMetrics struct {
	scans          *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	findings       *prometheus.CounterVec
	skippedRecords prometheus.Counter
	oracleFailures prometheus.Counter
}

func NewDetectorMetrics() *DetectorMetrics {
	return &DetectorMetrics{
		scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_scans_total",
				Help: "Total number of address scans by outcome",
			},
			[]string{"status"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drain_watcher_scan_duration_seconds",
				Help:    "Duration of address scans in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		findings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_findings_total",
				Help: "Total number of suspicious transactions found by reason",
			},
			[]string{"reason"},
		),
		skippedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "drain_watcher_skipped_records_total",
				Help: "Total number of malformed explorer records skipped",
			},
		),
		oracleFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "drain_watcher_oracle_failures_total",
				Help: "Total number of recipients whose history could not be checked",
			},
		),
	}
}

func (m *DetectorMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.scans,
		m.scanDuration,
		m.findings,
		m.skippedRecords,
		m.oracleFailures,
	)
}

func (m *DetectorMetrics) RecordScan(status string, duration float64) {
	m.scans.WithLabelValues(status).Inc()
	m.scanDuration.WithLabelValues(status).Observe(duration)
}

func (m *DetectorMetrics) RecordFinding(reason string) {
	m.findings.WithLabelValues(reason).Inc()
}

func (m *DetectorMetrics) RecordSkipped(count int) {
	m.skippedRecords.Add(float64(count))
}

func (m *DetectorMetrics) RecordOracleFailures(count int) {
	m.oracleFailures.Add(float64(count))
}

// BackgroundJobMetrics tracks runs of the jobs known to a JobStatusManager.
// A nil *BackgroundJobMetrics records nothing.
type BackgroundJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	running  prometheus.Gauge
	stalled  prometheus.Gauge
	timeouts *prometheus.CounterVec
}

func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_background_job_runs_total",
				Help: "Total number of background job runs by outcome",
			},
			[]string{"job_name", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drain_watcher_background_job_duration_seconds",
				Help:    "Background job duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job_name", "status"},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "drain_watcher_background_jobs_running",
				Help: "Number of background jobs currently running",
			},
		),
		stalled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "drain_watcher_background_jobs_stalled",
				Help: "Number of background jobs running longer than the stalled threshold",
			},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drain_watcher_background_job_timeouts_total",
				Help: "Total number of background job runs abandoned at their deadline",
			},
			[]string{"job_name"},
		),
	}
}

func (m *BackgroundJobMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.runs,
		m.duration,
		m.running,
		m.stalled,
		m.timeouts,
	)
}

func (m *BackgroundJobMetrics) jobStarted() {
	if m == nil {
		return
	}
	m.running.Inc()
}

func (m *BackgroundJobMetrics) jobFinished(jobName string, succeeded bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !succeeded {
		status = "error"
	}
	m.running.Dec()
	m.runs.WithLabelValues(jobName, status).Inc()
	m.duration.WithLabelValues(jobName, status).Observe(duration.Seconds())
}

func (m *BackgroundJobMetrics) jobTimedOut(jobName string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(jobName).Inc()
}

func (m *BackgroundJobMetrics) setStalled(count int) {
	if m == nil {
		return
	}
	m.stalled.Set(float64(count))
}

// RegisterOracleCache exposes the hit and miss counts of a cached activity
// oracle. The counters read the cache on every scrape.
func RegisterOracleCache(registry prometheus.Registerer, cached *oracle.CachedOracle) error {
	hits := prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "drain_watcher_oracle_cache_hits_total",
			Help: "Total number of recipient lookups answered from the oracle cache",
		},
		func() float64 { return float64(cached.Statistics().Hits) },
	)
	misses := prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "drain_watcher_oracle_cache_misses_total",
			Help: "Total number of recipient lookups passed through to the wrapped oracle",
		},
		func() float64 { return float64(cached.Statistics().Misses) },
	)
	if err := registry.Register(hits); err != nil {
		return err
	}
	return registry.Register(misses)
}
