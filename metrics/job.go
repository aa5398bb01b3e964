package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gemwallet/walletcore/primitives"
)

// jobState mirrors job.rs's JobState: the rolling per-job facts reported
// on every run and published to the gauges by the same Report call.
type jobState struct {
	intervalSeconds float64
	durationMs      float64
	lastSuccessAt   *time.Time
	lastError       string
	lastErrorAt     *time.Time
	errorCount      int64
}

// JobMetrics tracks periodic background jobs (the parser loop, the price
// updater, inactive-device sweeps), grounded on
// original_source/apps/daemon/src/metrics/job.rs's JobMetrics: one
// Report call per run, published immediately into gauges labeled by job
// name; gauges keep their last value, so a job that stops running shows
// its last known state rather than vanishing from the metric.
type JobMetrics struct {
	service string

	mu   sync.Mutex
	jobs map[string]*jobState

	lastSuccessAt *prometheus.GaugeVec
	interval      *prometheus.GaugeVec
	lastErrorAt   *prometheus.GaugeVec
	duration      *prometheus.GaugeVec
	errorDetail   *prometheus.GaugeVec
	errors        *prometheus.GaugeVec
}

// NewJobMetrics builds a JobMetrics for service (e.g. "parser", "daemon").
func NewJobMetrics(service string) *JobMetrics {
	labels := []string{"service", "job_name"}
	errorLabels := []string{"service", "job_name", "error"}
	return &JobMetrics{
		service: service,
		jobs:    make(map[string]*jobState),
		lastSuccessAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_last_success_at", Help: "Last successful job run (unix timestamp)",
		}, labels),
		interval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_interval_seconds", Help: "Job interval in seconds",
		}, labels),
		lastErrorAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_last_error_at", Help: "Last job error (unix timestamp)",
		}, labels),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_duration_milliseconds", Help: "Last job duration in milliseconds",
		}, labels),
		errorDetail: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_error_detail", Help: "Job error details by service and message",
		}, errorLabels),
		errors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "job_errors", Help: "Total error count",
		}, labels),
	}
}

// Collectors returns every collector this JobMetrics owns, for registering
// against a Registry in one call.
func (m *JobMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.lastSuccessAt, m.interval, m.lastErrorAt, m.duration, m.errorDetail, m.errors}
}

// Report records one run of job name, matching JobMetrics::report.
func (m *JobMetrics) Report(name string, interval, duration time.Duration, success bool, errMsg string) {
	m.mu.Lock()
	state, ok := m.jobs[name]
	if !ok {
		state = &jobState{}
		m.jobs[name] = state
	}
	now := time.Now()
	state.intervalSeconds = interval.Seconds()
	state.durationMs = float64(duration.Milliseconds())
	if success {
		state.lastSuccessAt = &now
	} else if errMsg != "" {
		state.lastError = errMsg
		state.lastErrorAt = &now
		state.errorCount++
	}
	m.mu.Unlock()

	m.publish(name, state)
}

func (m *JobMetrics) publish(name string, state *jobState) {
	labels := prometheus.Labels{"service": m.service, "job_name": name}
	m.interval.With(labels).Set(state.intervalSeconds)
	m.duration.With(labels).Set(state.durationMs)
	m.errors.With(labels).Set(float64(state.errorCount))
	if state.lastSuccessAt != nil {
		m.lastSuccessAt.With(labels).Set(float64(state.lastSuccessAt.Unix()))
	}
	if state.lastErrorAt != nil {
		m.lastErrorAt.With(labels).Set(float64(state.lastErrorAt.Unix()))
		errLabels := prometheus.Labels{"service": m.service, "job_name": name, "error": state.lastError}
		m.errorDetail.With(errLabels).Set(float64(state.lastErrorAt.Unix()))
	}
}

// ParserMetrics implements parser.MetricsReporter, translating the
// interface's chain-scoped calls into JobMetrics reports plus a dedicated
// block-height gauge the original's job model has no equivalent for.
type ParserMetrics struct {
	jobs        *JobMetrics
	blockHeight *prometheus.GaugeVec
}

// NewParserMetrics builds a ParserMetrics backed by jobs for run-health
// reporting and its own block-height gauge.
func NewParserMetrics(jobs *JobMetrics) *ParserMetrics {
	return &ParserMetrics{
		jobs: jobs,
		blockHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parser_chain_block_height", Help: "Latest observed chain block height",
		}, []string{"chain"}),
	}
}

// Collectors returns this reporter's own collectors (not JobMetrics',
// which the caller registers separately since it is shared across jobs).
func (p *ParserMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.blockHeight}
}

// RecordBlockHeight implements parser.MetricsReporter.
func (p *ParserMetrics) RecordBlockHeight(chain primitives.ChainId, height int64) {
	p.blockHeight.With(prometheus.Labels{"chain": chain.String()}).Set(float64(height))
}

// RecordLoopError implements parser.MetricsReporter, folding the failure
// into the shared per-chain job report.
func (p *ParserMetrics) RecordLoopError(chain primitives.ChainId, err error) {
	p.jobs.Report("parser_loop_"+chain.String(), 0, 0, false, err.Error())
}
