package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleMetrics)

// StatusSource is the narrow cache surface ConsumerStatusReporter needs to
// enumerate and read the ConsumerStatus rows every queue.Runner flushes.
type StatusSource interface {
	KeysByKind(kind cacher.CacheKeyKind) ([]string, error)
	Get(key cacher.CacheKey, dst interface{}) error
}

// ConsumerStatusReporter periodically scrapes every consumer's status row
// out of the cache and republishes it as gauges, grounded on
// original_source/apps/api/src/metrics/consumer.rs's
// init_consumer_metrics/update_consumer_metrics: it polls rather than
// being pushed to, since the consumer runners live in separate processes
// from whichever process serves /metrics.
type ConsumerStatusReporter struct {
	source StatusSource

	processed     *prometheus.GaugeVec
	errors        *prometheus.GaugeVec
	lastSuccessAt *prometheus.GaugeVec
	avgDuration   *prometheus.GaugeVec
	uniqueErrors  *prometheus.GaugeVec
	lastErrorAt   *prometheus.GaugeVec
}

// NewConsumerStatusReporter builds a ConsumerStatusReporter over source.
func NewConsumerStatusReporter(source StatusSource) *ConsumerStatusReporter {
	labels := []string{"consumer"}
	return &ConsumerStatusReporter{
		source: source,
		processed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_processed", Help: "Messages processed",
		}, labels),
		errors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_errors", Help: "Errors encountered",
		}, labels),
		lastSuccessAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_last_success_at", Help: "Last successful processing (unix timestamp)",
		}, labels),
		avgDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_avg_duration_ms", Help: "Average processing duration in milliseconds",
		}, labels),
		uniqueErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_unique_errors", Help: "Number of unique error types",
		}, labels),
		lastErrorAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "consumer_last_error_at", Help: "Most recent error (unix timestamp)",
		}, labels),
	}
}

// Collectors returns every collector this reporter owns.
func (r *ConsumerStatusReporter) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.processed, r.errors, r.lastSuccessAt, r.avgDuration, r.uniqueErrors, r.lastErrorAt}
}

// Poll scrapes every consumer_status:* row and republishes it. A read or
// decode failure on one row is skipped without logging, matching the original's
// `let Ok(status) = ... else { continue }`.
func (r *ConsumerStatusReporter) Poll() {
	keys, err := r.source.KeysByKind(cacher.KeyConsumerStatus)
	if err != nil {
		logger.Warn("failed to list consumer status keys", "err", err)
		return
	}

	prefix := string(cacher.KeyConsumerStatus) + ":"
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)

		var status primitives.ConsumerStatus
		if err := r.source.Get(cacher.NewConsumerStatusKey(name), &status); err != nil {
			continue
		}
		r.publish(name, status)
	}
}

func (r *ConsumerStatusReporter) publish(name string, status primitives.ConsumerStatus) {
	labels := prometheus.Labels{"consumer": name}
	r.processed.With(labels).Set(float64(status.TotalProcessed))
	r.errors.With(labels).Set(float64(status.TotalErrors))
	r.avgDuration.With(labels).Set(status.AvgDurationMs)
	r.uniqueErrors.With(labels).Set(float64(len(status.Errors)))

	if status.LastSuccessAt != nil {
		r.lastSuccessAt.With(labels).Set(float64(status.LastSuccessAt.Unix()))
	}

	var lastErrorAt time.Time
	for _, e := range status.Errors {
		if e.LastSeen.After(lastErrorAt) {
			lastErrorAt = e.LastSeen
		}
	}
	if !lastErrorAt.IsZero() {
		r.lastErrorAt.With(labels).Set(float64(lastErrorAt.Unix()))
	}
}
