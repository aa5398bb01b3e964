package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProxyMetrics implements dynode.MetricsRecorder, grounded on
// original_source/apps/dynode/src/tests.rs's metrics_tests
// (add_cache_hit/add_cache_miss/add_proxy_response label shapes: host +
// method-or-path for cache counters, host + method-or-path + upstream for
// latency).
type ProxyMetrics struct {
	latency   *prometheus.HistogramVec
	cacheHits *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec
}

// NewProxyMetrics builds a ProxyMetrics.
func NewProxyMetrics() *ProxyMetrics {
	return &ProxyMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "proxy_response_latency", Help: "Upstream response latency in seconds",
		}, []string{"host", "method_or_path", "upstream"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits", Help: "Cache hits by host and method/path",
		}, []string{"host", "method_or_path"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses", Help: "Cache misses by host and method/path",
		}, []string{"host", "method_or_path"}),
	}
}

// Collectors returns every collector this reporter owns.
func (p *ProxyMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.latency, p.cacheHits, p.cacheMiss}
}

// RecordLatency implements dynode.MetricsRecorder.
func (p *ProxyMetrics) RecordLatency(host, methodOrPath, upstream string, d time.Duration) {
	p.latency.WithLabelValues(host, methodOrPath, upstream).Observe(d.Seconds())
}

// RecordCacheHit implements dynode.MetricsRecorder.
func (p *ProxyMetrics) RecordCacheHit(host, methodOrPath string) {
	p.cacheHits.WithLabelValues(host, methodOrPath).Inc()
}

// RecordCacheMiss implements dynode.MetricsRecorder.
func (p *ProxyMetrics) RecordCacheMiss(host, methodOrPath string) {
	p.cacheMiss.WithLabelValues(host, methodOrPath).Inc()
}
