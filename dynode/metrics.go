package dynode

import "time"

// MetricsRecorder is the narrow metrics surface the proxy needs, matching
// spec §4.8's {host, method-or-path, upstream} latency labels and
// {host, method-or-path} cache hit/miss labels — grounded on
// original_source/apps/dynode/src/tests.rs's metrics_tests (add_cache_hit,
// add_cache_miss, add_proxy_response label shapes).
type MetricsRecorder interface {
	RecordLatency(host, methodOrPath, upstream string, d time.Duration)
	RecordCacheHit(host, methodOrPath string)
	RecordCacheMiss(host, methodOrPath string)
}

// noopMetrics discards every call; used when a Proxy is built without a
// recorder.
type noopMetrics struct{}

func (noopMetrics) RecordLatency(string, string, string, time.Duration) {}
func (noopMetrics) RecordCacheHit(string, string)                       {}
func (noopMetrics) RecordCacheMiss(string, string)                      {}
