package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestProxyMetricsRecordCacheHitAndMiss(t *testing.T) {
	m := NewProxyMetrics()
	m.RecordCacheHit("example.com", "eth_blockNumber")
	m.RecordCacheMiss("example.com", "/api/v1/data")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("example.com", "eth_blockNumber")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMiss.WithLabelValues("example.com", "/api/v1/data")))
}

func TestProxyMetricsRecordLatencyObserves(t *testing.T) {
	m := NewProxyMetrics()
	m.RecordLatency("example.com", "/api/v1/data", "node1.example.com", 100*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.latency))
}
