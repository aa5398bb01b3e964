package dynode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/gemwallet/walletcore/primitives"
)

type recordingMetrics struct {
	hits   []string
	misses []string
}

func (m *recordingMetrics) RecordLatency(string, string, string, time.Duration) {}
func (m *recordingMetrics) RecordCacheHit(host, methodOrPath string) {
	m.hits = append(m.hits, host+":"+methodOrPath)
}
func (m *recordingMetrics) RecordCacheMiss(host, methodOrPath string) {
	m.misses = append(m.misses, host+":"+methodOrPath)
}

func TestHandleReturnsErrorForUnconfiguredChain(t *testing.T) {
	p := NewProxy(nil, CacheRules{}, NewResponseCache(&fakeDynodeCache{}), nil)
	_, err := p.Handle(primitives.ChainEthereum, "example.com", "GET", "/x", nil, nil)
	assert.Error(t, err)
}

func TestHandleServesCacheHitWithoutDispatch(t *testing.T) {
	upstreams := map[primitives.ChainId]ChainUpstream{
		primitives.ChainEthereum: {URL: RequestUrl{URL: "https://unreachable.invalid"}},
	}
	rules := testRules()
	cache := &fakeDynodeCache{}
	metrics := &recordingMetrics{}
	p := NewProxy(upstreams, rules, NewResponseCache(cache), metrics)

	rc := NewResponseCache(cache)
	rc.Set("example.com:GET:/api/v1/data", CachedResponse{Body: []byte("cached"), Status: 200, ContentType: "text/plain"}, 300*time.Second)

	result, err := p.Handle(primitives.ChainEthereum, "example.com", "GET", "/api/v1/data", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), result.Body)
	assert.Equal(t, 200, result.Status)
	assert.Equal(t, []string{"example.com:/api/v1/data"}, metrics.hits)
}

func TestBuildUpstreamRequestSelectsJSONRPCBuilder(t *testing.T) {
	p := NewProxy(nil, CacheRules{}, NewResponseCache(&fakeDynodeCache{}), nil)
	upstream := ChainUpstream{URL: RequestUrl{URL: "https://example.com"}}
	req := Classify("POST", "/rpc", []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`))

	built := p.buildUpstreamRequest(upstream, req, nil)
	defer fasthttp.ReleaseRequest(built)
	assert.Equal(t, "application/json", string(built.Header.ContentType()))
	assert.Equal(t, "https://example.com/rpc", string(built.RequestURI()))
}

func TestBuildUpstreamRequestSelectsForwardedBuilder(t *testing.T) {
	p := NewProxy(nil, CacheRules{}, NewResponseCache(&fakeDynodeCache{}), nil)
	upstream := ChainUpstream{URL: RequestUrl{URL: "https://example.com"}}
	req := Classify("GET", "/api/v1/data", nil)

	built := p.buildUpstreamRequest(upstream, req, map[string]string{"Authorization": "Bearer x"})
	defer fasthttp.ReleaseRequest(built)
	assert.Equal(t, "GET", string(built.Header.Method()))
	assert.Equal(t, "Bearer x", string(built.Header.Peek("Authorization")))
}
