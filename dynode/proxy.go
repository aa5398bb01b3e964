package dynode

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/gemwallet/walletcore/primitives"
)

// ChainUpstream is everything Proxy needs to reach one chain's upstream
// node: its RequestUrl and the header allow-list build_forwarded filters
// original headers down to (nil selects defaultKeepHeaders).
type ChainUpstream struct {
	URL         RequestUrl
	KeepHeaders []string
}

// Proxy is the dynode reverse proxy of spec §4.8: classify, cache-key,
// match cache rules, look up, dispatch, store, record metrics.
type Proxy struct {
	upstreams map[primitives.ChainId]ChainUpstream
	rules     CacheRules
	cache     *ResponseCache
	metrics   MetricsRecorder
}

// NewProxy builds a Proxy. metrics may be nil, in which case metrics are
// discarded.
func NewProxy(upstreams map[primitives.ChainId]ChainUpstream, rules CacheRules, cache *ResponseCache, metrics MetricsRecorder) *Proxy {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Proxy{upstreams: upstreams, rules: rules, cache: cache, metrics: metrics}
}

// Result is what Handle returns for the HTTP layer to write back to the
// caller.
type Result struct {
	Body        []byte
	Status      int
	ContentType string
}

// Handle serves one inbound request for chain, reaching host (the upstream
// identity used for cache keys and metric labels — distinct from
// chain, since several chains may share one physical node).
func (p *Proxy) Handle(chain primitives.ChainId, host, method, path string, body []byte, headers map[string]string) (Result, error) {
	upstream, ok := p.upstreams[chain]
	if !ok {
		return Result{}, errNoUpstream(chain)
	}

	req := Classify(method, path, body)
	cacheKey := req.CacheKey(host)
	methodOrPath := req.MethodOrPath()

	ttl, cacheable := p.rules.ShouldCache(chain, req)

	if cacheable {
		if cached, hit := p.cache.Get(cacheKey); hit {
			p.metrics.RecordCacheHit(host, methodOrPath)
			return Result{Body: cached.Body, Status: cached.Status, ContentType: cached.ContentType}, nil
		}
		p.metrics.RecordCacheMiss(host, methodOrPath)
	}

	upstreamReq := p.buildUpstreamRequest(upstream, req, headers)
	defer fasthttp.ReleaseRequest(upstreamReq)

	start := time.Now()
	respBody, status, contentType, err := Dispatch(upstreamReq)
	p.metrics.RecordLatency(host, methodOrPath, upstream.URL.URL, time.Since(start))
	if err != nil {
		return Result{}, err
	}

	if cacheable && status >= 200 && status < 300 {
		p.cache.Set(cacheKey, CachedResponse{Body: respBody, Status: status, ContentType: contentType}, ttl)
	}

	return Result{Body: respBody, Status: status, ContentType: contentType}, nil
}

func (p *Proxy) buildUpstreamRequest(upstream ChainUpstream, req Request, originalHeaders map[string]string) *fasthttp.Request {
	if req.Kind == KindJSONRPC {
		return BuildJSONRPC(upstream.URL, req.Path, req.Body)
	}
	return BuildForwarded(upstream.URL, req.Method, req.Path, req.Body, originalHeaders, upstream.KeepHeaders)
}

type noUpstreamError struct{ chain primitives.ChainId }

func (e noUpstreamError) Error() string {
	return "dynode: no upstream configured for chain " + e.chain.String()
}

func errNoUpstream(chain primitives.ChainId) error { return noUpstreamError{chain: chain} }
