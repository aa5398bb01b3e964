package dynode

import (
	"time"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/primitives"
)

// CacheRule is one entry in a chain's cache table, grounded on
// original_source/apps/dynode/src/tests.rs's CacheRule fixture: a Regular
// request matches on path+method, a JsonRpc request matches on rpc_method;
// the first matching rule's TTL wins.
type CacheRule struct {
	Path      *string
	Method    *string
	RPCMethod *string
	TTL       time.Duration
}

// matches reports whether rule selects req. A rule with RPCMethod set
// selects only JSON-RPC requests with that method and ignores Path/Method;
// otherwise it selects Regular requests whose path and method match every
// populated field. A rule with none of the three fields set matches nothing.
func (rule CacheRule) matches(req Request) bool {
	if rule.RPCMethod != nil {
		return req.Kind == KindJSONRPC && req.RPCMethod == *rule.RPCMethod
	}
	if req.Kind != KindRegular {
		return false
	}
	if rule.Path != nil && req.Path != *rule.Path {
		return false
	}
	if rule.Method != nil && req.Method != *rule.Method {
		return false
	}
	return rule.Path != nil || rule.Method != nil
}

// CacheRules is a per-chain ordered rule table.
type CacheRules map[primitives.ChainId][]CacheRule

// ShouldCache returns the TTL of the first rule matching req for chain, and
// false if no rule matches (meaning the request is never cached).
func (rules CacheRules) ShouldCache(chain primitives.ChainId, req Request) (time.Duration, bool) {
	for _, rule := range rules[chain] {
		if rule.matches(req) {
			return rule.TTL, true
		}
	}
	return 0, false
}

// CachedResponse is what ResponseCache stores per key, carrying enough to
// replay the original response verbatim.
type CachedResponse struct {
	Body        []byte `json:"body"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
}

// Cache is the narrow cacher.Client surface ResponseCache needs.
type Cache interface {
	Get(key cacher.CacheKey, dst interface{}) error
	Set(key cacher.CacheKey, value interface{}) error
}

// ResponseCache stores and retrieves CachedResponses keyed by the dynode
// response cache-key family, with a per-write TTL supplied by the matched
// CacheRule rather than a fixed key-family TTL.
type ResponseCache struct {
	cache Cache
}

// NewResponseCache builds a ResponseCache over cache.
func NewResponseCache(cache Cache) *ResponseCache {
	return &ResponseCache{cache: cache}
}

// Get looks up rawKey, returning ok=false on a miss (including any decode
// error, treated as a miss rather than a fault).
func (rc *ResponseCache) Get(rawKey string) (CachedResponse, bool) {
	var resp CachedResponse
	if err := rc.cache.Get(cacher.NewDynodeResponseKey(rawKey), &resp); err != nil {
		return CachedResponse{}, false
	}
	return resp, true
}

// Set stores resp under rawKey with ttl. Cache writes are best-effort: a
// failure is logged, never surfaced to the caller, matching spec §4.8's
// "cache writes are best-effort" failure semantics.
func (rc *ResponseCache) Set(rawKey string, resp CachedResponse, ttl time.Duration) {
	key := cacher.NewDynodeResponseKeyWithTTL(rawKey, ttl)
	if err := rc.cache.Set(key, resp); err != nil {
		logger.Warn("dynode response cache write failed", "key", rawKey, "err", err)
	}
}
