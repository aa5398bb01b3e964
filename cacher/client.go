package cacher

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v7"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/gemlog"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleCacher)

// Client is a typed wrapper around a redis.Client. Construct one with New
// per process; it is a cheap, cloneable handle like the teacher's
// database/cache clients, never a package-level singleton.
type Client struct {
	rdb *redis.Client
}

// New connects to addr (host:port) and returns a Client. The caller owns
// the returned Client's lifetime and should Close it on shutdown.
func New(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping().Err(); err != nil {
		return nil, fmt.Errorf("cacher: connect to %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// Set writes value (JSON-encoded) under key with the key's own TTL
// (key.TTL()); a TTL <= 0 means no expiration.
func (c *Client) Set(key CacheKey, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cacher: marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(key.String(), data, key.TTL()).Err(); err != nil {
		return fmt.Errorf("cacher: set %s: %w", key, err)
	}
	return nil
}

// SetAndPublish atomically writes value under key and publishes it on the
// key's channel, using a pipeline the same way the original's
// set_values_with_publish batches SET+PUBLISH.
func (c *Client) SetAndPublish(key CacheKey, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cacher: marshal %s: %w", key, err)
	}
	pipe := c.rdb.TxPipeline()
	if key.TTL() > 0 {
		pipe.Set(key.String(), data, key.TTL())
	} else {
		pipe.Set(key.String(), data, 0)
	}
	pipe.Publish(key.Channel(), data)
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("cacher: set_and_publish %s: %w", key, err)
	}
	return nil
}

// Get reads key into dst. Returns an *errs.Error with Kind NotFound when
// the key is absent — callers commonly fall through to a source on this,
// so it is a typed sentinel rather than a generic error.
func (c *Client) Get(key CacheKey, dst interface{}) error {
	data, err := c.rdb.Get(key.String()).Bytes()
	if err == redis.Nil {
		return errs.NotFoundf("cacher: key %s not found", key)
	}
	if err != nil {
		return fmt.Errorf("cacher: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("cacher: unmarshal %s: %w", key, err)
	}
	return nil
}

// MSet batches several writes into one round trip, mirroring set_values.
func (c *Client) MSet(values map[CacheKey]interface{}) error {
	pairs := make([]interface{}, 0, len(values)*2)
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("cacher: marshal %s: %w", key, err)
		}
		pairs = append(pairs, key.String(), data)
	}
	if len(pairs) == 0 {
		return nil
	}
	if err := c.rdb.MSet(pairs...).Err(); err != nil {
		return fmt.Errorf("cacher: mset: %w", err)
	}
	return nil
}

// MGet batches several reads into one round trip. Missing keys are
// silently skipped in dst, mirroring get_values' `flatten()` over
// Option<String> results.
func (c *Client) MGet(keys []CacheKey, dst func(key CacheKey, raw []byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	results, err := c.rdb.MGet(names...).Result()
	if err != nil {
		return fmt.Errorf("cacher: mget: %w", err)
	}
	for i, r := range results {
		if r == nil {
			continue
		}
		s, ok := r.(string)
		if !ok {
			continue
		}
		if err := dst(keys[i], []byte(s)); err != nil {
			return err
		}
	}
	return nil
}

// FetchFunc produces a fresh value to cache on a miss.
type FetchFunc func() (interface{}, error)

// GetOrSet returns the cached value for key if present; otherwise it calls
// fetch, caches the result, and returns it. dst receives the final value
// (cached or freshly fetched) JSON round-tripped through the cache so
// callers observe exactly what was stored.
func (c *Client) GetOrSet(key CacheKey, fetch FetchFunc, dst interface{}) error {
	err := c.Get(key, dst)
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != errs.NotFound {
		return err
	}

	fresh, err := fetch()
	if err != nil {
		return fmt.Errorf("cacher: fetch_fn for %s: %w", key, err)
	}
	if err := c.Set(key, fresh); err != nil {
		return err
	}
	data, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("cacher: marshal fresh value for %s: %w", key, err)
	}
	return json.Unmarshal(data, dst)
}

// Increment atomically increments key's integer counter, setting ttl the
// first time the key is created.
func (c *Client) Increment(key CacheKey) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(key.String())
	if key.TTL() > 0 {
		pipe.Expire(key.String(), key.TTL())
	}
	if _, err := pipe.Exec(); err != nil {
		return 0, fmt.Errorf("cacher: increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

// CanProcessNow implements the original's can_process_now: true only the
// first caller within the key's TTL window observes true, subsequent
// callers within the same window see false. Used to rate-limit idempotent
// background triggers (e.g. inactive-device sweeps) to once per window.
func (c *Client) CanProcessNow(key CacheKey, now int64) (bool, error) {
	var last int64
	err := c.GetOrSet(key, func() (interface{}, error) { return now, nil }, &last)
	if err != nil {
		return false, err
	}
	return last == now, nil
}

// Subscribe returns a redis.PubSub for the given channels; callers must
// Close it when done (the price streaming core does this on disconnect).
func (c *Client) Subscribe(channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(channels...)
}

// KeysByKind lists the full key strings for every key currently stored
// under kind, mirroring the original's cacher.keys("consumers:status:*")
// scan the metrics package uses to enumerate consumer status rows without
// tracking consumer names separately.
func (c *Client) KeysByKind(kind CacheKeyKind) ([]string, error) {
	pattern := string(kind) + ":*"
	keys, err := c.rdb.Keys(pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("cacher: keys %s: %w", pattern, err)
	}
	return keys, nil
}
