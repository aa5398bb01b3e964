// Package config loads Settings from a TOML file via
// github.com/naoina/toml, then applies environment variable overrides —
// the same "config file + env override" layering the teacher's cmd/utils
// flag/config loader follows, applied to the closed option set in spec §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/naoina/toml"

	"github.com/gemwallet/walletcore/primitives"
)

// Database holds a connection URL for Postgres/MySQL-compatible storage.
type Database struct {
	URL  string `toml:"url"`
	Pool int    `toml:"pool"`
}

// Redis holds the cache/pub-sub connection string.
type Redis struct {
	URL string `toml:"url"`
}

// Rabbitmq holds the queue bus connection string. Named for the wire
// protocol spec §6 documents ("rabbitmq.url"); queue.Bus is backed by
// sarama (Kafka) in this implementation, and treats the URL as a
// comma-separated broker list.
type Rabbitmq struct {
	URL string `toml:"url"`
}

// Parser holds parser-runtime-wide settings; per-chain overrides live in
// primitives.ParserState rows, not here.
type Parser struct {
	TimeoutMs int64 `toml:"timeout"`
}

// Consumer holds the consumer runner's concurrency/retry policy.
type Consumer struct {
	MaxConcurrent int   `toml:"max_concurrent"`
	MaxRetries    int   `toml:"max_retries"`
	BaseDelayMs   int64 `toml:"base_delay_ms"`
	MaxDelayMs    int64 `toml:"max_delay_ms"`
}

// Pusher holds the push gateway's endpoint and per-platform topic.
type Pusher struct {
	URL      string `toml:"url"`
	IOSTopic string `toml:"ios_topic"`
}

// Chain holds one chain's node endpoint.
type Chain struct {
	URL string `toml:"url"`
}

// KeySecret wraps a bare secret value, mirroring coingecko.key.secret's
// nesting in the original settings crate.
type KeySecret struct {
	Secret string `toml:"secret"`
}

// Coingecko holds the price-provider API credential.
type Coingecko struct {
	Key KeySecret `toml:"key"`
}

// Metrics holds the Prometheus exposition path.
type Metrics struct {
	Path string `toml:"path"`
}

// Settings is the full, closed configuration surface. Every field here is
// named in spec §6; nothing else is recognized.
type Settings struct {
	Postgres  Database                     `toml:"postgres"`
	Redis     Redis                        `toml:"redis"`
	Rabbitmq  Rabbitmq                     `toml:"rabbitmq"`
	Parser    Parser                       `toml:"parser"`
	Consumer  Consumer                     `toml:"consumer"`
	Pusher    Pusher                       `toml:"pusher"`
	Coingecko Coingecko                    `toml:"coingecko"`
	Metrics   Metrics                      `toml:"metrics"`
	Chains    map[primitives.ChainId]Chain `toml:"chains"`
}

// Load decodes path as TOML into a Settings, then applies environment
// overrides via Override.
func Load(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var s Settings
	if err := toml.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	Override(&s)
	return &s, nil
}

// Override layers process environment variables on top of a decoded
// Settings, using the GEMCORE_ prefix and double-underscore nesting
// (GEMCORE_POSTGRES__URL, GEMCORE_CONSUMER__MAX_CONCURRENT, ...). Only the
// scalar leaves named in Settings are recognized; unknown variables are
// ignored rather than rejected, since the process environment commonly
// carries unrelated keys.
func Override(s *Settings) {
	str := func(dst *string, env string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	i64 := func(dst *int64, env string) {
		if v, ok := os.LookupEnv(env); ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}
	i := func(dst *int, env string) {
		if v, ok := os.LookupEnv(env); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str(&s.Postgres.URL, "GEMCORE_POSTGRES__URL")
	i(&s.Postgres.Pool, "GEMCORE_POSTGRES__POOL")
	str(&s.Redis.URL, "GEMCORE_REDIS__URL")
	str(&s.Rabbitmq.URL, "GEMCORE_RABBITMQ__URL")
	i64(&s.Parser.TimeoutMs, "GEMCORE_PARSER__TIMEOUT")
	i(&s.Consumer.MaxConcurrent, "GEMCORE_CONSUMER__MAX_CONCURRENT")
	i(&s.Consumer.MaxRetries, "GEMCORE_CONSUMER__MAX_RETRIES")
	i64(&s.Consumer.BaseDelayMs, "GEMCORE_CONSUMER__BASE_DELAY_MS")
	i64(&s.Consumer.MaxDelayMs, "GEMCORE_CONSUMER__MAX_DELAY_MS")
	str(&s.Pusher.URL, "GEMCORE_PUSHER__URL")
	str(&s.Pusher.IOSTopic, "GEMCORE_PUSHER__IOS_TOPIC")
	str(&s.Coingecko.Key.Secret, "GEMCORE_COINGECKO__KEY__SECRET")
	str(&s.Metrics.Path, "GEMCORE_METRICS__PATH")

	for prefix, chain := range s.Chains {
		env := "GEMCORE_CHAINS__" + strings.ToUpper(string(prefix)) + "__URL"
		str(&chain.URL, env)
		s.Chains[prefix] = chain
	}
}

// ChainURL returns the configured node endpoint for chain, or an error if
// none is configured.
func (s *Settings) ChainURL(chain primitives.ChainId) (string, error) {
	c, ok := s.Chains[chain]
	if !ok || c.URL == "" {
		return "", fmt.Errorf("config: no node url configured for chain %q", chain)
	}
	return c.URL, nil
}
