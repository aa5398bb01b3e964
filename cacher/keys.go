// Package cacher wraps a pub/sub-capable key/value store (Redis, via
// github.com/go-redis/redis/v7) behind a typed client whose keys all come
// from the closed CacheKey enumeration in this file — TTL policy lives
// with the key definition, never with the caller.
package cacher

import (
	"time"
)

const (
	secondsPerMinute = 60
	secondsPerDay    = 24 * 60 * 60
)

// CacheKeyKind is the closed set of cache key families.
type CacheKeyKind string

const (
	KeyParserCurrentBlock       CacheKeyKind = "parser_current_block"
	KeyParserLatestBlock        CacheKeyKind = "parser_latest_block"
	KeyReferralIPCheck          CacheKeyKind = "referral_ip_check"
	KeyInactiveDeviceObserver   CacheKeyKind = "inactive_device_observer"
	KeyFetchCoinAddresses       CacheKeyKind = "fetch_coin_addresses"
	KeyFetchTokenAddresses      CacheKeyKind = "fetch_token_addresses"
	KeyFetchNftAssetsAddresses  CacheKeyKind = "fetch_nft_assets_addresses"
	KeyFetchAddressTransactions CacheKeyKind = "fetch_address_transactions"
	KeyFetchAssets              CacheKeyKind = "fetch_assets"
	KeyPricerCoinInfo           CacheKeyKind = "pricer_coin_info"
	KeyFiatQuote                CacheKeyKind = "fiat_quote"
	KeyFiatIPCheck              CacheKeyKind = "fiat_ip_check"
	KeyAuthNonce                CacheKeyKind = "auth_nonce"
	KeyConsumerStatus           CacheKeyKind = "consumer_status"
	KeyAssetPrice               CacheKeyKind = "asset_price"
	KeyDynodeResponse           CacheKeyKind = "dynode_response"
	KeyWalletStream             CacheKeyKind = "wallet_stream"
)

// CacheKey builds the canonical string key and its TTL for one CacheKeyKind
// instance. Construct one with the New* functions below rather than
// populating this struct directly, so the kind/parts/ttl stay consistent.
type CacheKey struct {
	kind  CacheKeyKind
	parts []string
	ttl   time.Duration
}

// String renders the canonical cache key.
func (k CacheKey) String() string {
	s := string(k.kind)
	for _, p := range k.parts {
		s += ":" + p
	}
	return s
}

// TTL returns the key family's declared expiration.
func (k CacheKey) TTL() time.Duration { return k.ttl }

// Channel returns the pub/sub channel name for this key — always equal to
// the key itself, per spec §6.
func (k CacheKey) Channel() string { return k.String() }

func NewParserCurrentBlockKey(chain string) CacheKey {
	return CacheKey{KeyParserCurrentBlock, []string{chain}, 7 * 24 * time.Hour}
}

func NewParserLatestBlockKey(chain string) CacheKey {
	return CacheKey{KeyParserLatestBlock, []string{chain}, 7 * 24 * time.Hour}
}

func NewReferralIPCheckKey(ip string) CacheKey {
	return CacheKey{KeyReferralIPCheck, []string{ip}, 30 * 24 * time.Hour}
}

func NewInactiveDeviceObserverKey(deviceID string) CacheKey {
	return CacheKey{KeyInactiveDeviceObserver, []string{deviceID}, 30 * 24 * time.Hour}
}

func NewFetchCoinAddressesKey(chain, address string) CacheKey {
	return CacheKey{KeyFetchCoinAddresses, []string{chain, address}, 7 * 24 * time.Hour}
}

func NewFetchTokenAddressesKey(chain, address string) CacheKey {
	return CacheKey{KeyFetchTokenAddresses, []string{chain, address}, 30 * 24 * time.Hour}
}

func NewFetchNftAssetsAddressesKey(chain, address string) CacheKey {
	return CacheKey{KeyFetchNftAssetsAddresses, []string{chain, address}, 30 * 24 * time.Hour}
}

func NewFetchAddressTransactionsKey(chain, address string) CacheKey {
	return CacheKey{KeyFetchAddressTransactions, []string{chain, address}, 30 * 24 * time.Hour}
}

func NewFetchAssetsKey(assetID string) CacheKey {
	return CacheKey{KeyFetchAssets, []string{assetID}, 30 * 24 * time.Hour}
}

func NewPricerCoinInfoKey(coinID string) CacheKey {
	return CacheKey{KeyPricerCoinInfo, []string{coinID}, 24 * time.Hour}
}

func NewFiatQuoteKey(quoteID string) CacheKey {
	return CacheKey{KeyFiatQuote, []string{quoteID}, 15 * time.Minute}
}

func NewFiatIPCheckKey(ip string) CacheKey {
	return CacheKey{KeyFiatIPCheck, []string{ip}, 24 * time.Hour}
}

func NewAuthNonceKey(deviceID, nonce string) CacheKey {
	return CacheKey{KeyAuthNonce, []string{deviceID, nonce}, 5 * time.Minute}
}

func NewConsumerStatusKey(name string) CacheKey {
	return CacheKey{KeyConsumerStatus, []string{name}, 0}
}

func NewAssetPriceKey(assetID string) CacheKey {
	return CacheKey{KeyAssetPrice, []string{assetID}, 0}
}

func NewDynodeResponseKey(rawKey string) CacheKey {
	return CacheKey{KeyDynodeResponse, []string{rawKey}, 0}
}

// NewDynodeResponseKeyWithTTL is NewDynodeResponseKey with an explicit TTL,
// for callers whose TTL is determined per-request by a cache rule rather
// than by the key family (dynode's per-chain cache rules each carry their
// own ttl_seconds).
func NewDynodeResponseKeyWithTTL(rawKey string, ttl time.Duration) CacheKey {
	return CacheKey{KeyDynodeResponse, []string{rawKey}, ttl}
}

// NewWalletStreamKey is the pub/sub channel a wallet's stream events (new
// transactions, balance changes, NFT updates, in-app notifications) are
// published on, the same SetAndPublish-then-Subscribe idiom
// NewAssetPriceKey already establishes for price fan-out.
func NewWalletStreamKey(walletID string) CacheKey {
	return CacheKey{KeyWalletStream, []string{walletID}, 0}
}

// String satisfies fmt.Stringer for use in log contexts.
func (k CacheKeyKind) String() string { return string(k) }
