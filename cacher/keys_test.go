package cacher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyFormat(t *testing.T) {
	k := NewParserCurrentBlockKey("ethereum")
	assert.Equal(t, "parser_current_block:ethereum", k.String())
	assert.Equal(t, 7*24*time.Hour, k.TTL())
}

func TestCacheKeyTwoPartFormat(t *testing.T) {
	k := NewAuthNonceKey("device-1", "nonce-abc")
	assert.Equal(t, "auth_nonce:device-1:nonce-abc", k.String())
	assert.Equal(t, 5*time.Minute, k.TTL())
}

func TestCacheKeyChannelEqualsKey(t *testing.T) {
	k := NewAssetPriceKey("ethereum")
	assert.Equal(t, k.String(), k.Channel())
}

func TestFiatQuoteTTL(t *testing.T) {
	k := NewFiatQuoteKey("quote-1")
	assert.Equal(t, 15*time.Minute, k.TTL())
}
