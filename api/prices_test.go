package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gemwallet/walletcore/priceserver"
)

// Upgrade itself needs a real hijackable connection and a websocket client
// handshake to exercise meaningfully; that's covered by priceserver's own
// Connection tests (which use a fake Conn) and left to integration testing
// here, matching how the teacher's own websocket-adjacent code isn't unit
// tested at the transport layer.
func TestNewPricesHandlerWiresDependencies(t *testing.T) {
	factory := func() priceserver.PubSub { return nil }
	h := NewPricesHandler(factory, nil)
	assert.NotNil(t, h)
}
