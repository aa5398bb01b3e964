package pusher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/primitives"
)

func symbolLookup(symbol string) func(primitives.AssetId) (string, error) {
	return func(primitives.AssetId) (string, error) { return symbol, nil }
}

func TestBuildMessageTransferOutgoing(t *testing.T) {
	tx := primitives.Transaction{
		Type:  primitives.TransactionTypeTransfer,
		Value: "1.5",
		From:  "0x1111111111111111111111111111111111aaaa",
		To:    "0x2222222222222222222222222222222222bbbb",
	}
	msg, err := BuildMessage(tx, tx.From, symbolLookup("ETH"))
	require.NoError(t, err)
	assert.Equal(t, "Transfer 1.5 ETH", msg.Title)
	assert.Equal(t, "To 0x2222...bbbb", msg.Message)
}

func TestBuildMessageTransferIncoming(t *testing.T) {
	tx := primitives.Transaction{
		Type:  primitives.TransactionTypeTransfer,
		Value: "1.5",
		From:  "0x1111111111111111111111111111111111aaaa",
		To:    "0x2222222222222222222222222222222222bbbb",
	}
	msg, err := BuildMessage(tx, tx.To, symbolLookup("ETH"))
	require.NoError(t, err)
	assert.Equal(t, "From 0x1111...aaaa", msg.Message)
}

func TestBuildMessageTokenApproval(t *testing.T) {
	tx := primitives.Transaction{Type: primitives.TransactionTypeTokenApproval}
	msg, err := BuildMessage(tx, "0xabc", symbolLookup("USDC"))
	require.NoError(t, err)
	assert.Equal(t, "Token Approval for USDC", msg.Title)
	assert.Empty(t, msg.Message)
}

func TestBuildMessageSwap(t *testing.T) {
	tx := primitives.Transaction{Type: primitives.TransactionTypeSwap}
	msg, err := BuildMessage(tx, "0xabc", symbolLookup("USDC"))
	require.NoError(t, err)
	assert.Equal(t, "Swap USDC", msg.Title)
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", shortAddress("0x1234567890abcdef"))
	assert.Equal(t, "short", shortAddress("short"))
}

func TestUnregisteredTokenReported(t *testing.T) {
	assert.True(t, UnregisteredTokenReported(Response{Logs: []string{"token is unregistered"}}))
	assert.False(t, UnregisteredTokenReported(Response{Logs: []string{"ok"}}))
	assert.False(t, UnregisteredTokenReported(Response{}))
}
