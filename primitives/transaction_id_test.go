package primitives

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionIdDisplay(t *testing.T) {
	id := NewTransactionId(ChainEthereum, "0x123")
	assert.Equal(t, "ethereum_0x123", id.String())
}

func TestTransactionIdRoundTrip(t *testing.T) {
	cases := []string{
		"bitcoin_btchash789",
		"ethereum_0xabc",
		"solana_solhash456",
		"polygon_0xdef",
	}
	for _, s := range cases {
		id, err := ParseTransactionId(s)
		require.NoError(t, err)
		assert.Equal(t, s, id.String())
	}
}

func TestTransactionIdJSONRoundTrip(t *testing.T) {
	id := NewTransactionId(ChainSolana, "solhash456")
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"solana_solhash456"`, string(data))

	var decoded TransactionId
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestTransactionIdInvalidFormat(t *testing.T) {
	_, err := ParseTransactionId("invalidformat")
	assert.Error(t, err)
}

func TestTransactionIdUnknownChain(t *testing.T) {
	_, err := ParseTransactionId("nonexistentchain_somehash")
	assert.Error(t, err)
}

func TestTransactionStateTransitions(t *testing.T) {
	assert.True(t, TransactionStatePending.CanTransitionTo(TransactionStateConfirmed))
	assert.True(t, TransactionStatePending.CanTransitionTo(TransactionStateReverted))
	assert.False(t, TransactionStateConfirmed.CanTransitionTo(TransactionStatePending))
	assert.True(t, TransactionStateConfirmed.CanTransitionTo(TransactionStateConfirmed))
}

func TestOutdatedAfterSeconds(t *testing.T) {
	assert.Equal(t, int64(2*60*60), ChainBitcoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(30*60), ChainLitecoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(30*60), ChainDogecoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(15*60), ChainEthereum.OutdatedAfterSeconds())
}
