package transactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gemwallet/walletcore/primitives"
)

func TestIsTransactionOutdatedPositive(t *testing.T) {
	now := time.Now().UTC()
	createdAt := now.Add(-time.Duration(primitives.ChainBitcoin.OutdatedAfterSeconds()+1) * time.Second)
	assert.True(t, isTransactionOutdated(now, createdAt, primitives.ChainBitcoin))
}

func TestIsTransactionOutdatedNegative(t *testing.T) {
	now := time.Now().UTC()
	createdAt := now.Add(-time.Duration(primitives.ChainBitcoin.OutdatedAfterSeconds()-1) * time.Second)
	assert.False(t, isTransactionOutdated(now, createdAt, primitives.ChainBitcoin))
}

func TestOutdatedSecondsPerChainFamily(t *testing.T) {
	assert.Equal(t, int64(7200), primitives.ChainBitcoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(1800), primitives.ChainLitecoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(1800), primitives.ChainDogecoin.OutdatedAfterSeconds())
	assert.Equal(t, int64(900), primitives.ChainEthereum.OutdatedAfterSeconds())
}

func TestIsTransactionSufficientAmount(t *testing.T) {
	tokenAsset := &primitives.Asset{ID: "ethereum_0xtoken", Decimals: 6}
	nativeAsset := &primitives.Asset{ID: "bitcoin", Decimals: 8}

	priceHigh := &primitives.Price{Price: 1.0}
	priceLow := &primitives.Price{Price: 0.005}

	transfer := primitives.Transaction{Type: primitives.TransactionTypeTransfer, Value: "100000"}
	swap := primitives.Transaction{Type: primitives.TransactionTypeSwap, Value: "100000"}

	cases := []struct {
		name     string
		tx       primitives.Transaction
		asset    *primitives.Asset
		price    *primitives.Price
		minUSD   float64
		expected bool
	}{
		{"transfer known asset high price above min", transfer, tokenAsset, priceHigh, 0.01, true},
		{"transfer known asset low price below min", transfer, tokenAsset, priceLow, 0.01, false},
		{"transfer known asset high price but high min", transfer, tokenAsset, priceHigh, 0.5, false},
		{"transfer native asset low price below min", transfer, nativeAsset, priceLow, 0.01, false},
		{"transfer unknown asset always kept", transfer, nil, priceHigh, 0.01, true},
		{"transfer unknown price always kept", transfer, tokenAsset, nil, 0.01, true},
		{"swap always kept regardless of price", swap, tokenAsset, priceLow, 0.01, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, isTransactionSufficientAmount(c.tx, c.asset, c.price, c.minUSD))
		})
	}
}

func TestAmountInUnitsConvertsByDecimals(t *testing.T) {
	f, ok := amountInUnits("100000", 6)
	assert.True(t, ok)
	assert.InDelta(t, 0.1, f, 1e-9)
}

func TestAmountInUnitsRejectsMalformedValue(t *testing.T) {
	_, ok := amountInUnits("not-a-number", 6)
	assert.False(t, ok)
}
