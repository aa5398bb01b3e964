package transactions

import (
	"time"

	"github.com/gemwallet/walletcore/primitives"
)

// isTransactionOutdated reports whether createdAt is older than the chain's
// configured outdatedness threshold (primitives.ChainId.OutdatedAfterSeconds),
// ported 1:1 from the original's is_transaction_outdated.
func isTransactionOutdated(now, createdAt time.Time, chain primitives.ChainId) bool {
	return now.Sub(createdAt) > time.Duration(chain.OutdatedAfterSeconds())*time.Second
}

// isTransactionSufficientAmount reports whether tx clears the minimum USD
// amount, ported 1:1 from the original's is_transaction_sufficient_amount:
// only Transfer transactions with both a known asset and a known price are
// ever rejected; every other combination (unknown asset, unknown price, or
// a non-Transfer type) passes through kept.
func isTransactionSufficientAmount(tx primitives.Transaction, asset *primitives.Asset, price *primitives.Price, minAmountUSD float64) bool {
	if asset == nil || tx.Type != primitives.TransactionTypeTransfer || price == nil {
		return true
	}
	amount, ok := amountInUnits(tx.Value, asset.Decimals)
	if !ok {
		return true
	}
	return amount*price.Price > minAmountUSD
}
