package transactions

import "math/big"

// amountInUnits converts value (a base-unit integer string, e.g. wei) into
// its decimal representation given the asset's decimals, mirroring the
// original's BigNumberFormatter::value_as_f64. Malformed values yield
// (0, false) rather than panicking — a transaction with an unparseable
// value passes the amount filter (it is kept) in the caller, same as with
// an unknown price.
func amountInUnits(value string, decimals int) (float64, bool) {
	raw, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return 0, false
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	result := new(big.Float).Quo(new(big.Float).SetInt(raw), divisor)
	f, _ := result.Float64()
	return f, true
}
