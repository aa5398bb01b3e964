package primitives

import (
	"fmt"
	"strings"
)

// AssetType is a closed enumeration of the token standards the system
// normalizes across chains.
type AssetType string

const (
	AssetTypeNative AssetType = "native"
	AssetTypeERC20  AssetType = "erc20"
	AssetTypeBEP20  AssetType = "bep20"
	AssetTypeSPL    AssetType = "spl"
	AssetTypeTRC20  AssetType = "trc20"
	AssetTypeJetton AssetType = "jetton"
)

// AssetId is "<chain>" for native coins, "<chain>_<token_id>" for tokens.
// Token ids are canonicalized per chain family before being embedded.
type AssetId string

// NewNativeAssetId returns the AssetId for a chain's native coin.
func NewNativeAssetId(chain ChainId) AssetId {
	return AssetId(chain.String())
}

// NewTokenAssetId canonicalizes tokenID per the chain's family and returns
// the composite AssetId.
func NewTokenAssetId(chain ChainId, tokenID string) AssetId {
	return AssetId(fmt.Sprintf("%s_%s", chain.String(), canonicalizeTokenID(chain, tokenID)))
}

// canonicalizeTokenID normalizes a raw token identifier the way each chain
// family expects it to compare: EVM addresses are lower-cased (the provider
// layer is responsible for checksum validation before this point), anything
// else (base58 identifiers on Solana/Tron, Jetton addresses on Ton, ...) is
// passed through unchanged since those alphabets are already case-sensitive.
func canonicalizeTokenID(chain ChainId, tokenID string) string {
	switch chain.Type() {
	case ChainTypeEVM:
		return strings.ToLower(tokenID)
	default:
		return tokenID
	}
}

// Chain extracts the ChainId prefix of an AssetId without validating the
// remainder; callers that need a validated ChainId should go through
// ChainFromString on the result.
func (a AssetId) Chain() ChainId {
	s := string(a)
	if i := strings.IndexByte(s, '_'); i >= 0 {
		return ChainId(s[:i])
	}
	return ChainId(s)
}

// IsNative reports whether the AssetId names a chain's native coin.
func (a AssetId) IsNative() bool {
	return !strings.Contains(string(a), "_")
}

func (a AssetId) String() string { return string(a) }

// Asset is the normalized representation of a coin or token.
type Asset struct {
	ID       AssetId   `json:"id" gorm:"column:id;primary_key"`
	Name     string    `json:"name" gorm:"column:name"`
	Symbol   string    `json:"symbol" gorm:"column:symbol"`
	Decimals int       `json:"decimals" gorm:"column:decimals"`
	Type     AssetType `json:"type" gorm:"column:type"`
	Rank     int32     `json:"rank" gorm:"column:rank"`
}

// TableName satisfies gorm's Tabler interface.
func (Asset) TableName() string { return "assets" }

// ValidDecimals reports whether d falls in the model's accepted range.
func ValidDecimals(d int) bool { return d >= 0 && d <= 36 }

// AssetBalance is returned by chain.BalanceProvider implementations.
type AssetBalance struct {
	AssetID AssetId `json:"asset_id"`
	Address string  `json:"address"`
	Amount  string  `json:"amount"`
}
