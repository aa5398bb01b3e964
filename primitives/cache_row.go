package primitives

import "time"

// CachedRpcResponse is the value dynode stores under a cache key.
type CachedRpcResponse struct {
	Key         string    `json:"key"`
	Body        []byte    `json:"body"`
	Status      uint16    `json:"status"`
	ContentType string    `json:"content_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the cached response is stale as of now.
func (c CachedRpcResponse) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ConsumerErrorEntry is one bucket in a ConsumerStatus's bounded error
// histogram, keyed by error message.
type ConsumerErrorEntry struct {
	Message  string    `json:"message"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// ConsumerStatus is the rolling health snapshot a consumer runner flushes
// to the cache after every delivery.
type ConsumerStatus struct {
	Name           string               `json:"name"`
	TotalProcessed int64                `json:"total_processed"`
	TotalErrors    int64                `json:"total_errors"`
	LastSuccessAt  *time.Time           `json:"last_success_at,omitempty"`
	AvgDurationMs  float64              `json:"avg_duration_ms"`
	Errors         []ConsumerErrorEntry `json:"errors"`
}

// Release is served by GET /releases for client force-upgrade checks.
// Carried from the original but dropped by the distillation.
type Release struct {
	Platform        DevicePlatform `json:"platform" gorm:"column:platform"`
	Version         string         `json:"version" gorm:"column:version"`
	UpgradeRequired bool           `json:"upgrade_required" gorm:"column:upgrade_required"`
}

// TableName satisfies gorm's Tabler interface.
func (Release) TableName() string { return "releases" }

// ScanAddressType is a closed enumeration of the risk classifications the
// transactions consumer's subscription match step consults.
type ScanAddressType string

const (
	ScanAddressTypeSanctioned ScanAddressType = "sanctioned"
	ScanAddressTypeMalicious  ScanAddressType = "malicious"
)

// ScanAddress is a risk-tagged address row, carried from the original's
// scan_addresses table (dropped by the distillation).
type ScanAddress struct {
	Chain       ChainId         `json:"chain" gorm:"column:chain"`
	Address     string          `json:"address" gorm:"column:address"`
	AddressType ScanAddressType `json:"address_type" gorm:"column:address_type"`
}

// TableName satisfies gorm's Tabler interface.
func (ScanAddress) TableName() string { return "scan_addresses" }

// FiatOrderStatus is a closed enumeration of fiat on/off-ramp order states.
type FiatOrderStatus string

const (
	FiatOrderStatusPending FiatOrderStatus = "pending"
	FiatOrderStatusSuccess FiatOrderStatus = "success"
	FiatOrderStatusFailed  FiatOrderStatus = "failed"
)

// FiatOrder is persisted by the fiat webhook handler. Carried from the
// original but dropped by the distillation.
type FiatOrder struct {
	Provider string          `json:"provider" gorm:"column:provider"`
	OrderID  string          `json:"order_id" gorm:"column:order_id;primary_key"`
	Status   FiatOrderStatus `json:"status" gorm:"column:status"`
	AssetID  AssetId         `json:"asset_id" gorm:"column:asset_id"`
	Amount   string          `json:"amount" gorm:"column:amount"`
}

// TableName satisfies gorm's Tabler interface.
func (FiatOrder) TableName() string { return "fiat_transactions" }

// NftAsset and NftCollection are stubs for the NFT association queue,
// carried from the original but dropped by the distillation.
type NftAsset struct {
	ID           string `json:"id" gorm:"column:id;primary_key"`
	CollectionID string `json:"collection_id" gorm:"column:collection_id"`
	Name         string `json:"name" gorm:"column:name"`
	ImageURL     string `json:"image_url" gorm:"column:image_url"`
}

// TableName satisfies gorm's Tabler interface.
func (NftAsset) TableName() string { return "nft_assets" }

type NftCollection struct {
	ID    string  `json:"id" gorm:"column:id;primary_key"`
	Name  string  `json:"name" gorm:"column:name"`
	Chain ChainId `json:"chain" gorm:"column:chain"`
}

// TableName satisfies gorm's Tabler interface.
func (NftCollection) TableName() string { return "nft_collections" }
