package primitives

import "time"

// Price is the normalized market snapshot for an AssetId. LastUpdatedAt is
// invariant: callers must never persist a Price whose LastUpdatedAt is
// older than the previously stored one for the same AssetID (enforced by
// storage.DB.UpsertPrice, not by this type).
type Price struct {
	AssetID       AssetId   `json:"asset_id" gorm:"column:asset_id;primary_key"`
	Price         float64   `json:"price" gorm:"column:price"`
	PctChange24h  float64   `json:"pct_change_24h" gorm:"column:pct_change_24h"`
	MarketCap     float64   `json:"market_cap" gorm:"column:market_cap"`
	MarketCapRank int32     `json:"market_cap_rank" gorm:"column:market_cap_rank"`
	Volume24h     float64   `json:"volume_24h" gorm:"column:volume_24h"`
	Circulating   float64   `json:"circulating" gorm:"column:circulating"`
	TotalSupply   float64   `json:"total_supply" gorm:"column:total_supply"`
	MaxSupply     float64   `json:"max_supply" gorm:"column:max_supply"`
	LastUpdatedAt time.Time `json:"last_updated_at" gorm:"column:last_updated_at"`
}

// TableName satisfies gorm's Tabler interface.
func (Price) TableName() string { return "prices" }

// Supersedes reports whether candidate is allowed to replace p under the
// monotonic last_updated_at invariant.
func (p Price) Supersedes(candidate Price) bool {
	return !candidate.LastUpdatedAt.Before(p.LastUpdatedAt)
}

// Chart is one derived price point, persisted by the price updater on every
// update cycle (dropped by the distillation, carried from the original's
// charts table — see crates/storage/src/database for the schema this mirrors).
type Chart struct {
	AssetID AssetId   `json:"asset_id" gorm:"column:asset_id"`
	Price   float64   `json:"price" gorm:"column:price"`
	Ts      time.Time `json:"ts" gorm:"column:ts"`
}

// TableName satisfies gorm's Tabler interface.
func (Chart) TableName() string { return "charts" }

// AssetPriceInfo is the value published on a price cache channel; it is the
// wire shape stream.go's WebSocketPricePayload prices are built from.
type AssetPriceInfo struct {
	AssetID       AssetId   `json:"asset_id"`
	Price         float64   `json:"price"`
	PctChange24h  float64   `json:"pct_change_24h"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// AsPrice narrows an AssetPriceInfo down to the fields the streaming core
// batches into outgoing Prices frames.
func (a AssetPriceInfo) AsPrice() AssetPrice {
	return AssetPrice{AssetID: a.AssetID, Price: a.Price, PctChange24h: a.PctChange24h}
}

// AssetPrice is the per-asset entry inside a Prices stream frame.
type AssetPrice struct {
	AssetID      AssetId `json:"asset_id"`
	Price        float64 `json:"price"`
	PctChange24h float64 `json:"pct_change_24h"`
}
