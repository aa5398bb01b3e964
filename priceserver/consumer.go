package priceserver

import (
	"context"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

// Store is the narrow persistence surface the prices/charts consumers need.
type Store interface {
	UpsertPrice(price primitives.Price) error
	InsertChart(chart primitives.Chart) error
}

// Cache is the narrow cache surface the prices consumer needs to fan a
// freshly stored price out to any subscribed streaming connections.
type Cache interface {
	SetAndPublish(key cacher.CacheKey, value interface{}) error
}

// PricesConsumer implements queue.Handler for store_prices: it persists
// every AssetPriceInfo and republishes it on the asset's cache channel,
// which priceserver.Connection instances are subscribed to.
type PricesConsumer struct {
	store Store
	cache Cache
}

// NewPricesConsumer builds a PricesConsumer.
func NewPricesConsumer(store Store, cache Cache) *PricesConsumer {
	return &PricesConsumer{store: store, cache: cache}
}

// ShouldProcess accepts every delivery.
func (c *PricesConsumer) ShouldProcess(envelope queue.Envelope) bool { return true }

// Process persists each price and publishes it to its cache channel,
// returning the count stored.
func (c *PricesConsumer) Process(ctx context.Context, envelope queue.Envelope) (int, error) {
	var payload PricesPayload
	if err := envelope.Decode(&payload); err != nil {
		return 0, errs.Wrap(errs.Invariant, "priceserver: decode prices payload", err)
	}

	stored := 0
	for _, info := range payload.Prices {
		price := primitives.Price{
			AssetID:       info.AssetID,
			Price:         info.Price,
			PctChange24h:  info.PctChange24h,
			LastUpdatedAt: info.LastUpdatedAt,
		}
		if err := c.store.UpsertPrice(price); err != nil {
			return stored, err
		}
		if err := c.cache.SetAndPublish(cacher.NewAssetPriceKey(string(info.AssetID)), info); err != nil {
			return stored, errs.Wrap(errs.Transient, "priceserver: publish price cache", err)
		}
		stored++
	}
	return stored, nil
}

// ChartsConsumer implements queue.Handler for store_charts.
type ChartsConsumer struct {
	store Store
}

// NewChartsConsumer builds a ChartsConsumer.
func NewChartsConsumer(store Store) *ChartsConsumer {
	return &ChartsConsumer{store: store}
}

// ShouldProcess accepts every delivery.
func (c *ChartsConsumer) ShouldProcess(envelope queue.Envelope) bool { return true }

// Process inserts each chart point, returning the count stored.
func (c *ChartsConsumer) Process(ctx context.Context, envelope queue.Envelope) (int, error) {
	var payload ChartsPayload
	if err := envelope.Decode(&payload); err != nil {
		return 0, errs.Wrap(errs.Invariant, "priceserver: decode charts payload", err)
	}

	stored := 0
	for _, chart := range payload.Charts {
		if err := c.store.InsertChart(chart); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}
