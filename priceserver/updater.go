// Package priceserver implements the two halves of the price streaming
// core (spec §4.7): a periodic market-data updater and a per-connection
// websocket state machine, grounded on
// original_source/apps/daemon/src/worker/pricer/price_updater.rs (chunked
// fetch, Price/Chart derivation, queue publish) and
// original_source/apps/api/src/websocket_prices/client.rs (the per-client
// subscribe/add/unsubscribe/tick state machine).
package priceserver

import (
	"time"

	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

var logger = gemlog.NewModuleLogger(gemlog.ModulePriceServer)

// marketDataChunkSize is the ≤250 IDs-per-call ceiling spec §4.7 names for
// the updater's upstream fetch.
const marketDataChunkSize = 250

// MarketDataSource is the external market-data collaborator (e.g. a
// coingecko client); implementations are outside this package's scope.
type MarketDataSource interface {
	GetMarketData(assetIDs []primitives.AssetId) ([]primitives.AssetPriceInfo, error)
}

// Publisher is the narrow queue surface the updater needs.
type Publisher interface {
	PublishQueue(q queue.Name, payload interface{}, metadata map[string]string) error
}

// PricesPayload is published to store_prices for every updater cycle.
type PricesPayload struct {
	Prices []primitives.AssetPriceInfo `json:"prices"`
}

// ChartsPayload is published to store_charts for every updater cycle.
type ChartsPayload struct {
	Charts []primitives.Chart `json:"charts"`
}

// Updater periodically refreshes market data for a fixed asset universe.
type Updater struct {
	source   MarketDataSource
	bus      Publisher
	interval time.Duration
	assetIDs []primitives.AssetId

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewUpdater builds an Updater over assetIDs, refreshing every interval.
func NewUpdater(source MarketDataSource, bus Publisher, interval time.Duration, assetIDs []primitives.AssetId) *Updater {
	return &Updater{
		source:   source,
		bus:      bus,
		interval: interval,
		assetIDs: assetIDs,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run blocks, refreshing on every tick until Stop is called.
func (u *Updater) Run() {
	defer close(u.doneCh)
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()
	for {
		select {
		case <-u.stopCh:
			return
		case <-ticker.C:
			if err := u.refreshOnce(); err != nil {
				logger.Error("price update cycle failed", "err", err)
			}
		}
	}
}

// Stop signals Run to return and waits for it to do so.
func (u *Updater) Stop() {
	close(u.stopCh)
	<-u.doneCh
}

// refreshOnce fetches market data in ≤250-id chunks, derives one Chart row
// per fetched price, and publishes both payloads (the Price rows are built
// from the published AssetPriceInfo by PricesConsumer).
func (u *Updater) refreshOnce() error {
	var allPrices []primitives.AssetPriceInfo

	for start := 0; start < len(u.assetIDs); start += marketDataChunkSize {
		end := start + marketDataChunkSize
		if end > len(u.assetIDs) {
			end = len(u.assetIDs)
		}
		chunk := u.assetIDs[start:end]

		infos, err := u.source.GetMarketData(chunk)
		if err != nil {
			return err
		}
		allPrices = append(allPrices, infos...)
	}

	if len(allPrices) == 0 {
		return nil
	}

	charts := make([]primitives.Chart, len(allPrices))
	for i, info := range allPrices {
		charts[i] = primitives.Chart{AssetID: info.AssetID, Price: info.Price, Ts: info.LastUpdatedAt}
	}

	if err := u.bus.PublishQueue(queue.QueueStorePrices, PricesPayload{Prices: allPrices}, nil); err != nil {
		return err
	}
	return u.bus.PublishQueue(queue.QueueStoreCharts, ChartsPayload{Charts: charts}, nil)
}
