// Package transactions implements the transactions consumer of spec §4.5:
// the seven-step pipeline a TransactionsPayload passes through before its
// transactions are persisted and their subscribers notified. Grounded on
// original_source/apps/daemon/src/consumers/store_transactions_consumer_config.rs
// (outdatedness + amount-filter thresholds, reproduced with the same test
// cases) and .../consumers/store/mod.rs (the consumer's dependency wiring:
// database, stream producer, pusher) and
// original_source/crates/storage/src/database/subscriptions.rs (the
// subscription-match anti-join, implemented by storage.DB.GetSubscriptions).
package transactions

import (
	"context"
	"time"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
	"github.com/gemwallet/walletcore/storage"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleConsumer)

// Payload is the message this consumer receives on store_transactions.<chain>.
type Payload struct {
	Chain        primitives.ChainId       `json:"chain"`
	Block        int64                    `json:"block"`
	Transactions []primitives.Transaction `json:"transactions"`
}

// Config carries the one tunable the original's consumer config holds: the
// minimum USD amount a Transfer must clear to survive the amount filter.
type Config struct {
	MinAmountUSD float64
}

// Store is the narrow storage surface this consumer needs.
type Store interface {
	GetAsset(id primitives.AssetId) (primitives.Asset, error)
	GetPrice(assetID primitives.AssetId) (primitives.Price, error)
	UpsertTransaction(tx primitives.Transaction) error
	GetSubscriptions(chain primitives.ChainId, addresses []string) ([]storage.SubscriptionMatch, error)
}

// Publisher is the narrow queue-publishing surface this consumer needs.
type Publisher interface {
	PublishQueue(q queue.Name, payload interface{}, metadata map[string]string) error
	PublishExchange(exchange queue.Exchange, payload interface{}, metadata map[string]string) error
}

// Consumer implements queue.Handler for the store_transactions queue family.
type Consumer struct {
	cfg   Config
	store Store
	bus   Publisher
}

// New builds a Consumer.
func New(cfg Config, store Store, bus Publisher) *Consumer {
	return &Consumer{cfg: cfg, store: store, bus: bus}
}

// ShouldProcess accepts every delivery; the outdatedness filter inside
// Process is the real gate, applied per-transaction rather than per-message
// since one payload can mix fresh and stale transactions.
func (c *Consumer) ShouldProcess(envelope queue.Envelope) bool { return true }

// Process runs the seven-step pipeline over every transaction in the payload
// and returns the count of distinct (device, subscription) pairs notified.
func (c *Consumer) Process(ctx context.Context, envelope queue.Envelope) (int, error) {
	var payload Payload
	if err := envelope.Decode(&payload); err != nil {
		return 0, errs.Wrap(errs.Invariant, "transactions: decode payload", err)
	}

	notified := 0
	now := time.Now().UTC()

	for _, tx := range payload.Transactions {
		count, err := c.processOne(tx, now)
		if err != nil {
			return notified, err
		}
		notified += count
	}
	return notified, nil
}

// processOne runs one transaction through the pipeline, returning the
// number of recipients notified (0 if the transaction was dropped or
// deferred for token discovery).
func (c *Consumer) processOne(tx primitives.Transaction, now time.Time) (int, error) {
	chain := tx.Chain()

	// 1. Outdatedness filter.
	if isTransactionOutdated(now, tx.CreatedAt, chain) {
		logger.Debug("dropping outdated transaction", "id", tx.ID)
		return 0, nil
	}

	// 2. Token discovery.
	asset, err := c.store.GetAsset(tx.AssetID)
	if err != nil && errs.KindOf(err) != errs.NotFound {
		return 0, err
	}
	discovered := err == nil
	if !discovered {
		logger.Debug("unseen asset, deferring for discovery", "asset_id", tx.AssetID)
		if pubErr := c.bus.PublishQueue(queue.QueueFetchAssets, []primitives.AssetId{tx.AssetID}, nil); pubErr != nil {
			return 0, errs.Wrap(errs.Transient, "transactions: publish fetch_assets", pubErr)
		}
		return 0, nil
	}

	// 3. Amount filter.
	price, err := c.store.GetPrice(tx.AssetID)
	var pricePtr *primitives.Price
	if err == nil {
		pricePtr = &price
	} else if errs.KindOf(err) != errs.NotFound {
		return 0, err
	}
	if !isTransactionSufficientAmount(tx, &asset, pricePtr, c.cfg.MinAmountUSD) {
		logger.Debug("dropping transaction below minimum amount", "id", tx.ID)
		return 0, nil
	}

	// 4. Subscription match.
	addresses := tx.Addresses()
	matches, err := c.store.GetSubscriptions(chain, addresses)
	if err != nil {
		return 0, err
	}

	// 5. Dedupe / upsert.
	if err := c.store.UpsertTransaction(tx); err != nil {
		return 0, err
	}

	// 6. Associations: fan out new-address events for every address seen.
	if err := c.bus.PublishExchange(queue.ExchangeNewAddresses, newAddressesPayload{Chain: chain, Addresses: addresses}, nil); err != nil {
		return 0, errs.Wrap(errs.Transient, "transactions: publish new_addresses", err)
	}

	// 7. Fan-out: per-device notification jobs + per-wallet stream event.
	walletIDs := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		job := Job{
			DeviceID:             m.Device.DeviceID,
			SubscriptionWalletID: m.Subscription.WalletID,
			SubscriptionAddress:  m.Subscription.Address,
			TransactionID:        tx.ID,
		}
		if err := c.bus.PublishQueue(queue.QueueNotificationsTransactions, job, nil); err != nil {
			return 0, errs.Wrap(errs.Transient, "transactions: publish notifications_transactions", err)
		}
		walletIDs[m.Subscription.WalletID] = struct{}{}
	}
	for walletID := range walletIDs {
		event := primitives.NewTransactionsEvent(walletID, []string{tx.ID})
		if err := c.bus.PublishQueue(queue.QueueNotificationsStream, event, nil); err != nil {
			return 0, errs.Wrap(errs.Transient, "transactions: publish stream event", err)
		}
	}

	return len(matches), nil
}

// newAddressesPayload is published to the new_addresses exchange, fanning
// out to asset- and transaction-association queues downstream.
type newAddressesPayload struct {
	Chain     primitives.ChainId `json:"chain"`
	Addresses []string           `json:"addresses"`
}

// Job is one unit of work on the notifications_transactions queue: a
// transaction id paired with the device/subscription that should be
// notified about it. The pusher package decodes this shape.
type Job struct {
	DeviceID             string `json:"device_id"`
	SubscriptionWalletID string `json:"wallet_id"`
	SubscriptionAddress  string `json:"address"`
	TransactionID        string `json:"transaction_id"`
}
