package priceserver

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v7"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
)

// WebSocket frame type constants, matching gorilla/websocket's (and its
// clevergo/websocket fork's) Conn.ReadMessage/WriteMessage convention.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
)

// Conn is the narrow websocket transport surface a Connection needs. The
// production wiring (cmd/api) passes a *websocket.Conn from
// github.com/clevergo/websocket, which implements this surface directly;
// tests use an in-memory fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// PubSub is the narrow redis pub/sub surface a Connection needs.
// *redis.PubSub (returned by cacher.Client.Subscribe) implements it
// directly.
type PubSub interface {
	Subscribe(channels ...string) error
	Unsubscribe(channels ...string) error
	Channel() <-chan *redis.Message
	Close() error
}

// RateSource supplies fiat conversion rates for a SubscribePrices response.
// An external collaborator; nil is a valid "no rates" source.
type RateSource interface {
	Rates() map[string]float64
}

// Connection is one streaming client's price-subscription state machine,
// grounded on original_source/apps/api/src/websocket_prices/client.rs's
// PriceObserverClient: assets/pending_prices/interval fields, and the
// Subscribe/Add/Unsubscribe/tick/cache-push handling in
// handle_message_payload and handle_redis_message.
type Connection struct {
	conn   Conn
	pubsub PubSub
	rates  RateSource

	mu      sync.Mutex
	assets  map[primitives.AssetId]struct{}
	pending map[primitives.AssetId]primitives.AssetPrice

	tickInterval time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// NewConnection builds a Connection. pubsub must already be subscribed to
// no channels; Connection manages its channel membership entirely.
func NewConnection(conn Conn, pubsub PubSub, rates RateSource) *Connection {
	return &Connection{
		conn:         conn,
		pubsub:       pubsub,
		rates:        rates,
		assets:       make(map[primitives.AssetId]struct{}),
		pending:      make(map[primitives.AssetId]primitives.AssetPrice),
		tickInterval: 5 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Run drives the cache-push and tick loops until Shutdown is called or the
// pubsub channel closes (client disconnect). It does not read websocket
// frames itself — callers pump HandleMessage from their own read loop so
// Run can select over both ticks and redis pushes concurrently.
func (c *Connection) Run() {
	defer close(c.doneCh)
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			c.shutdownSequence()
			return
		case msg, ok := <-c.pubsub.Channel():
			if !ok {
				return
			}
			c.handleCachePush(msg)
		case <-ticker.C:
			c.handleTick()
		}
	}
}

// Shutdown signals Run to unsubscribe, drain, and close, and waits for it
// to finish — the cancellation contract from spec §4.7.
func (c *Connection) Shutdown() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Connection) shutdownSequence() {
	c.mu.Lock()
	channels := channelsFor(c.assets)
	c.mu.Unlock()

	if len(channels) > 0 {
		if err := c.pubsub.Unsubscribe(channels...); err != nil {
			logger.Warn("unsubscribe on shutdown failed", "err", err)
		}
	}

	c.mu.Lock()
	c.pending = make(map[primitives.AssetId]primitives.AssetPrice)
	c.mu.Unlock()

	if err := c.pubsub.Close(); err != nil {
		logger.Warn("pubsub close on shutdown failed", "err", err)
	}
}

// HandleMessage dispatches one decoded client frame.
func (c *Connection) HandleMessage(raw []byte) error {
	msg, err := primitives.ParseStreamMessage(raw)
	if err != nil {
		return errs.Wrap(errs.Invariant, "priceserver: decode stream message", err)
	}

	switch msg.Type {
	case primitives.StreamMessageSubscribePrices:
		return c.subscribePrices(msg.Data.Assets)
	case primitives.StreamMessageAddPrices:
		return c.addPrices(msg.Data.Assets)
	case primitives.StreamMessageUnsubscribePrices:
		return c.unsubscribePrices(msg.Data.Assets)
	default:
		return errs.New(errs.Invariant, fmt.Sprintf("priceserver: unhandled stream message type %q", msg.Type))
	}
}

// subscribePrices replaces the asset set wholesale: unsubscribe old
// channels, install the new set, clear any pending prices, subscribe the
// new channels, then send a full Prices frame including rates.
func (c *Connection) subscribePrices(ids []primitives.AssetId) error {
	c.mu.Lock()
	oldChannels := channelsFor(c.assets)
	c.assets = toSet(ids)
	c.pending = make(map[primitives.AssetId]primitives.AssetPrice)
	newChannels := channelsFor(c.assets)
	c.mu.Unlock()

	if len(oldChannels) > 0 {
		if err := c.pubsub.Unsubscribe(oldChannels...); err != nil {
			return errs.Wrap(errs.Transient, "priceserver: unsubscribe", err)
		}
	}
	if len(newChannels) > 0 {
		if err := c.pubsub.Subscribe(newChannels...); err != nil {
			return errs.Wrap(errs.Transient, "priceserver: subscribe", err)
		}
	}

	return c.sendCurrentPrices(true)
}

// addPrices unions ids into the subscribed set, subscribing only the
// channels that are genuinely new, then sends a Prices frame without
// rates.
func (c *Connection) addPrices(ids []primitives.AssetId) error {
	c.mu.Lock()
	var toSubscribe []string
	for _, id := range ids {
		if _, ok := c.assets[id]; !ok {
			c.assets[id] = struct{}{}
			toSubscribe = append(toSubscribe, cacher.NewAssetPriceKey(string(id)).Channel())
		}
	}
	c.mu.Unlock()

	if len(toSubscribe) > 0 {
		if err := c.pubsub.Subscribe(toSubscribe...); err != nil {
			return errs.Wrap(errs.Transient, "priceserver: subscribe", err)
		}
	}

	return c.sendCurrentPrices(false)
}

// unsubscribePrices removes ids from the subscribed set, unsubscribing
// their channels, then sends a Prices frame for what remains.
func (c *Connection) unsubscribePrices(ids []primitives.AssetId) error {
	c.mu.Lock()
	var toUnsubscribe []string
	for _, id := range ids {
		if _, ok := c.assets[id]; ok {
			delete(c.assets, id)
			delete(c.pending, id)
			toUnsubscribe = append(toUnsubscribe, cacher.NewAssetPriceKey(string(id)).Channel())
		}
	}
	c.mu.Unlock()

	if len(toUnsubscribe) > 0 {
		if err := c.pubsub.Unsubscribe(toUnsubscribe...); err != nil {
			return errs.Wrap(errs.Transient, "priceserver: unsubscribe", err)
		}
	}

	return c.sendCurrentPrices(false)
}

// handleCachePush stores a freshly published price for its tick to pick
// up; it never writes to the websocket directly, so bursts collapse to
// the single per-tick frame the batching contract requires.
func (c *Connection) handleCachePush(msg *redis.Message) {
	var info primitives.AssetPriceInfo
	if err := json.Unmarshal([]byte(msg.Payload), &info); err != nil {
		logger.Warn("malformed price cache push", "channel", msg.Channel, "err", err)
		return
	}

	c.mu.Lock()
	if _, subscribed := c.assets[info.AssetID]; subscribed {
		c.pending[info.AssetID] = info.AsPrice()
	}
	c.mu.Unlock()
}

// handleTick drains pending_prices and sends it as one frame, if non-empty.
func (c *Connection) handleTick() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	prices := make([]primitives.AssetPrice, 0, len(c.pending))
	for _, p := range c.pending {
		prices = append(prices, p)
	}
	c.pending = make(map[primitives.AssetId]primitives.AssetPrice)
	c.mu.Unlock()

	c.send(primitives.NewPricesEvent(prices, nil))
}

// sendCurrentPrices sends every currently pending price (there is none
// immediately after a subscription change, so this sends an empty-prices
// frame until the next cache push or tick populates it) — matching the
// original's fetch_payload, which always replies immediately on a
// subscription change rather than waiting for the next tick.
func (c *Connection) sendCurrentPrices(includeRates bool) error {
	c.mu.Lock()
	prices := make([]primitives.AssetPrice, 0, len(c.pending))
	for _, p := range c.pending {
		prices = append(prices, p)
	}
	c.mu.Unlock()

	var rates map[string]float64
	if includeRates && c.rates != nil {
		rates = c.rates.Rates()
	}

	c.send(primitives.NewPricesEvent(prices, rates))
	return nil
}

func (c *Connection) send(event primitives.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal stream event", "err", err)
		return
	}
	if err := c.conn.WriteMessage(TextMessage, data); err != nil {
		logger.Warn("failed to write stream frame", "err", err)
	}
}

func toSet(ids []primitives.AssetId) map[primitives.AssetId]struct{} {
	set := make(map[primitives.AssetId]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func channelsFor(assets map[primitives.AssetId]struct{}) []string {
	channels := make([]string, 0, len(assets))
	for id := range assets {
		channels = append(channels, cacher.NewAssetPriceKey(string(id)).Channel())
	}
	return channels
}
