package primitives

import (
	"encoding/json"
	"fmt"
)

// StreamMessageType is the closed set of client -> server WebSocket message
// tags.
type StreamMessageType string

const (
	StreamMessageSubscribePrices   StreamMessageType = "subscribePrices"
	StreamMessageAddPrices         StreamMessageType = "addPrices"
	StreamMessageUnsubscribePrices StreamMessageType = "unsubscribePrices"
)

// StreamMessagePrices is the payload shared by every price subscription
// message.
type StreamMessagePrices struct {
	Assets []AssetId `json:"assets"`
}

// StreamMessage is the tagged union of messages a price connection accepts,
// wire-compatible with the original's {"type": "...", "data": {...}} shape.
type StreamMessage struct {
	Type StreamMessageType   `json:"type"`
	Data StreamMessagePrices `json:"data"`
}

// MarshalStreamMessage encodes a StreamMessage for transmission.
func MarshalStreamMessage(msg StreamMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// ParseStreamMessage decodes a client frame into a StreamMessage, rejecting
// any type outside the closed set.
func ParseStreamMessage(data []byte) (StreamMessage, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return StreamMessage{}, fmt.Errorf("primitives: invalid stream message: %w", err)
	}
	switch msg.Type {
	case StreamMessageSubscribePrices, StreamMessageAddPrices, StreamMessageUnsubscribePrices:
		return msg, nil
	default:
		return StreamMessage{}, fmt.Errorf("primitives: unknown stream message type %q", msg.Type)
	}
}

// StreamEventType is the closed set of server -> client WebSocket event
// tags.
type StreamEventType string

const (
	StreamEventPrices            StreamEventType = "prices"
	StreamEventBalances          StreamEventType = "balances"
	StreamEventTransactions      StreamEventType = "transactions"
	StreamEventPriceAlerts       StreamEventType = "priceAlerts"
	StreamEventNft               StreamEventType = "nft"
	StreamEventInAppNotification StreamEventType = "inAppNotification"
)

// WebSocketPricePayload is the data carried by a Prices stream event.
type WebSocketPricePayload struct {
	Prices []AssetPrice       `json:"prices"`
	Rates  map[string]float64 `json:"rates,omitempty"`
}

// StreamBalanceUpdate is the data carried by a Balances stream event.
type StreamBalanceUpdate struct {
	WalletID string  `json:"wallet_id"`
	AssetID  AssetId `json:"asset_id"`
}

// StreamTransactionsUpdate is the data carried by a Transactions stream
// event, one per impacted wallet.
type StreamTransactionsUpdate struct {
	WalletID     string   `json:"wallet_id"`
	Transactions []string `json:"transactions"`
}

// StreamPriceAlertUpdate is the data carried by a PriceAlerts stream event.
type StreamPriceAlertUpdate struct {
	Assets []AssetId `json:"assets"`
}

// StreamNftUpdate is the data carried by an Nft stream event.
type StreamNftUpdate struct {
	WalletID string `json:"wallet_id"`
}

// InAppNotification is the payload of an in-app notification delivered
// over the stream rather than a push gateway.
type InAppNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// StreamNotificationUpdate is the data carried by an InAppNotification
// stream event.
type StreamNotificationUpdate struct {
	WalletID     string            `json:"wallet_id"`
	Notification InAppNotification `json:"notification"`
}

// StreamEvent is the tagged union of messages pushed to a stream client,
// wire-compatible with the original's {"event": "...", "data": {...}}
// shape. Exactly one of the Data fields is populated, selected by Event.
type StreamEvent struct {
	Event             StreamEventType           `json:"event"`
	Prices            *WebSocketPricePayload    `json:"-"`
	Balances          []StreamBalanceUpdate     `json:"-"`
	Transactions      *StreamTransactionsUpdate `json:"-"`
	PriceAlerts       *StreamPriceAlertUpdate   `json:"-"`
	Nft               *StreamNftUpdate          `json:"-"`
	InAppNotification *StreamNotificationUpdate `json:"-"`
}

// streamEventWire is the on-the-wire shape of StreamEvent; MarshalJSON and
// UnmarshalJSON route through it so the tag selects which Data value is
// encoded/decoded, the same discriminated-union trick as StreamMessage.
type streamEventWire struct {
	Event StreamEventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (e StreamEvent) MarshalJSON() ([]byte, error) {
	var data interface{}
	switch e.Event {
	case StreamEventPrices:
		data = e.Prices
	case StreamEventBalances:
		data = e.Balances
	case StreamEventTransactions:
		data = e.Transactions
	case StreamEventPriceAlerts:
		data = e.PriceAlerts
	case StreamEventNft:
		data = e.Nft
	case StreamEventInAppNotification:
		data = e.InAppNotification
	default:
		return nil, fmt.Errorf("primitives: unknown stream event type %q", e.Event)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(streamEventWire{Event: e.Event, Data: raw})
}

func (e *StreamEvent) UnmarshalJSON(b []byte) error {
	var wire streamEventWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	e.Event = wire.Event
	switch wire.Event {
	case StreamEventPrices:
		e.Prices = &WebSocketPricePayload{}
		return json.Unmarshal(wire.Data, e.Prices)
	case StreamEventBalances:
		return json.Unmarshal(wire.Data, &e.Balances)
	case StreamEventTransactions:
		e.Transactions = &StreamTransactionsUpdate{}
		return json.Unmarshal(wire.Data, e.Transactions)
	case StreamEventPriceAlerts:
		e.PriceAlerts = &StreamPriceAlertUpdate{}
		return json.Unmarshal(wire.Data, e.PriceAlerts)
	case StreamEventNft:
		e.Nft = &StreamNftUpdate{}
		return json.Unmarshal(wire.Data, e.Nft)
	case StreamEventInAppNotification:
		e.InAppNotification = &StreamNotificationUpdate{}
		return json.Unmarshal(wire.Data, e.InAppNotification)
	default:
		return fmt.Errorf("primitives: unknown stream event type %q", wire.Event)
	}
}

// NewPricesEvent builds a Prices stream event.
func NewPricesEvent(prices []AssetPrice, rates map[string]float64) StreamEvent {
	return StreamEvent{Event: StreamEventPrices, Prices: &WebSocketPricePayload{Prices: prices, Rates: rates}}
}

// NewTransactionsEvent builds a Transactions stream event for one wallet.
func NewTransactionsEvent(walletID string, txIDs []string) StreamEvent {
	return StreamEvent{Event: StreamEventTransactions, Transactions: &StreamTransactionsUpdate{WalletID: walletID, Transactions: txIDs}}
}
