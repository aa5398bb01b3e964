package priceserver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/primitives"
)

type fakeConn struct {
	sent [][]byte
}

func (f *fakeConn) ReadMessage() (int, []byte, error) { return TextMessage, nil, nil }
func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.sent = append(f.sent, data)
	return nil
}
func (f *fakeConn) Close() error { return nil }

type fakePubSub struct {
	subscribed   map[string]bool
	subscribeErr error
	ch           chan *redis.Message
	closed       bool
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{subscribed: map[string]bool{}, ch: make(chan *redis.Message, 16)}
}

func (f *fakePubSub) Subscribe(channels ...string) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	for _, c := range channels {
		f.subscribed[c] = true
	}
	return nil
}

func (f *fakePubSub) Unsubscribe(channels ...string) error {
	for _, c := range channels {
		delete(f.subscribed, c)
	}
	return nil
}

func (f *fakePubSub) Channel() <-chan *redis.Message { return f.ch }

func (f *fakePubSub) Close() error {
	f.closed = true
	close(f.ch)
	return nil
}

func lastPricesEvent(t *testing.T, conn *fakeConn) primitives.StreamEvent {
	t.Helper()
	require.NotEmpty(t, conn.sent)
	var event primitives.StreamEvent
	require.NoError(t, json.Unmarshal(conn.sent[len(conn.sent)-1], &event))
	return event
}

func TestSubscribePricesReplacesAssetsAndSendsRates(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, fakeRates{"usd": 1.0})

	err := conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageSubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum", "bitcoin"}},
	}))
	require.NoError(t, err)

	assert.True(t, pubsub.subscribed[cacher.NewAssetPriceKey("ethereum").Channel()])
	assert.True(t, pubsub.subscribed[cacher.NewAssetPriceKey("bitcoin").Channel()])

	event := lastPricesEvent(t, conn)
	require.NotNil(t, event.Prices)
	assert.Equal(t, map[string]float64{"usd": 1.0}, event.Prices.Rates)
}

func TestAddPricesOnlySubscribesNewChannelsAndOmitsRates(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, fakeRates{"usd": 1.0})

	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageSubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum"}},
	})))
	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageAddPrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum", "bitcoin"}},
	})))

	assert.True(t, pubsub.subscribed[cacher.NewAssetPriceKey("bitcoin").Channel()])
	event := lastPricesEvent(t, conn)
	require.NotNil(t, event.Prices)
	assert.Nil(t, event.Prices.Rates)
}

func TestUnsubscribePricesRemovesChannels(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, nil)

	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageSubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum", "bitcoin"}},
	})))
	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageUnsubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum"}},
	})))

	assert.False(t, pubsub.subscribed[cacher.NewAssetPriceKey("ethereum").Channel()])
	assert.True(t, pubsub.subscribed[cacher.NewAssetPriceKey("bitcoin").Channel()])
}

func TestCachePushIgnoredForUnsubscribedAsset(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, nil)

	conn2.handleCachePush(&redis.Message{
		Channel: cacher.NewAssetPriceKey("ethereum").Channel(),
		Payload: mustMarshalString(t, primitives.AssetPriceInfo{AssetID: "ethereum", Price: 3000}),
	})

	assert.Empty(t, conn2.pending)
}

func TestTickBatchesPendingPricesIntoOneFrame(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, nil)

	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageSubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum", "bitcoin"}},
	})))
	conn.sent = nil // clear the immediate subscribe-ack frame

	conn2.handleCachePush(&redis.Message{
		Channel: cacher.NewAssetPriceKey("ethereum").Channel(),
		Payload: mustMarshalString(t, primitives.AssetPriceInfo{AssetID: "ethereum", Price: 3000}),
	})
	conn2.handleCachePush(&redis.Message{
		Channel: cacher.NewAssetPriceKey("ethereum").Channel(),
		Payload: mustMarshalString(t, primitives.AssetPriceInfo{AssetID: "ethereum", Price: 3100}),
	})
	conn2.handleCachePush(&redis.Message{
		Channel: cacher.NewAssetPriceKey("bitcoin").Channel(),
		Payload: mustMarshalString(t, primitives.AssetPriceInfo{AssetID: "bitcoin", Price: 60000}),
	})

	conn2.handleTick()

	assert.Len(t, conn.sent, 1)
	event := lastPricesEvent(t, conn)
	require.NotNil(t, event.Prices)
	assert.Len(t, event.Prices.Prices, 2)
	assert.Empty(t, conn2.pending)
}

func TestHandleTickSendsNothingWhenPendingEmpty(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, nil)
	conn2.handleTick()
	assert.Empty(t, conn.sent)
}

func TestShutdownUnsubscribesDrainsAndCloses(t *testing.T) {
	conn := &fakeConn{}
	pubsub := newFakePubSub()
	conn2 := NewConnection(conn, pubsub, nil)

	require.NoError(t, conn2.HandleMessage(mustMarshal(t, primitives.StreamMessage{
		Type: primitives.StreamMessageSubscribePrices,
		Data: primitives.StreamMessagePrices{Assets: []primitives.AssetId{"ethereum"}},
	})))

	done := make(chan struct{})
	go func() {
		conn2.Run()
		close(done)
	}()

	conn2.Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after Shutdown")
	}

	assert.True(t, pubsub.closed)
	assert.Empty(t, pubsub.subscribed)
	assert.Empty(t, conn2.pending)
}

type fakeRates map[string]float64

func (f fakeRates) Rates() map[string]float64 { return f }

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func mustMarshalString(t *testing.T, v interface{}) string {
	t.Helper()
	return string(mustMarshal(t, v))
}
