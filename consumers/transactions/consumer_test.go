package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
	"github.com/gemwallet/walletcore/storage"
)

type fakeStore struct {
	assets    map[primitives.AssetId]primitives.Asset
	prices    map[primitives.AssetId]primitives.Price
	upserted  []primitives.Transaction
	upsertErr error
	subsByKey map[primitives.ChainId][]storage.SubscriptionMatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:    make(map[primitives.AssetId]primitives.Asset),
		prices:    make(map[primitives.AssetId]primitives.Price),
		subsByKey: make(map[primitives.ChainId][]storage.SubscriptionMatch),
	}
}

func (f *fakeStore) GetAsset(id primitives.AssetId) (primitives.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return primitives.Asset{}, errs.NotFoundf("no asset")
	}
	return a, nil
}

func (f *fakeStore) GetPrice(id primitives.AssetId) (primitives.Price, error) {
	p, ok := f.prices[id]
	if !ok {
		return primitives.Price{}, errs.NotFoundf("no price")
	}
	return p, nil
}

func (f *fakeStore) UpsertTransaction(tx primitives.Transaction) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, tx)
	return nil
}

func (f *fakeStore) GetSubscriptions(chain primitives.ChainId, addresses []string) ([]storage.SubscriptionMatch, error) {
	return f.subsByKey[chain], nil
}

type publishedMessage struct {
	queue    queue.Name
	exchange queue.Exchange
	payload  interface{}
}

type fakePublisher struct {
	messages []publishedMessage
}

func (f *fakePublisher) PublishQueue(q queue.Name, payload interface{}, _ map[string]string) error {
	f.messages = append(f.messages, publishedMessage{queue: q, payload: payload})
	return nil
}

func (f *fakePublisher) PublishExchange(e queue.Exchange, payload interface{}, _ map[string]string) error {
	f.messages = append(f.messages, publishedMessage{exchange: e, payload: payload})
	return nil
}

func newTestPayload(tx primitives.Transaction) queue.Envelope {
	env, err := queue.NewEnvelope(Payload{Chain: tx.Chain(), Transactions: []primitives.Transaction{tx}}, nil)
	if err != nil {
		panic(err)
	}
	return env
}

func TestProcessDropsOutdatedTransaction(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	c := New(Config{MinAmountUSD: 0.01}, store, pub)

	tx := primitives.Transaction{
		ID:        "ethereum_0xabc",
		AssetID:   "ethereum",
		Type:      primitives.TransactionTypeTransfer,
		Value:     "1000000000000000000",
		CreatedAt: time.Now().UTC().Add(-20 * time.Minute),
	}
	count, err := c.Process(context.Background(), newTestPayload(tx))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.upserted, "outdated transaction must never be upserted")
}

func TestProcessDefersUnseenAsset(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	c := New(Config{MinAmountUSD: 0.01}, store, pub)

	tx := primitives.Transaction{
		ID:        "ethereum_0xabc",
		AssetID:   "ethereum_0xnew",
		Type:      primitives.TransactionTypeTransfer,
		Value:     "1000000000000000000",
		CreatedAt: time.Now().UTC(),
	}
	count, err := c.Process(context.Background(), newTestPayload(tx))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.upserted)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, queue.QueueFetchAssets, pub.messages[0].queue)
}

func TestProcessNotifiesMatchedSubscriptions(t *testing.T) {
	store := newFakeStore()
	store.assets["ethereum"] = primitives.Asset{ID: "ethereum", Decimals: 18}
	store.prices["ethereum"] = primitives.Price{AssetID: "ethereum", Price: 2000}
	store.subsByKey[primitives.ChainEthereum] = []storage.SubscriptionMatch{
		{
			Subscription: primitives.Subscription{WalletID: "wallet-1", Address: "0xfrom"},
			Device:       primitives.Device{DeviceID: "device-1"},
		},
	}
	pub := &fakePublisher{}
	c := New(Config{MinAmountUSD: 0.01}, store, pub)

	tx := primitives.Transaction{
		ID:        "ethereum_0xabc",
		AssetID:   "ethereum",
		From:      "0xfrom",
		To:        "0xto",
		Type:      primitives.TransactionTypeTransfer,
		Value:     "1000000000000000000",
		CreatedAt: time.Now().UTC(),
	}
	count, err := c.Process(context.Background(), newTestPayload(tx))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, tx.ID, store.upserted[0].ID)

	var sawNewAddresses, sawNotification, sawStreamEvent bool
	for _, m := range pub.messages {
		switch {
		case m.exchange == queue.ExchangeNewAddresses:
			sawNewAddresses = true
		case m.queue == queue.QueueNotificationsTransactions:
			sawNotification = true
		case m.queue == queue.QueueNotificationsStream:
			sawStreamEvent = true
		}
	}
	assert.True(t, sawNewAddresses)
	assert.True(t, sawNotification)
	assert.True(t, sawStreamEvent)
}

func TestProcessRejectsTerminalRegressionViaStore(t *testing.T) {
	// storage.DB itself enforces the terminal-state guard (see
	// storage/db_test.go); this consumer only ever calls UpsertTransaction
	// once per delivery and propagates whatever error storage returns.
	store := newFakeStore()
	store.assets["ethereum"] = primitives.Asset{ID: "ethereum", Decimals: 18}
	store.upsertErr = errs.New(errs.Invariant, "storage: illegal transaction state transition confirmed -> pending")
	pub := &fakePublisher{}
	c := New(Config{MinAmountUSD: 0.01}, store, pub)

	tx := primitives.Transaction{
		ID:        "ethereum_0xabc",
		AssetID:   "ethereum",
		Type:      primitives.TransactionTypeSwap,
		State:     primitives.TransactionStatePending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := c.Process(context.Background(), newTestPayload(tx))
	require.Error(t, err)
	assert.Equal(t, errs.Invariant, errs.KindOf(err))
}
