package priceserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

type fakeMarketSource struct {
	calls [][]primitives.AssetId
	infos map[primitives.AssetId]primitives.AssetPriceInfo
}

func (f *fakeMarketSource) GetMarketData(ids []primitives.AssetId) ([]primitives.AssetPriceInfo, error) {
	f.calls = append(f.calls, ids)
	out := make([]primitives.AssetPriceInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.infos[id])
	}
	return out, nil
}

type updaterPublishedMessage struct {
	queue   queue.Name
	payload interface{}
}

type fakeUpdaterBus struct {
	messages []updaterPublishedMessage
}

func (f *fakeUpdaterBus) PublishQueue(q queue.Name, payload interface{}, metadata map[string]string) error {
	f.messages = append(f.messages, updaterPublishedMessage{queue: q, payload: payload})
	return nil
}

func assetIDRange(n int) []primitives.AssetId {
	ids := make([]primitives.AssetId, n)
	for i := range ids {
		ids[i] = primitives.AssetId(string(rune('a' + i%26)))
	}
	return ids
}

func TestRefreshOnceChunksAt250(t *testing.T) {
	ids := assetIDRange(300)
	source := &fakeMarketSource{infos: map[primitives.AssetId]primitives.AssetPriceInfo{}}
	for _, id := range ids {
		source.infos[id] = primitives.AssetPriceInfo{AssetID: id, Price: 1}
	}
	bus := &fakeUpdaterBus{}
	u := NewUpdater(source, bus, time.Second, ids)

	require.NoError(t, u.refreshOnce())
	require.Len(t, source.calls, 2)
	assert.Len(t, source.calls[0], 250)
	assert.Len(t, source.calls[1], 50)
}

func TestRefreshOncePublishesPricesAndCharts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeMarketSource{infos: map[primitives.AssetId]primitives.AssetPriceInfo{
		"ethereum": {AssetID: "ethereum", Price: 3000, LastUpdatedAt: now},
	}}
	bus := &fakeUpdaterBus{}
	u := NewUpdater(source, bus, time.Second, []primitives.AssetId{"ethereum"})

	require.NoError(t, u.refreshOnce())
	require.Len(t, bus.messages, 2)

	prices, ok := bus.messages[0].payload.(PricesPayload)
	require.True(t, ok)
	require.Len(t, prices.Prices, 1)
	assert.Equal(t, primitives.AssetId("ethereum"), prices.Prices[0].AssetID)

	charts, ok := bus.messages[1].payload.(ChartsPayload)
	require.True(t, ok)
	require.Len(t, charts.Charts, 1)
	assert.Equal(t, 3000.0, charts.Charts[0].Price)
	assert.Equal(t, now, charts.Charts[0].Ts)
}

func TestRefreshOnceSkipsPublishWhenNoAssets(t *testing.T) {
	bus := &fakeUpdaterBus{}
	u := NewUpdater(&fakeMarketSource{}, bus, time.Second, nil)
	require.NoError(t, u.refreshOnce())
	assert.Empty(t, bus.messages)
}
