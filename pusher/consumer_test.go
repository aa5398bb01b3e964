package pusher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/consumers/transactions"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

type fakeStore struct {
	devices      map[string]primitives.Device
	transactions map[string]primitives.Transaction
	assets       map[primitives.AssetId]primitives.Asset
	disabled     []string
}

func (f *fakeStore) GetDeviceByDeviceID(deviceID string) (primitives.Device, error) {
	d, ok := f.devices[deviceID]
	if !ok {
		return primitives.Device{}, errs.NotFoundf("no device")
	}
	return d, nil
}

func (f *fakeStore) GetTransaction(id string) (primitives.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return primitives.Transaction{}, errs.NotFoundf("no tx")
	}
	return tx, nil
}

func (f *fakeStore) GetAsset(id primitives.AssetId) (primitives.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return primitives.Asset{}, errs.NotFoundf("no asset")
	}
	return a, nil
}

func (f *fakeStore) SetPushEnabled(deviceID string, enabled bool) error {
	if !enabled {
		f.disabled = append(f.disabled, deviceID)
	}
	return nil
}

type fakeGateway struct {
	resp Response
	err  error
}

func (f *fakeGateway) Push(Notification) (Response, error) { return f.resp, f.err }

func envelopeFor(job transactions.Job) queue.Envelope {
	env, err := queue.NewEnvelope(job, nil)
	if err != nil {
		panic(err)
	}
	return env
}

func TestProcessSkipsDeviceWithoutPush(t *testing.T) {
	store := &fakeStore{
		devices: map[string]primitives.Device{
			"d1": {DeviceID: "d1", PushEnabled: false},
		},
	}
	c := New(Config{}, store, &fakeGateway{})
	count, err := c.Process(context.Background(), envelopeFor(transactions.Job{DeviceID: "d1"}))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProcessSendsPushAndDisablesOnUnregistered(t *testing.T) {
	store := &fakeStore{
		devices: map[string]primitives.Device{
			"d1": {DeviceID: "d1", PushEnabled: true, Token: "tok", Platform: primitives.DevicePlatformIOS},
		},
		transactions: map[string]primitives.Transaction{
			"ethereum_0xabc": {ID: "ethereum_0xabc", AssetID: "ethereum", Type: primitives.TransactionTypeTransfer, Value: "1.0", From: "0xfrom", To: "0xto"},
		},
		assets: map[primitives.AssetId]primitives.Asset{
			"ethereum": {ID: "ethereum", Symbol: "ETH"},
		},
	}
	gateway := &fakeGateway{resp: Response{Counts: 1, Logs: []string{"unregistered token for d1"}}}
	c := New(Config{IOSTopic: "topic"}, store, gateway)

	count, err := c.Process(context.Background(), envelopeFor(transactions.Job{
		DeviceID:            "d1",
		TransactionID:       "ethereum_0xabc",
		SubscriptionAddress: "0xfrom",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"d1"}, store.disabled)
}
