package pusher

import (
	"context"
	"encoding/json"

	"github.com/gemwallet/walletcore/consumers/transactions"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

var logger = gemlog.NewModuleLogger(gemlog.ModulePusher)

// Store is the narrow storage surface the pusher needs.
type Store interface {
	GetDeviceByDeviceID(deviceID string) (primitives.Device, error)
	GetTransaction(id string) (primitives.Transaction, error)
	GetAsset(id primitives.AssetId) (primitives.Asset, error)
	SetPushEnabled(deviceID string, enabled bool) error
}

// Gateway is the narrow push-gateway surface the pusher needs.
type Gateway interface {
	Push(notification Notification) (Response, error)
}

// Config carries the pusher's fixed settings.
type Config struct {
	IOSTopic string
}

// Consumer implements queue.Handler for notifications_transactions.
type Consumer struct {
	cfg     Config
	store   Store
	gateway Gateway
}

// New builds a Consumer.
func New(cfg Config, store Store, gateway Gateway) *Consumer {
	return &Consumer{cfg: cfg, store: store, gateway: gateway}
}

// ShouldProcess accepts every delivery; the device eligibility check inside
// Process (push_enabled + token) is the real gate, matching the original's
// push()'s early return rather than a should_process pre-filter.
func (c *Consumer) ShouldProcess(envelope queue.Envelope) bool { return true }

// Process sends one push notification per spec §4.6 and returns 1 if it
// was sent, 0 if the device was ineligible.
func (c *Consumer) Process(ctx context.Context, envelope queue.Envelope) (int, error) {
	var job transactions.Job
	if err := envelope.Decode(&job); err != nil {
		return 0, errs.Wrap(errs.Invariant, "pusher: decode job", err)
	}

	device, err := c.store.GetDeviceByDeviceID(job.DeviceID)
	if err != nil {
		return 0, err
	}
	if !device.CanReceivePush() {
		return 0, nil
	}

	tx, err := c.store.GetTransaction(job.TransactionID)
	if err != nil {
		return 0, err
	}

	message, err := c.BuildMessage(tx, job.SubscriptionAddress)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(struct {
		NotificationType string                 `json:"notification_type"`
		Data             primitives.Transaction `json:"data"`
	}{NotificationType: "transaction", Data: tx})
	if err != nil {
		return 0, errs.Wrap(errs.Invariant, "pusher: marshal push data", err)
	}

	notification := Notification{
		Tokens:   []string{device.Token},
		Platform: platformNumber(device.Platform),
		Title:    message.Title,
		Message:  message.Message,
		Topic:    c.cfg.IOSTopic,
		Data:     data,
	}

	resp, err := c.gateway.Push(notification)
	if err != nil {
		return 0, errs.Wrap(errs.Upstream, "pusher: push", err)
	}

	if UnregisteredTokenReported(resp) {
		logger.Info("unregistered push token, disabling device", "device_id", job.DeviceID)
		if err := c.store.SetPushEnabled(job.DeviceID, false); err != nil {
			logger.Warn("failed to disable push for device", "device_id", job.DeviceID, "err", err)
		}
	}

	return 1, nil
}

// BuildMessage resolves tx's push template using the store for asset
// symbol lookups.
func (c *Consumer) BuildMessage(tx primitives.Transaction, subscriptionAddress string) (Message, error) {
	return BuildMessage(tx, subscriptionAddress, func(id primitives.AssetId) (string, error) {
		asset, err := c.store.GetAsset(id)
		if err != nil {
			return "", err
		}
		return asset.Symbol, nil
	})
}

// platformNumber maps a DevicePlatform to the integer code the push
// gateway expects, matching the original's Platform::as_i32 (iOS=1,
// Android=2, the Gorush convention).
func platformNumber(p primitives.DevicePlatform) int {
	switch p {
	case primitives.DevicePlatformIOS:
		return 1
	case primitives.DevicePlatformAndroid:
		return 2
	default:
		return 0
	}
}
