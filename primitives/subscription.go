package primitives

// Subscription links a wallet address to a device so the transactions
// consumer knows whom to notify. The pair (Chain, Address) may appear
// under many subscriptions, one per device/wallet combination.
type Subscription struct {
	DeviceID    int32   `json:"device_id" gorm:"column:device_id"`
	WalletID    string  `json:"wallet_id" gorm:"column:wallet_id"`
	WalletIndex int32   `json:"wallet_index" gorm:"column:wallet_index"`
	Chain       ChainId `json:"chain" gorm:"column:chain"`
	Address     string  `json:"address" gorm:"column:address"`
}

// TableName satisfies gorm's Tabler interface.
func (Subscription) TableName() string { return "subscriptions" }

// SubscriptionAddressExclude unconditionally suppresses matches for an
// address, regardless of any Subscription referencing it.
type SubscriptionAddressExclude struct {
	Chain   ChainId `json:"chain" gorm:"column:chain"`
	Address string  `json:"address" gorm:"column:address"`
}

// TableName satisfies gorm's Tabler interface.
func (SubscriptionAddressExclude) TableName() string { return "subscriptions_addresses_exclude" }

// DevicePlatform is a closed enumeration of push platforms.
type DevicePlatform string

const (
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformAndroid DevicePlatform = "android"
)

// Device is a registered client able to receive push notifications and
// authenticate privileged API calls via its ed25519 public key.
type Device struct {
	ID                   int32          `json:"id" gorm:"column:id;primary_key"`
	DeviceID             string         `json:"device_id" gorm:"column:device_id"`
	Token                string         `json:"token,omitempty" gorm:"column:token"`
	Platform             DevicePlatform `json:"platform" gorm:"column:platform"`
	Locale               string         `json:"locale" gorm:"column:locale"`
	PushEnabled          bool           `json:"push_enabled" gorm:"column:push_enabled"`
	SubscriptionsVersion int32          `json:"subscriptions_version" gorm:"column:subscriptions_version"`
	PublicKey            string         `json:"public_key,omitempty" gorm:"column:public_key"`
}

// TableName satisfies gorm's Tabler interface.
func (Device) TableName() string { return "devices" }

// CanReceivePush reports whether d is eligible for push delivery.
func (d Device) CanReceivePush() bool {
	return d.PushEnabled && d.Token != ""
}
