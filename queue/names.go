package queue

// Name is the closed set of durable queues the system publishes to and
// consumes from. Per-chain queues are constructed with PerChain, which
// suffixes the base name rather than inventing a new constant per chain.
type Name string

const (
	QueueFetchBlocks                         Name = "fetch_blocks"
	QueueStoreTransactions                   Name = "store_transactions"
	QueueStorePrices                         Name = "store_prices"
	QueueStoreCharts                         Name = "store_charts"
	QueueFetchPrices                         Name = "fetch_prices"
	QueueFetchAssets                         Name = "fetch_assets"
	QueueFetchCoinAddressesAssociations      Name = "fetch_coin_addresses_associations"
	QueueFetchTokenAddressesAssociations     Name = "fetch_token_addresses_associations"
	QueueFetchNftAssetsAddressesAssociations Name = "fetch_nft_assets_addresses_associations"
	QueueFetchTransactions                   Name = "fetch_transactions"
	QueueNotificationsTransactions           Name = "notifications_transactions"
	QueueNotificationsRewards                Name = "notifications_rewards"
	QueueRewardsEvents                       Name = "rewards_events"
	QueueRewardsRedemptions                  Name = "rewards_redemptions"
	QueueFiatWebhooks                        Name = "fiat_webhooks"
	QueueNotificationsStream                 Name = "notifications_stream"
)

// PerChain returns the chain-scoped variant of a base queue name, used by
// store_transactions and fetch_blocks which are partitioned per chain.
func (n Name) PerChain(chain string) Name {
	return Name(string(n) + "." + chain)
}

func (n Name) String() string { return string(n) }

// Exchange is the closed set of topic exchanges messages fan out through.
type Exchange string

const (
	ExchangeNewAddresses Exchange = "new_addresses"
)

func (e Exchange) String() string { return string(e) }
