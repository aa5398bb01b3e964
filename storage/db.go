// Package storage is the relational persistence layer of spec §6, backed
// by github.com/jinzhu/gorm + github.com/go-sql-driver/mysql (both teacher
// dependencies). Grounded on the teacher's storage/database.DBManager
// interface convention (one named method per read/write operation, a
// module-scoped logger) adapted from a raw KV interface to a typed CRUD
// surface over the relational entities in primitives.
package storage

import (
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleStorage)

// DB is a handle onto the relational store. It is a thin, cloneable
// wrapper around *gorm.DB, constructed once per process and passed down
// through constructors.
type DB struct {
	conn *gorm.DB
}

// Config controls how Open connects.
type Config struct {
	DSN         string
	MaxOpenConn int
}

// Open establishes a connection pool and returns a ready DB.
func Open(cfg Config) (*DB, error) {
	conn, err := gorm.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.Fatal, "storage: open database", err)
	}
	if cfg.MaxOpenConn > 0 {
		conn.DB().SetMaxOpenConns(cfg.MaxOpenConn)
	}
	return &DB{conn: conn}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error { return d.conn.Close() }

// AutoMigrate creates/updates tables for every entity this package owns.
// Schema migrations proper are out of scope (spec §1 Non-goals); this is
// the bootstrap path cmd/setup uses to stand up a fresh environment.
func (d *DB) AutoMigrate() error {
	return d.conn.AutoMigrate(
		&primitives.Asset{},
		&primitives.Price{},
		&primitives.Chart{},
		&primitives.Transaction{},
		&primitives.Subscription{},
		&primitives.SubscriptionAddressExclude{},
		&primitives.Device{},
		&primitives.ParserState{},
		&primitives.Release{},
		&primitives.ScanAddress{},
		&primitives.FiatOrder{},
		&primitives.NftAsset{},
		&primitives.NftCollection{},
	).Error
}

// GetParserState reads a chain's ParserState row.
func (d *DB) GetParserState(chain primitives.ChainId) (primitives.ParserState, error) {
	var state primitives.ParserState
	err := d.conn.Where("chain = ?", chain.String()).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.ParserState{}, errs.NotFoundf("storage: no parser state for chain %s", chain)
	}
	if err != nil {
		return primitives.ParserState{}, errs.Wrap(errs.Transient, "storage: read parser state", err)
	}
	return state, nil
}

// UpsertParserState writes state, overwriting any existing row for the
// chain.
func (d *DB) UpsertParserState(state primitives.ParserState) error {
	state.UpdatedAt = time.Now().UTC()
	err := d.conn.Save(&state).Error
	if err != nil {
		return errs.Wrap(errs.Transient, "storage: upsert parser state", err)
	}
	return nil
}

// GetAsset reads one asset by id.
func (d *DB) GetAsset(id primitives.AssetId) (primitives.Asset, error) {
	var asset primitives.Asset
	err := d.conn.Where("id = ?", string(id)).First(&asset).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.Asset{}, errs.NotFoundf("storage: no asset %s", id)
	}
	if err != nil {
		return primitives.Asset{}, errs.Wrap(errs.Transient, "storage: read asset", err)
	}
	return asset, nil
}

// UpsertAssets inserts assets that don't already exist, leaving existing
// rows untouched (assets are immutable once discovered).
func (d *DB) UpsertAssets(assets []primitives.Asset) error {
	for _, a := range assets {
		if err := d.conn.Where("id = ?", string(a.ID)).FirstOrCreate(&a).Error; err != nil {
			return errs.Wrap(errs.Transient, "storage: upsert asset", err)
		}
	}
	return nil
}

// GetPrice reads the current Price row for an asset.
func (d *DB) GetPrice(assetID primitives.AssetId) (primitives.Price, error) {
	var price primitives.Price
	err := d.conn.Where("asset_id = ?", string(assetID)).First(&price).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.Price{}, errs.NotFoundf("storage: no price for %s", assetID)
	}
	if err != nil {
		return primitives.Price{}, errs.Wrap(errs.Transient, "storage: read price", err)
	}
	return price, nil
}

// UpsertPrice writes price only if it is not older than any existing row
// for the same asset, enforcing the LastUpdatedAt monotonicity invariant
// (spec §3). A stale write is silently dropped, not an error — it means a
// slower updater cycle lost a race with a faster one.
func (d *DB) UpsertPrice(price primitives.Price) error {
	existing, err := d.GetPrice(price.AssetID)
	if err != nil && errs.KindOf(err) != errs.NotFound {
		return err
	}
	if err == nil && !existing.Supersedes(price) {
		logger.Debug("dropping stale price update", "asset_id", price.AssetID)
		return nil
	}
	if err := d.conn.Save(&price).Error; err != nil {
		return errs.Wrap(errs.Transient, "storage: upsert price", err)
	}
	return nil
}

// InsertChart appends one derived chart point.
func (d *DB) InsertChart(chart primitives.Chart) error {
	if err := d.conn.Create(&chart).Error; err != nil {
		return errs.Wrap(errs.Transient, "storage: insert chart", err)
	}
	return nil
}

// GetTransaction reads one transaction by id.
func (d *DB) GetTransaction(id string) (primitives.Transaction, error) {
	var tx primitives.Transaction
	err := d.conn.Where("id = ?", id).First(&tx).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.Transaction{}, errs.NotFoundf("storage: no transaction %s", id)
	}
	if err != nil {
		return primitives.Transaction{}, errs.Wrap(errs.Transient, "storage: read transaction", err)
	}
	return tx, nil
}

// UpsertTransaction inserts tx, or updates the existing row if tx.State is
// a legal transition from its current state (spec §3's Pending ->
// terminal state machine, enforced here rather than left to callers).
// Applying the same Transaction twice is idempotent: the second call
// writes the same row and makes no further transition.
func (d *DB) UpsertTransaction(tx primitives.Transaction) error {
	existing, err := d.GetTransaction(tx.ID)
	if err != nil && errs.KindOf(err) != errs.NotFound {
		return err
	}
	if err == nil {
		if !existing.State.CanTransitionTo(tx.State) {
			return errs.New(errs.Invariant, "storage: illegal transaction state transition "+
				string(existing.State)+" -> "+string(tx.State))
		}
		tx.CreatedAt = existing.CreatedAt
	}
	if err := d.conn.Save(&tx).Error; err != nil {
		return errs.Wrap(errs.Transient, "storage: upsert transaction", err)
	}
	return nil
}

// SubscriptionMatch pairs a Subscription with the Device it belongs to,
// the shape GetSubscriptions returns.
type SubscriptionMatch struct {
	Subscription primitives.Subscription
	Device       primitives.Device
}

// GetSubscriptions returns every (subscription, device) pair for chain
// whose address is in addresses, excluding any address present in
// subscriptions_addresses_exclude via an anti-join — grounded on
// original_source/crates/storage/src/database/subscriptions.rs's
// get_subscriptions, which performs the same NOT EXISTS anti-join rather
// than filtering the exclude set in application code.
func (d *DB) GetSubscriptions(chain primitives.ChainId, addresses []string) ([]SubscriptionMatch, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var rows []struct {
		primitives.Subscription
		primitives.Device
	}
	err := d.conn.Table("subscriptions").
		Select("subscriptions.*, devices.*").
		Joins("INNER JOIN devices ON devices.id = subscriptions.device_id").
		Where("subscriptions.chain = ?", chain.String()).
		Where("subscriptions.address IN (?)", addresses).
		Where("NOT EXISTS (SELECT 1 FROM subscriptions_addresses_exclude e WHERE e.address = subscriptions.address)").
		Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: get subscriptions", err)
	}

	matches := make([]SubscriptionMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, SubscriptionMatch{Subscription: r.Subscription, Device: r.Device})
	}
	return matches, nil
}

// GetExcludedAddresses returns the subset of addresses present in the
// exclude table.
func (d *DB) GetExcludedAddresses(addresses []string) ([]string, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var out []string
	err := d.conn.Table("subscriptions_addresses_exclude").
		Where("address IN (?)", addresses).
		Pluck("address", &out).Error
	if err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: get excluded addresses", err)
	}
	return out, nil
}

// GetDeviceByDeviceID reads a device by its external device_id.
func (d *DB) GetDeviceByDeviceID(deviceID string) (primitives.Device, error) {
	var device primitives.Device
	err := d.conn.Where("device_id = ?", deviceID).First(&device).Error
	if err == gorm.ErrRecordNotFound {
		return primitives.Device{}, errs.NotFoundf("storage: no device %s", deviceID)
	}
	if err != nil {
		return primitives.Device{}, errs.Wrap(errs.Transient, "storage: read device", err)
	}
	return device, nil
}

// SetPushEnabled flips a device's push_enabled flag, the "best-effort"
// path spec §7 names for a clearly-unregistered push token.
func (d *DB) SetPushEnabled(deviceID string, enabled bool) error {
	err := d.conn.Model(&primitives.Device{}).Where("device_id = ?", deviceID).
		Update("push_enabled", enabled).Error
	if err != nil {
		return errs.Wrap(errs.Transient, "storage: set push_enabled", err)
	}
	return nil
}

// AssetIDsByDeviceID returns the distinct asset ids currently subscribed
// to by a device's wallets, backing GET /assets/by_device_id. This reads
// subscriptions.chain, so it only surfaces each chain's native coin;
// token-level subscriptions aren't tracked per-asset in this table and so
// are not returned here.
func (d *DB) AssetIDsByDeviceID(deviceID string) ([]primitives.AssetId, error) {
	var ids []string
	err := d.conn.Table("subscriptions").
		Joins("INNER JOIN devices ON devices.id = subscriptions.device_id").
		Where("devices.device_id = ?", deviceID).
		Distinct("subscriptions.chain").
		Pluck("subscriptions.chain", &ids).Error
	if err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: asset ids by device id", err)
	}
	assetIDs := make([]primitives.AssetId, len(ids))
	for i, id := range ids {
		assetIDs[i] = primitives.AssetId(id)
	}
	return assetIDs, nil
}

// ListAssets returns every asset id known to storage, backing the
// price-updater daemon's periodic refresh (it needs the full tracked set,
// not a per-device or per-query subset).
func (d *DB) ListAssets() ([]primitives.AssetId, error) {
	var ids []string
	if err := d.conn.Model(&primitives.Asset{}).Pluck("id", &ids).Error; err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: list assets", err)
	}
	assetIDs := make([]primitives.AssetId, len(ids))
	for i, id := range ids {
		assetIDs[i] = primitives.AssetId(id)
	}
	return assetIDs, nil
}

// SearchAssets ranks assets by name/symbol substring match, filtered to a
// minimum rank and an optional chain set, backing GET /assets/search.
// minScore is the caller's asymmetric threshold (spec: -100 for queries
// longer than 10 characters, 10 otherwise) — this method only applies
// whatever threshold it is given, it does not compute it.
func (d *DB) SearchAssets(query string, chains []primitives.ChainId, minScore, limit, offset int) ([]primitives.Asset, error) {
	q := d.conn.Model(&primitives.Asset{}).Where("rank >= ?", minScore)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("name LIKE ? OR symbol LIKE ?", like, like)
	}

	if len(chains) > 0 {
		clauses := make([]string, 0, len(chains))
		args := make([]interface{}, 0, len(chains)*2)
		for _, chain := range chains {
			clauses = append(clauses, "id = ? OR id LIKE ?")
			args = append(args, chain.String(), chain.String()+"_%")
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var assets []primitives.Asset
	err := q.Order("rank DESC").Limit(limit).Offset(offset).Find(&assets).Error
	if err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: search assets", err)
	}
	return assets, nil
}

// ListReleases returns every Release row for platform, backing
// GET /releases' force-upgrade check.
func (d *DB) ListReleases(platform primitives.DevicePlatform) ([]primitives.Release, error) {
	var releases []primitives.Release
	q := d.conn.Model(&primitives.Release{})
	if platform != "" {
		q = q.Where("platform = ?", string(platform))
	}
	if err := q.Find(&releases).Error; err != nil {
		return nil, errs.Wrap(errs.Transient, "storage: list releases", err)
	}
	return releases, nil
}

// UpsertFiatOrder writes or updates a fiat on/off-ramp order row, backing
// POST /fiat/webhooks/<provider>.
func (d *DB) UpsertFiatOrder(order primitives.FiatOrder) error {
	if err := d.conn.Save(&order).Error; err != nil {
		return errs.Wrap(errs.Transient, "storage: upsert fiat order", err)
	}
	return nil
}
