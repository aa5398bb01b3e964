// Command setup seeds a fresh deployment: it runs the database migrations,
// then inserts one native asset and one parser state row per chain in the
// closed chain set, and declares every durable queue and exchange on the
// bus. Grounded on
// original_source/apps/daemon/src/setup/mod.rs's run_setup, trimmed to the
// entities this repository's storage layer models (no search index or NFT
// type seeding — spec §1 excludes both).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/gemwallet/walletcore/config"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
	"github.com/gemwallet/walletcore/storage"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleCmd)

func main() {
	app := cli.NewApp()
	app.Name = "setup"
	app.Usage = "seed a fresh deployment's database and message bus"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "config.toml", Usage: "path to the TOML settings file"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	settings, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}

	logger.Info("setup starting")

	db, err := storage.Open(storage.Config{DSN: settings.Postgres.URL, MaxOpenConn: settings.Postgres.Pool})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return err
	}
	logger.Info("setup step complete", "step", "migrations")

	chains := primitives.AllChains()

	for _, chainID := range chains {
		state := primitives.ParserState{
			Chain:                  chainID,
			IsEnabled:              true,
			ParallelBlocks:         1,
			AwaitBlocks:            1,
			TimeoutBetweenBlocksMs: 500,
			TimeoutLatestBlockMs:   5_000,
			BlockTimeMs:            chainID.BlockTimeMs(),
		}
		if err := db.UpsertParserState(state); err != nil {
			return fmt.Errorf("setup: seed parser state for %s: %w", chainID, err)
		}
	}
	logger.Info("setup step complete", "step", "parser states", "chains", len(chains))

	assets := make([]primitives.Asset, 0, len(chains))
	for _, chainID := range chains {
		assets = append(assets, primitives.Asset{
			ID:       primitives.NewNativeAssetId(chainID),
			Name:     strings.Title(chainID.String()),
			Symbol:   strings.ToUpper(chainID.String()),
			Decimals: nativeDecimals(chainID),
			Type:     primitives.AssetTypeNative,
			Rank:     0,
		})
	}
	if err := db.UpsertAssets(assets); err != nil {
		return fmt.Errorf("setup: seed native assets: %w", err)
	}
	logger.Info("setup step complete", "step", "native assets", "assets", len(assets))

	brokers := strings.Split(settings.Rabbitmq.URL, ",")
	bus, err := queue.New(queue.Config{Brokers: brokers})
	if err != nil {
		return err
	}
	defer bus.Close()

	queueNames := []queue.Name{
		queue.QueueFetchBlocks,
		queue.QueueStoreTransactions,
		queue.QueueStorePrices,
		queue.QueueStoreCharts,
		queue.QueueFetchPrices,
		queue.QueueFetchAssets,
		queue.QueueFetchCoinAddressesAssociations,
		queue.QueueFetchTokenAddressesAssociations,
		queue.QueueFetchNftAssetsAddressesAssociations,
		queue.QueueFetchTransactions,
		queue.QueueNotificationsTransactions,
		queue.QueueNotificationsRewards,
		queue.QueueRewardsEvents,
		queue.QueueRewardsRedemptions,
		queue.QueueFiatWebhooks,
		queue.QueueNotificationsStream,
	}
	if err := bus.DeclareQueues(queueNames...); err != nil {
		return fmt.Errorf("setup: declare queues: %w", err)
	}
	if err := bus.DeclareExchanges(queue.ExchangeNewAddresses); err != nil {
		return fmt.Errorf("setup: declare exchanges: %w", err)
	}
	if err := bus.BindExchange(queue.ExchangeNewAddresses,
		queue.QueueFetchTokenAddressesAssociations,
		queue.QueueFetchCoinAddressesAssociations,
		queue.QueueFetchTransactions,
		queue.QueueFetchNftAssetsAddressesAssociations,
	); err != nil {
		return fmt.Errorf("setup: bind exchange: %w", err)
	}
	logger.Info("setup step complete", "step", "queues")

	logger.Info("setup complete")
	return nil
}

// nativeDecimals returns each chain family's native coin decimal
// precision, used only to seed a plausible placeholder row — the real
// value is whatever the per-chain adapter (out of scope) reports.
func nativeDecimals(chain primitives.ChainId) int {
	switch chain.Type() {
	case primitives.ChainTypeSolana, primitives.ChainTypeTron:
		return 9
	case primitives.ChainTypeStellar:
		return 7
	default:
		return 18
	}
}
