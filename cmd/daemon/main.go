// Command daemon runs the consumer and background-worker side of the
// system: the transactions consumer, the push-notification consumer, the
// price-stream consumers, and the market-data updater. Each runs as its
// own subcommand so an operator can scale them independently, mirroring
// main.rs's mode dispatch (consumers / consumer_transactions /
// consumer_blocks / consumer_assets) — re-expressed as named cli.Commands
// instead of a trailing argv mode string.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/config"
	"github.com/gemwallet/walletcore/consumers/stream"
	"github.com/gemwallet/walletcore/consumers/transactions"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/priceserver"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/pusher"
	"github.com/gemwallet/walletcore/queue"
	"github.com/gemwallet/walletcore/storage"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleCmd)

var configFlag = cli.StringFlag{Name: "config", Value: "config.toml", Usage: "path to the TOML settings file"}

func main() {
	app := cli.NewApp()
	app.Name = "daemon"
	app.Usage = "run consumers and background workers"
	app.Commands = []cli.Command{
		{Name: "transactions", Usage: "run the transactions consumer", Flags: []cli.Flag{configFlag}, Action: runTransactionsConsumer},
		{Name: "notifications", Usage: "run the push-notification consumer", Flags: []cli.Flag{configFlag}, Action: runNotificationsConsumer},
		{Name: "stream", Usage: "run the notifications_stream -> cache pub/sub bridge", Flags: []cli.Flag{configFlag}, Action: runStreamConsumer},
		{Name: "prices", Usage: "run the store_prices/store_charts consumers", Flags: []cli.Flag{configFlag}, Action: runPricesConsumers},
		{Name: "price-updater", Usage: "run the periodic market-data updater", Flags: []cli.Flag{configFlag}, Action: runPriceUpdater},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDeps(ctx *cli.Context) (*config.Settings, *storage.DB, *cacher.Client, *queue.Bus, error) {
	settings, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	db, err := storage.Open(storage.Config{DSN: settings.Postgres.URL, MaxOpenConn: settings.Postgres.Pool})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cache, err := cacher.New(settings.Redis.URL, "", 0)
	if err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}
	bus, err := queue.New(queue.Config{Brokers: strings.Split(settings.Rabbitmq.URL, ",")})
	if err != nil {
		db.Close()
		cache.Close()
		return nil, nil, nil, nil, err
	}
	return settings, db, cache, bus, nil
}

func runTransactionsConsumer(ctx *cli.Context) error {
	settings, db, cache, bus, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()
	defer bus.Close()

	handler := transactions.New(transactions.Config{MinAmountUSD: 1.0}, db, bus)
	topics := make([]string, 0, len(primitives.AllChains()))
	for _, chainID := range primitives.AllChains() {
		topics = append(topics, queue.QueueStoreTransactions.PerChain(chainID.String()).String())
	}
	return runConsumer(bus, cache, settings, queue.Name("store_transactions_consumer"), handler, topics)
}

func runNotificationsConsumer(ctx *cli.Context) error {
	settings, db, cache, bus, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()
	defer bus.Close()

	gateway := pusher.NewGatewayClient(settings.Pusher.URL)
	handler := pusher.New(pusher.Config{IOSTopic: settings.Pusher.IOSTopic}, db, gateway)
	return runConsumer(bus, cache, settings, queue.QueueNotificationsTransactions, handler,
		[]string{queue.QueueNotificationsTransactions.String()})
}

func runStreamConsumer(ctx *cli.Context) error {
	settings, db, cache, bus, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()
	defer bus.Close()

	handler := stream.New(cache)
	return runConsumer(bus, cache, settings, queue.QueueNotificationsStream, handler,
		[]string{queue.QueueNotificationsStream.String()})
}

func runPricesConsumers(ctx *cli.Context) error {
	settings, db, cache, bus, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()
	defer bus.Close()

	pricesHandler := priceserver.NewPricesConsumer(db, cache)
	chartsHandler := priceserver.NewChartsConsumer(db)

	runnerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- runConsumerCtx(runnerCtx, bus, cache, settings, queue.QueueStorePrices, pricesHandler,
			[]string{queue.QueueStorePrices.String()})
	}()
	go func() {
		errCh <- runConsumerCtx(runnerCtx, bus, cache, settings, queue.QueueStoreCharts, chartsHandler,
			[]string{queue.QueueStoreCharts.String()})
	}()

	waitForSignal()
	cancel()
	<-errCh
	<-errCh
	return nil
}

func runPriceUpdater(ctx *cli.Context) error {
	settings, db, cache, bus, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()
	defer bus.Close()

	assets, err := assetIDsNeedingPrices(db)
	if err != nil {
		return err
	}

	// coingecko (or any other market-data provider) client is an external
	// collaborator per spec §1; operators wire a concrete
	// priceserver.MarketDataSource before running this subcommand.
	var source priceserver.MarketDataSource
	if source == nil {
		return fmt.Errorf("daemon: no priceserver.MarketDataSource configured")
	}

	updater := priceserver.NewUpdater(source, bus, 60*time.Second, assets)
	go updater.Run()

	waitForSignal()
	updater.Stop()
	return nil
}

func assetIDsNeedingPrices(db *storage.DB) ([]primitives.AssetId, error) {
	return db.ListAssets()
}

func runConsumer(bus *queue.Bus, cache *cacher.Client, settings *config.Settings, groupName queue.Name, handler queue.Handler, topics []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		waitForSignal()
		cancel()
	}()
	return runConsumerCtx(ctx, bus, cache, settings, groupName, handler, topics)
}

func runConsumerCtx(ctx context.Context, bus *queue.Bus, cache *cacher.Client, settings *config.Settings, groupName queue.Name, handler queue.Handler, topics []string) error {
	group, err := bus.NewConsumerGroup(groupName.String())
	if err != nil {
		return err
	}

	runnerCfg := queue.RunnerConfig{
		Name:          groupName.String(),
		MaxConcurrent: settings.Consumer.MaxConcurrent,
		MaxRetries:    settings.Consumer.MaxRetries,
		BaseDelay:     time.Duration(settings.Consumer.BaseDelayMs) * time.Millisecond,
		MaxDelay:      time.Duration(settings.Consumer.MaxDelayMs) * time.Millisecond,
	}
	runner := queue.NewRunner(runnerCfg, handler, cache)

	logger.Info("consumer starting", "name", groupName.String(), "topics", topics)
	err = runner.Run(ctx, group, topics)
	runner.Shutdown()
	return err
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
