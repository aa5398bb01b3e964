// Command parser runs the per-chain block planner and fetch loop of spec
// §4.4. Without --chain it drives every chain configured in settings (every
// chain in the closed set if none is configured); given --chain it drives
// only that chain — the flag form of main.rs's run_parser_mode, which
// narrows its chain list to a single chain named on argv.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/chain"
	"github.com/gemwallet/walletcore/config"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/metrics"
	"github.com/gemwallet/walletcore/parser"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
	"github.com/gemwallet/walletcore/storage"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleCmd)

func main() {
	app := cli.NewApp()
	app.Name = "parser"
	app.Usage = "run the per-chain block parser loop"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Value: "config.toml", Usage: "path to the TOML settings file"},
		cli.StringFlag{Name: "chain", Usage: "restrict the run to a single chain id; all configured chains otherwise"},
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

	db, err := storage.Open(storage.Config{DSN: settings.Postgres.URL, MaxOpenConn: settings.Postgres.Pool})
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := cacher.New(settings.Redis.URL, "", 0)
	if err != nil {
		return err
	}
	defer cache.Close()

	brokers := strings.Split(settings.Rabbitmq.URL, ",")
	bus, err := queue.New(queue.Config{Brokers: brokers})
	if err != nil {
		return err
	}
	defer bus.Close()

	registry := chain.NewRegistry()
	chains := resolveChains(ctx.String("chain"), settings)
	for _, chainID := range chains {
		// Real per-chain RPC adapters are out of this repository's scope
		// (spec §1); MemoryProvider stands in so the loop is runnable
		// end to end against a seeded fixture.
		registry.Register(chainID, chain.NewMemoryProvider())
	}

	jobMetrics := metrics.NewJobMetrics("parser")
	parserMetrics := metrics.NewParserMetrics(jobMetrics)

	runnerCfg := parser.Config{
		BaseTimeout: time.Duration(settings.Parser.TimeoutMs) * time.Millisecond,
	}
	runner := parser.NewRunner(runnerCfg, db, cache, bus, registry, parserMetrics)

	logger.Info("parser starting", "chains", chainStrings(chains))
	runner.Start(chains)

	waitForSignal()
	logger.Info("parser shutting down")
	runner.Shutdown()
	return nil
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// resolveChains mirrors main.rs's chain resolution: a single chain named
// on the command line narrows the run, otherwise every chain configured
// with an upstream endpoint runs.
func resolveChains(only string, settings *config.Settings) []primitives.ChainId {
	if only != "" {
		if id, err := primitives.ChainFromString(only); err == nil {
			return []primitives.ChainId{id}
		}
		logger.Warn("unknown chain requested, falling back to configured chains", "chain", only)
	}

	chains := make([]primitives.ChainId, 0, len(settings.Chains))
	for chainID := range settings.Chains {
		chains = append(chains, chainID)
	}
	if len(chains) == 0 {
		return primitives.AllChains()
	}
	return chains
}

func chainStrings(chains []primitives.ChainId) []string {
	out := make([]string, len(chains))
	for i, c := range chains {
		out[i] = c.String()
	}
	return out
}
