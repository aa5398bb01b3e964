// Package parser is the long-running per-chain block planner and fetch
// loop of spec §4.4, grounded on the teacher's
// datasync/chaindatafetcher/chaindata_fetcher.go: one goroutine per unit of
// work (there, per handler; here, per chain), coordinated by a shared
// stopCh/sync.WaitGroup pair rather than per-goroutine contexts, so Shutdown
// can wait for every chain loop to observe the close and return.
package parser

import (
	"context"
	"sync"
	"time"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/chain"
	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/gemlog"
	"github.com/gemwallet/walletcore/parser/plan"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleParser)

// MetricsReporter is the narrow surface the parser loop reports through.
// metrics.ParserMetrics satisfies it; accepting an interface here instead of
// the concrete type keeps this package free of a dependency on metrics.
type MetricsReporter interface {
	RecordBlockHeight(chain primitives.ChainId, height int64)
	RecordLoopError(chain primitives.ChainId, err error)
}

// Publisher is the narrow surface of *queue.Bus the parser loop needs.
// Accepting the interface instead of the concrete type lets tests exercise
// the loop with an in-memory fake instead of a live broker.
type Publisher interface {
	PublishQueue(queue queue.Name, payload interface{}, metadata map[string]string) error
}

// Store is the narrow surface of *storage.DB the parser loop needs.
type Store interface {
	GetParserState(chain primitives.ChainId) (primitives.ParserState, error)
	UpsertParserState(state primitives.ParserState) error
}

// Cache is the narrow surface of *cacher.Client the parser loop needs.
type Cache interface {
	Set(key cacher.CacheKey, value interface{}) error
}

// Config controls the runtime's retry/backoff and catchup-reload behavior.
// Per-chain tuning (parallel_blocks, await_blocks, ...) lives on
// primitives.ParserState instead.
type Config struct {
	BaseTimeout           time.Duration
	CatchupReloadInterval int64
}

// Runner drives one goroutine per registered chain.
type Runner struct {
	cfg      Config
	db       Store
	cache    Cache
	bus      Publisher
	registry *chain.Registry
	metrics  MetricsReporter

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner builds a Runner. All dependencies are passed explicitly; there
// is no package-level singleton (the same discipline queue.Bus and
// chain.Registry follow). db, cache and bus are typically *storage.DB,
// *cacher.Client and *queue.Bus respectively.
func NewRunner(cfg Config, db Store, cache Cache, bus Publisher, registry *chain.Registry, metrics MetricsReporter) *Runner {
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = 5 * time.Second
	}
	return &Runner{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		bus:      bus,
		registry: registry,
		metrics:  metrics,
		stopCh:   make(chan struct{}),
	}
}

// Start launches one loop goroutine per chain in chains. Chains without a
// registered provider are skipped with a logged error rather than aborting
// every other chain's loop.
func (r *Runner) Start(chains []primitives.ChainId) {
	for _, c := range chains {
		if _, ok := r.registry.Get(c); !ok {
			logger.Error("no provider registered for chain, skipping", "chain", c)
			continue
		}
		r.wg.Add(1)
		go r.runChain(c)
	}
}

// Shutdown signals every chain loop to stop and waits for them to return.
func (r *Runner) Shutdown() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Runner) runChain(chainID primitives.ChainId) {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		sleep, err := r.tick(chainID)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordLoopError(chainID, err)
			}
			logger.Error("parser loop iteration failed", "chain", chainID, "err", err)
			sleep = r.cfg.BaseTimeout
		}

		select {
		case <-r.stopCh:
			return
		case <-time.After(sleep):
		}
	}
}

// tick performs one iteration of spec §4.4's seven steps and returns how
// long the loop should sleep before the next iteration.
func (r *Runner) tick(chainID primitives.ChainId) (time.Duration, error) {
	state, err := r.db.GetParserState(chainID)
	if err != nil {
		return r.cfg.BaseTimeout, err
	}
	if !state.IsEnabled {
		return r.cfg.BaseTimeout, nil
	}

	provider, ok := r.registry.Get(chainID)
	if !ok {
		return r.cfg.BaseTimeout, errs.New(errs.Fatal, "parser: no provider for chain "+chainID.String())
	}

	timeout := plan.TimeoutForState(state, r.cfg.BaseTimeout)

	latestCtx, cancelLatest := context.WithTimeout(context.Background(), timeout)
	latest, err := provider.GetLatestBlock(latestCtx)
	cancelLatest()
	if err != nil {
		return r.cfg.BaseTimeout, errs.Wrap(errs.Upstream, "parser: get_latest_block", err)
	}

	if err := r.cache.Set(cacher.NewParserLatestBlockKey(chainID.String()), latest); err != nil {
		logger.Warn("failed to cache latest block", "chain", chainID, "err", err)
	}
	if r.metrics != nil {
		r.metrics.RecordBlockHeight(chainID, latest)
	}

	blockPlan := plan.PlanNextBlock(state, state.CurrentBlock, latest)
	if blockPlan == nil {
		state.LatestBlock = latest
		if err := r.db.UpsertParserState(state); err != nil {
			return r.cfg.BaseTimeout, err
		}
		return time.Duration(state.TimeoutLatestBlockMs) * time.Millisecond, nil
	}

	if blockPlan.Kind == plan.Enqueue {
		payload := BlockRangePayload{Chain: chainID, Blocks: blockPlan.Range.Blocks}
		queueName := queue.QueueFetchBlocks.PerChain(chainID.String())
		if err := r.bus.PublishQueue(queueName, payload, nil); err != nil {
			return r.cfg.BaseTimeout, errs.Wrap(errs.Transient, "parser: publish fetch_blocks", err)
		}
	} else {
		fetchCtx, cancelFetch := context.WithTimeout(context.Background(), timeout)
		err := r.parseInline(fetchCtx, provider, chainID, blockPlan.Range.Blocks)
		cancelFetch()
		if err != nil {
			return r.cfg.BaseTimeout, err
		}
	}

	if plan.ShouldReloadCatchup(blockPlan.Range.Remaining, r.cfg.CatchupReloadInterval) {
		logger.Debug("mid-catchup state reload checkpoint", "chain", chainID, "remaining", blockPlan.Range.Remaining)
	}

	state.CurrentBlock = blockPlan.Range.EndBlock
	state.LatestBlock = latest
	if err := r.db.UpsertParserState(state); err != nil {
		return r.cfg.BaseTimeout, err
	}

	return time.Duration(state.TimeoutBetweenBlocksMs) * time.Millisecond, nil
}

// parseInline fetches each block's transactions in parallel (bounded by
// parallel_blocks, implicit in len(blocks)) and emits one TransactionsPayload
// per block to store_transactions.<chain>.
func (r *Runner) parseInline(ctx context.Context, provider chain.Provider, chainID primitives.ChainId, blocks []int64) error {
	type result struct {
		block int64
		txs   []primitives.Transaction
		err   error
	}

	results := make(chan result, len(blocks))
	var wg sync.WaitGroup
	for _, b := range blocks {
		wg.Add(1)
		go func(block int64) {
			defer wg.Done()
			txs, err := provider.GetTransactions(ctx, block)
			results <- result{block: block, txs: txs, err: err}
		}(b)
	}
	wg.Wait()
	close(results)

	queueName := queue.QueueStoreTransactions.PerChain(chainID.String())
	for res := range results {
		if res.err != nil {
			return errs.Wrap(errs.Upstream, "parser: get_transactions", res.err)
		}
		payload := TransactionsPayload{Chain: chainID, Block: res.block, Transactions: res.txs}
		if err := r.bus.PublishQueue(queueName, payload, nil); err != nil {
			return errs.Wrap(errs.Transient, "parser: publish store_transactions", err)
		}
	}
	return nil
}
