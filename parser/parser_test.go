package parser

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/cacher"
	"github.com/gemwallet/walletcore/chain"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

type fakeStore struct {
	mu    sync.Mutex
	state primitives.ParserState
}

func (f *fakeStore) GetParserState(primitives.ChainId) (primitives.ParserState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeStore) UpsertParserState(state primitives.ParserState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	return nil
}

type fakeCache struct{}

func (fakeCache) Set(cacher.CacheKey, interface{}) error { return nil }

type publishedMessage struct {
	queue   queue.Name
	payload interface{}
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (f *fakePublisher) PublishQueue(q queue.Name, payload interface{}, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, publishedMessage{queue: q, payload: payload})
	return nil
}

func newTestRunner(t *testing.T, state primitives.ParserState, provider chain.Provider) (*Runner, *fakeStore, *fakePublisher) {
	t.Helper()
	registry := chain.NewRegistry()
	registry.Register(primitives.ChainEthereum, provider)

	store := &fakeStore{state: state}
	pub := &fakePublisher{}
	runner := NewRunner(Config{BaseTimeout: 10 * time.Millisecond}, store, fakeCache{}, pub, registry, nil)
	return runner, store, pub
}

func TestTickEmitsParsePayloadAndAdvancesState(t *testing.T) {
	provider := chain.NewMemoryProvider()
	provider.SetLatestBlock(10)
	provider.SetBlockTransactions(6, []primitives.Transaction{{ID: "ethereum_0xa"}})

	state := primitives.ParserState{
		Chain:          primitives.ChainEthereum,
		CurrentBlock:   5,
		IsEnabled:      true,
		ParallelBlocks: 3,
		AwaitBlocks:    1,
	}
	runner, store, pub := newTestRunner(t, state, provider)

	sleep, err := runner.tick(primitives.ChainEthereum)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sleep, time.Duration(0))

	assert.Equal(t, int64(8), store.state.CurrentBlock)
	assert.Equal(t, int64(10), store.state.LatestBlock)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.messages, 3)
	for _, m := range pub.messages {
		assert.Equal(t, queue.QueueStoreTransactions.PerChain("ethereum"), m.queue)
	}
}

func TestTickEnqueuesWhenFarBehind(t *testing.T) {
	provider := chain.NewMemoryProvider()
	provider.SetLatestBlock(1000)

	behind := int32(2)
	state := primitives.ParserState{
		Chain:             primitives.ChainEthereum,
		CurrentBlock:      5,
		IsEnabled:         true,
		ParallelBlocks:    3,
		AwaitBlocks:       1,
		QueueBehindBlocks: &behind,
	}
	runner, _, pub := newTestRunner(t, state, provider)

	_, err := runner.tick(primitives.ChainEthereum)
	require.NoError(t, err)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.messages, 1)
	assert.Equal(t, queue.QueueFetchBlocks.PerChain("ethereum"), pub.messages[0].queue)
	rangePayload, ok := pub.messages[0].payload.(BlockRangePayload)
	require.True(t, ok)
	assert.Equal(t, []int64{6, 7, 8}, rangePayload.Blocks)
}

func TestTickSkipsDisabledChain(t *testing.T) {
	provider := chain.NewMemoryProvider()
	state := primitives.ParserState{Chain: primitives.ChainEthereum, IsEnabled: false}
	runner, store, pub := newTestRunner(t, state, provider)

	_, err := runner.tick(primitives.ChainEthereum)
	require.NoError(t, err)

	assert.Equal(t, int64(0), store.state.CurrentBlock, "disabled chain state is untouched")
	assert.Empty(t, pub.messages)
}

func TestTickReturnsNilPlanSleepWhenNothingToDo(t *testing.T) {
	provider := chain.NewMemoryProvider()
	provider.SetLatestBlock(5)

	state := primitives.ParserState{
		Chain:                primitives.ChainEthereum,
		CurrentBlock:         5,
		IsEnabled:            true,
		ParallelBlocks:       3,
		AwaitBlocks:          1,
		TimeoutLatestBlockMs: 2500,
	}
	runner, store, pub := newTestRunner(t, state, provider)

	sleep, err := runner.tick(primitives.ChainEthereum)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, sleep)
	assert.Equal(t, int64(5), store.state.LatestBlock, "latest block is persisted even with nothing to parse")
	assert.Empty(t, pub.messages)
}

func TestShutdownWaitsForChainLoops(t *testing.T) {
	provider := chain.NewMemoryProvider()
	state := primitives.ParserState{Chain: primitives.ChainEthereum, IsEnabled: false}
	runner, _, _ := newTestRunner(t, state, provider)

	runner.Start([]primitives.ChainId{primitives.ChainEthereum})
	done := make(chan struct{})
	go func() {
		runner.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return in time")
	}
}
