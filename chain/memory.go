package chain

import (
	"context"
	"sync"

	"github.com/gemwallet/walletcore/primitives"
)

// MemoryProvider is the one illustrative Provider implementation this
// repository carries: an in-memory fixture used by tests and registered by
// cmd/parser for every chain it runs, standing in for the 30 real chain adapters
// that are out of scope per spec §1.
type MemoryProvider struct {
	mu           sync.Mutex
	latestBlock  int64
	transactions map[int64][]primitives.Transaction
	tokens       map[string]primitives.Asset
}

// NewMemoryProvider returns an empty MemoryProvider at block height 0.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		transactions: make(map[int64][]primitives.Transaction),
		tokens:       make(map[string]primitives.Asset),
	}
}

// SetLatestBlock sets the height GetLatestBlock reports.
func (m *MemoryProvider) SetLatestBlock(block int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestBlock = block
}

// SetBlockTransactions seeds the transactions GetTransactions returns for
// a given block.
func (m *MemoryProvider) SetBlockTransactions(block int64, txs []primitives.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[block] = txs
}

// SetTokenData seeds the Asset GetTokenData returns for a token id.
func (m *MemoryProvider) SetTokenData(tokenID string, asset primitives.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenID] = asset
}

func (m *MemoryProvider) GetLatestBlock(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestBlock, nil
}

func (m *MemoryProvider) GetTransactions(ctx context.Context, block int64) ([]primitives.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[block], nil
}

func (m *MemoryProvider) GetTokenData(ctx context.Context, tokenID string) (primitives.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.tokens[tokenID]
	if !ok {
		return primitives.Asset{}, errTokenNotFound(tokenID)
	}
	return asset, nil
}

type errTokenNotFound string

func (e errTokenNotFound) Error() string { return "chain: unknown token " + string(e) }

var (
	_ Provider          = (*MemoryProvider)(nil)
	_ TokenDataProvider = (*MemoryProvider)(nil)
)
