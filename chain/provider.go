// Package chain defines the minimal provider contract the parser runtime
// drives per chain, grounded on the teacher's BlockChain interface
// (datasync/chaindatafetcher/chaindata_fetcher.go) — a small required
// surface plus optional capability interfaces checked via type assertion,
// rather than one large interface every adapter must fully implement.
package chain

import (
	"context"

	"github.com/gemwallet/walletcore/primitives"
)

// Provider is the required capability set every chain adapter implements.
// Concrete per-chain adapters (30 of them in the full system) are outside
// this repository's scope; this package only defines the contract and a
// registry.
type Provider interface {
	// GetLatestBlock returns the chain's current block height.
	GetLatestBlock(ctx context.Context) (int64, error)

	// GetTransactions returns the normalized transactions contained in a
	// single block.
	GetTransactions(ctx context.Context, block int64) ([]primitives.Transaction, error)
}

// TokenDataProvider is an optional capability: chains that can resolve
// token metadata implement it; Registry.TokenData checks for it via a type
// assertion.
type TokenDataProvider interface {
	GetTokenData(ctx context.Context, tokenID string) (primitives.Asset, error)
}

// BalanceProvider is an optional capability for chains that can report an
// address's asset balances directly.
type BalanceProvider interface {
	GetAssetsBalances(ctx context.Context, address string) ([]primitives.AssetBalance, error)
}

// Registry maps a ChainId to its Provider, built once at process startup
// and passed down through constructors — never a package-level singleton
// (SPEC_FULL.md §9's "global registries" note).
type Registry struct {
	providers map[primitives.ChainId]Provider
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[primitives.ChainId]Provider)}
}

// Register binds chain to provider. Re-registering a chain overwrites its
// previous binding, useful for tests that swap in a fake provider.
func (r *Registry) Register(chainID primitives.ChainId, provider Provider) {
	r.providers[chainID] = provider
}

// Get returns the Provider registered for chain, and false if none is.
func (r *Registry) Get(chainID primitives.ChainId) (Provider, bool) {
	p, ok := r.providers[chainID]
	return p, ok
}

// TokenData returns chain's provider narrowed to TokenDataProvider, and
// false if the chain has no provider or its provider lacks the capability.
func (r *Registry) TokenData(chainID primitives.ChainId) (TokenDataProvider, bool) {
	p, ok := r.providers[chainID]
	if !ok {
		return nil, false
	}
	td, ok := p.(TokenDataProvider)
	return td, ok
}

// Balances returns chain's provider narrowed to BalanceProvider, and false
// if the chain has no provider or its provider lacks the capability.
func (r *Registry) Balances(chainID primitives.ChainId) (BalanceProvider, bool) {
	p, ok := r.providers[chainID]
	if !ok {
		return nil, false
	}
	bp, ok := p.(BalanceProvider)
	return bp, ok
}

// Chains returns every chain currently registered.
func (r *Registry) Chains() []primitives.ChainId {
	out := make([]primitives.ChainId, 0, len(r.providers))
	for c := range r.providers {
		out = append(out, c)
	}
	return out
}
