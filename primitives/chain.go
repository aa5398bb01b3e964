// Package primitives defines the shared data model: chains, assets, prices,
// transactions, subscriptions, devices and the parser/cache row shapes that
// every other package builds on.
package primitives

import "fmt"

// ChainType groups chains by the shape of their address/transaction model.
type ChainType string

const (
	ChainTypeEVM      ChainType = "evm"
	ChainTypeUTXO     ChainType = "utxo"
	ChainTypeSolana   ChainType = "solana"
	ChainTypeCosmos   ChainType = "cosmos"
	ChainTypeSui      ChainType = "sui"
	ChainTypeTon      ChainType = "ton"
	ChainTypeTron     ChainType = "tron"
	ChainTypeXRP      ChainType = "xrp"
	ChainTypeNear     ChainType = "near"
	ChainTypeAptos    ChainType = "aptos"
	ChainTypeStellar  ChainType = "stellar"
	ChainTypeCardano  ChainType = "cardano"
	ChainTypePolkadot ChainType = "polkadot"
	ChainTypeAlgorand ChainType = "algorand"
)

// ChainId is a member of the closed set of chains the system ingests.
// New chains are added here, never passed in as free-form configuration.
type ChainId string

const (
	ChainBitcoin  ChainId = "bitcoin"
	ChainLitecoin ChainId = "litecoin"
	ChainDogecoin ChainId = "doge"
	ChainEthereum ChainId = "ethereum"
	ChainPolygon  ChainId = "polygon"
	ChainArbitrum ChainId = "arbitrum"
	ChainOptimism ChainId = "optimism"
	ChainBSC      ChainId = "smartchain"
	ChainSolana   ChainId = "solana"
	ChainCosmos   ChainId = "cosmos"
	ChainSui      ChainId = "sui"
	ChainTon      ChainId = "ton"
	ChainTron     ChainId = "tron"
	ChainXRP      ChainId = "xrp"
	ChainNear     ChainId = "near"
	ChainAptos    ChainId = "aptos"
	ChainStellar  ChainId = "stellar"
	ChainCardano  ChainId = "cardano"
	ChainPolkadot ChainId = "polkadot"
	ChainAlgorand ChainId = "algorand"
)

type chainInfo struct {
	chainType   ChainType
	blockTimeMs int64
}

// chainRegistry is the closed enumeration backing ChainFromString. It is
// built once at init and never mutated — adding a chain is a code change.
var chainRegistry = map[ChainId]chainInfo{
	ChainBitcoin:  {ChainTypeUTXO, 600_000},
	ChainLitecoin: {ChainTypeUTXO, 150_000},
	ChainDogecoin: {ChainTypeUTXO, 60_000},
	ChainEthereum: {ChainTypeEVM, 12_000},
	ChainPolygon:  {ChainTypeEVM, 2_000},
	ChainArbitrum: {ChainTypeEVM, 250},
	ChainOptimism: {ChainTypeEVM, 2_000},
	ChainBSC:      {ChainTypeEVM, 3_000},
	ChainSolana:   {ChainTypeSolana, 400},
	ChainCosmos:   {ChainTypeCosmos, 6_000},
	ChainSui:      {ChainTypeSui, 3_000},
	ChainTon:      {ChainTypeTon, 5_000},
	ChainTron:     {ChainTypeTron, 3_000},
	ChainXRP:      {ChainTypeXRP, 4_000},
	ChainNear:     {ChainTypeNear, 1_000},
	ChainAptos:    {ChainTypeAptos, 1_000},
	ChainStellar:  {ChainTypeStellar, 5_000},
	ChainCardano:  {ChainTypeCardano, 20_000},
	ChainPolkadot: {ChainTypePolkadot, 6_000},
	ChainAlgorand: {ChainTypeAlgorand, 4_000},
}

// AllChains returns every member of the closed chain set, in the fixed
// order the const block declares them — used by cmd/setup to seed a
// parser state and native asset row per chain, mirroring Chain::all() in
// the original settings crate.
func AllChains() []ChainId {
	return []ChainId{
		ChainBitcoin, ChainLitecoin, ChainDogecoin, ChainEthereum, ChainPolygon,
		ChainArbitrum, ChainOptimism, ChainBSC, ChainSolana, ChainCosmos,
		ChainSui, ChainTon, ChainTron, ChainXRP, ChainNear, ChainAptos,
		ChainStellar, ChainCardano, ChainPolkadot, ChainAlgorand,
	}
}

// ChainFromString validates s against the closed chain set instead of
// accepting arbitrary strings, mirroring the enum-over-string convention
// used throughout this package.
func ChainFromString(s string) (ChainId, error) {
	c := ChainId(s)
	if _, ok := chainRegistry[c]; !ok {
		return "", fmt.Errorf("primitives: unknown chain %q", s)
	}
	return c, nil
}

// Type returns the chain's address/transaction family.
func (c ChainId) Type() ChainType {
	return chainRegistry[c].chainType
}

// BlockTimeMs returns the chain's nominal time between blocks.
func (c ChainId) BlockTimeMs() int64 {
	return chainRegistry[c].blockTimeMs
}

func (c ChainId) String() string { return string(c) }

// Valid reports whether c is a member of the closed chain set.
func (c ChainId) Valid() bool {
	_, ok := chainRegistry[c]
	return ok
}

// OutdatedAfterSeconds is the per-chain transaction staleness threshold used
// by the transactions consumer's outdatedness filter.
func (c ChainId) OutdatedAfterSeconds() int64 {
	switch c {
	case ChainBitcoin:
		return 2 * 60 * 60
	case ChainLitecoin, ChainDogecoin:
		return 30 * 60
	default:
		return 15 * 60
	}
}
