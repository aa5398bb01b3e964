// Package plan implements the per-chain block planner of spec §4.3 as pure
// functions over primitives.ParserState, grounded on
// original_source/apps/daemon/src/parser/plan.rs.
package plan

import (
	"time"

	"github.com/gemwallet/walletcore/primitives"
)

// Kind selects whether a BlockPlan's blocks should be processed inline
// (Parse) or pushed to the fetch-blocks queue for scale-out workers
// (Enqueue).
type Kind int

const (
	Parse Kind = iota
	Enqueue
)

// BlockRange is the contiguous span of block numbers a plan covers.
type BlockRange struct {
	Blocks    []int64
	EndBlock  int64
	Remaining int64
}

// BlockPlan is the result of PlanNextBlock: either nil (nothing to do yet)
// or a contiguous, ascending range with a processing Kind.
type BlockPlan struct {
	Range BlockRange
	Kind  Kind
}

// PlanNextBlock computes the next batch of blocks to fetch for a chain,
// given its ParserState and freshly observed current/latest block heights.
// Returns nil when there is nothing to plan (including when ParallelBlocks
// <= 0, which yields start_block > end_block immediately).
func PlanNextBlock(state primitives.ParserState, currentBlock, latestBlock int64) *BlockPlan {
	startBlock := currentBlock + 1
	endBlock := min64(startBlock+int64(state.ParallelBlocks)-1, latestBlock-int64(state.AwaitBlocks))
	if endBlock < startBlock {
		return nil
	}

	blocks := make([]int64, 0, endBlock-startBlock+1)
	for b := startBlock; b <= endBlock; b++ {
		blocks = append(blocks, b)
	}

	remaining := latestBlock - endBlock - int64(state.AwaitBlocks)

	kind := Parse
	if state.QueueBehindBlocks != nil && remaining > int64(*state.QueueBehindBlocks) {
		kind = Enqueue
	}

	return &BlockPlan{
		Range: BlockRange{Blocks: blocks, EndBlock: endBlock, Remaining: remaining},
		Kind:  kind,
	}
}

// TimeoutForState returns the larger of the chain's configured
// timeout_latest_block and a process-wide base timeout.
func TimeoutForState(state primitives.ParserState, base time.Duration) time.Duration {
	stateTimeout := time.Duration(state.TimeoutLatestBlockMs) * time.Millisecond
	if stateTimeout > base {
		return stateTimeout
	}
	return base
}

// ShouldReloadCatchup reports whether the parser should re-read its
// ParserState from the DB mid-catchup, signaled every interval blocks of
// remaining distance.
func ShouldReloadCatchup(remaining, interval int64) bool {
	return interval > 0 && remaining%interval == 0
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
