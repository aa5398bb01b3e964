package primitives

import "time"

// ParserState is the authoritative, per-chain cursor the parser runtime
// reads at the top of every loop iteration and writes back after planning.
type ParserState struct {
	Chain                  ChainId   `json:"chain" gorm:"column:chain;primary_key"`
	CurrentBlock           int64     `json:"current_block" gorm:"column:current_block"`
	LatestBlock            int64     `json:"latest_block" gorm:"column:latest_block"`
	IsEnabled              bool      `json:"is_enabled" gorm:"column:is_enabled"`
	ParallelBlocks         int32     `json:"parallel_blocks" gorm:"column:parallel_blocks"`
	AwaitBlocks            int32     `json:"await_blocks" gorm:"column:await_blocks"`
	TimeoutBetweenBlocksMs int64     `json:"timeout_between_blocks_ms" gorm:"column:timeout_between_blocks_ms"`
	TimeoutLatestBlockMs   int64     `json:"timeout_latest_block_ms" gorm:"column:timeout_latest_block_ms"`
	QueueBehindBlocks      *int32    `json:"queue_behind_blocks,omitempty" gorm:"column:queue_behind_blocks"`
	BlockTimeMs            int64     `json:"block_time_ms" gorm:"column:block_time_ms"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName satisfies gorm's Tabler interface.
func (ParserState) TableName() string { return "parser_state" }

// Valid reports whether the current_block <= latest_block - await_blocks
// invariant holds, the post-condition every plan_next_block caller must
// restore before persisting.
func (s ParserState) Valid() bool {
	return int64(s.AwaitBlocks) >= 0 && s.CurrentBlock <= s.LatestBlock-int64(s.AwaitBlocks)
}
