package parser

import "github.com/gemwallet/walletcore/primitives"

// TransactionsPayload is the message the parser runtime emits to
// store_transactions.<chain> for every block it parses inline (spec §4.4
// step 5, Parse plan branch).
type TransactionsPayload struct {
	Chain        primitives.ChainId       `json:"chain"`
	Block        int64                    `json:"block"`
	Transactions []primitives.Transaction `json:"transactions"`
}

// BlockRangePayload is the message pushed to fetch_blocks for an Enqueue
// plan, handed off to scale-out workers instead of processed inline.
type BlockRangePayload struct {
	Chain  primitives.ChainId `json:"chain"`
	Blocks []int64            `json:"blocks"`
}
