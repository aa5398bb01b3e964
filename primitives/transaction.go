package primitives

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType is a closed enumeration of the transaction kinds the
// transactions consumer and pusher understand.
type TransactionType string

const (
	TransactionTypeTransfer        TransactionType = "transfer"
	TransactionTypeSwap            TransactionType = "swap"
	TransactionTypeTokenApproval   TransactionType = "token_approval"
	TransactionTypeStakeDelegate   TransactionType = "stake_delegate"
	TransactionTypeStakeUndelegate TransactionType = "stake_undelegate"
)

// TransactionState models the Pending -> {Confirmed, Reverted, Failed}
// state machine. Confirmed, Reverted and Failed are terminal.
type TransactionState string

const (
	TransactionStatePending   TransactionState = "pending"
	TransactionStateConfirmed TransactionState = "confirmed"
	TransactionStateReverted  TransactionState = "reverted"
	TransactionStateFailed    TransactionState = "failed"
)

// Terminal reports whether s accepts no further transitions.
func (s TransactionState) Terminal() bool {
	return s == TransactionStateConfirmed || s == TransactionStateReverted || s == TransactionStateFailed
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition under the Pending -> terminal state machine. This is the
// single place that enforces the invariant; storage.DB.UpsertTransaction
// calls it before writing.
func (s TransactionState) CanTransitionTo(next TransactionState) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return true
}

// TransactionId is "<chain>_<hash>", validated against the closed chain set
// on parse. Grounded on the original's TransactionId type: Display and
// FromStr must round-trip for every valid id.
type TransactionId struct {
	Chain ChainId
	Hash  string
}

// NewTransactionId constructs a TransactionId from an already-validated
// chain and a hash.
func NewTransactionId(chain ChainId, hash string) TransactionId {
	return TransactionId{Chain: chain, Hash: hash}
}

func (t TransactionId) String() string {
	return fmt.Sprintf("%s_%s", t.Chain.String(), t.Hash)
}

// ParseTransactionId splits on the first underscore, mirroring the
// original's splitn(2, '_') so hashes that themselves contain underscores
// are preserved intact.
func ParseTransactionId(s string) (TransactionId, error) {
	i := strings.IndexByte(s, '_')
	if i < 0 {
		return TransactionId{}, fmt.Errorf("primitives: invalid transaction id %q: expected chain_hash", s)
	}
	chainStr, hash := s[:i], s[i+1:]
	chain, err := ChainFromString(chainStr)
	if err != nil {
		return TransactionId{}, fmt.Errorf("primitives: invalid transaction id %q: %w", s, err)
	}
	return TransactionId{Chain: chain, Hash: hash}, nil
}

// MarshalJSON renders the id as its Display string, matching the
// original's custom Serialize impl.
func (t TransactionId) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

// UnmarshalJSON parses the Display string back into a TransactionId.
func (t *TransactionId) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseTransactionId(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UtxoInput and UtxoOutput carry the optional UTXO-chain detail referenced
// by Transaction.
type UtxoInput struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

type UtxoOutput struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

// Transaction is the normalized, chain-agnostic transaction row.
type Transaction struct {
	ID          string           `json:"id" gorm:"column:id;primary_key"`
	AssetID     AssetId          `json:"asset_id" gorm:"column:asset_id"`
	From        string           `json:"from" gorm:"column:from_address"`
	To          string           `json:"to" gorm:"column:to_address"`
	Memo        string           `json:"memo,omitempty" gorm:"column:memo"`
	Type        TransactionType  `json:"type" gorm:"column:type"`
	State       TransactionState `json:"state" gorm:"column:state"`
	BlockNumber int64            `json:"block_number" gorm:"column:block_number"`
	Sequence    int64            `json:"sequence" gorm:"column:sequence"`
	Fee         string           `json:"fee" gorm:"column:fee"`
	FeeAssetID  AssetId          `json:"fee_asset_id" gorm:"column:fee_asset_id"`
	Value       string           `json:"value" gorm:"column:value"`
	CreatedAt   time.Time        `json:"created_at" gorm:"column:created_at"`
	UtxoInputs  []UtxoInput      `json:"utxo_inputs,omitempty" gorm:"-"`
	UtxoOutputs []UtxoOutput     `json:"utxo_outputs,omitempty" gorm:"-"`
}

// TableName satisfies gorm's Tabler interface.
func (Transaction) TableName() string { return "transactions" }

// TransactionID returns the parsed, validated TransactionId for t.ID.
func (t Transaction) TransactionID() (TransactionId, error) {
	return ParseTransactionId(t.ID)
}

// Chain returns t's chain without validating it, for callers on hot paths
// that already know t.ID is well formed.
func (t Transaction) Chain() ChainId {
	return AssetId(t.ID).Chain()
}

// Addresses returns every distinct address involved in t — from, to, and
// any UTXO input/output addresses — the set the transactions consumer's
// subscription match step fans out over.
func (t Transaction) Addresses() []string {
	seen := make(map[string]struct{}, 2+len(t.UtxoInputs)+len(t.UtxoOutputs))
	var out []string
	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	add(t.From)
	add(t.To)
	for _, in := range t.UtxoInputs {
		add(in.Address)
	}
	for _, o := range t.UtxoOutputs {
		add(o.Address)
	}
	return out
}
