// Package pusher builds and sends push notifications for the
// notifications_transactions / notifications_rewards queues (spec §4.6),
// grounded on original_source/parser/src/pusher.rs's Pusher.message/push
// pair: three templates keyed by TransactionType, resolved via an address
// short-form helper, sent through an external push gateway client.
package pusher

import (
	"fmt"

	"github.com/gemwallet/walletcore/primitives"
)

// Message is the {title, message} pair a push notification renders,
// mirroring the original's Message struct.
type Message struct {
	Title   string
	Message string
}

// shortAddress renders addr's first 6 and last 4 characters, the
// AddressFormatter::short the original calls before interpolating an
// address into a push body. Addresses shorter than that are returned
// unchanged.
func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// BuildMessage renders the push body for tx as seen from subscription's
// address, resolving asset symbols via assetSymbol (typically
// storage.DB.GetAsset narrowed to .Symbol).
func BuildMessage(tx primitives.Transaction, subscriptionAddress string, assetSymbol func(primitives.AssetId) (string, error)) (Message, error) {
	symbol, err := assetSymbol(tx.AssetID)
	if err != nil {
		return Message{}, err
	}

	switch tx.Type {
	case primitives.TransactionTypeTransfer:
		return transferMessage(tx, subscriptionAddress, symbol), nil
	case primitives.TransactionTypeTokenApproval:
		return Message{Title: fmt.Sprintf("Token Approval for %s", symbol), Message: ""}, nil
	case primitives.TransactionTypeSwap:
		// The original resolves both sides of a swap from transaction
		// metadata this model doesn't carry (spec §3 has no swap-metadata
		// field); the asset this transaction is keyed on is the only side
		// available here.
		return Message{Title: fmt.Sprintf("Swap %s", symbol), Message: ""}, nil
	default:
		return Message{Title: symbol, Message: ""}, nil
	}
}

func transferMessage(tx primitives.Transaction, subscriptionAddress, symbol string) Message {
	title := fmt.Sprintf("Transfer %s %s", tx.Value, symbol)

	isOutgoing := tx.From == subscriptionAddress
	for _, in := range tx.UtxoInputs {
		if in.Address == subscriptionAddress {
			isOutgoing = true
		}
	}

	var message string
	if isOutgoing {
		message = fmt.Sprintf("To %s", shortAddress(tx.To))
	} else {
		message = fmt.Sprintf("From %s", shortAddress(tx.From))
	}
	return Message{Title: title, Message: message}
}
