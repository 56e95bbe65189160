// shared/models/account.go
package models

import (
	"time"
)

// TransactionKind classifies a ledger history entry.
type TransactionKind string

const (
	TxDeposit    TransactionKind = "deposit"
	TxWithdraw   TransactionKind = "withdraw"
	TxTransfer   TransactionKind = "transfer"
	TxMarketBuy  TransactionKind = "market_buy"
	TxMarketSell TransactionKind = "market_sell"
	TxBonus      TransactionKind = "bonus"
)

// HistoryLimit caps how many transactions are kept per account, newest first.
const HistoryLimit = 50

// Transaction is one entry of an account's bounded history. The history is
// observational: the balance key is the authoritative record, and after a
// crash the history may lag it by the last append.
type Transaction struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	Kind             TransactionKind `json:"kind"`
	Amount           int64           `json:"amount"` // signed: negative for debits
	ResultingBalance Coins           `json:"resultingBalance"`
	Description      string          `json:"description,omitempty"`
}

// Account is the read-model a caller gets back for a player: the balance key
// and the history key joined into one view. Accounts are created lazily on
// first credit and never deleted; an absent balance key simply reads as 0.
type Account struct {
	PlayerUUID string        `json:"playerUuid"`
	Balance    Coins         `json:"balance"`
	History    []Transaction `json:"history"`
}
