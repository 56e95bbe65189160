// economy/store/account_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/google/uuid"
)

// AccountStore manages player coin balances and their bounded transaction
// histories in the versioned KV store. Every mutation goes through the
// TransactionCoordinator: each attempt re-reads live values, re-validates
// business rules against them, and commits with a version check on every key
// the decision depended on.
type AccountStore struct {
	kvStore kv.Store
	coord   *kv.Coordinator
	now     func() time.Time
}

// NewAccountStore creates a new AccountStore instance.
func NewAccountStore(kvStore kv.Store, coord *kv.Coordinator) *AccountStore {
	return &AccountStore{
		kvStore: kvStore,
		coord:   coord,
		now:     time.Now,
	}
}

// GetAccount returns the player's balance and history joined into one view.
// An account that was never credited reads as balance 0 with empty history.
func (as *AccountStore) GetAccount(ctx context.Context, playerUUID string) (*models.Account, error) {
	balance, _, err := readBalance(ctx, as.kvStore, playerUUID)
	if err != nil {
		return nil, err
	}
	history, _, err := readHistory(ctx, as.kvStore, playerUUID)
	if err != nil {
		return nil, err
	}
	return &models.Account{
		PlayerUUID: playerUUID,
		Balance:    balance,
		History:    history,
	}, nil
}

// GetBalance returns only the authoritative balance (absent key reads as 0).
func (as *AccountStore) GetBalance(ctx context.Context, playerUUID string) (models.Coins, error) {
	balance, _, err := readBalance(ctx, as.kvStore, playerUUID)
	return balance, err
}

// Deposit credits amount to the player's account, creating it lazily on
// first credit. kind distinguishes plain deposits from bonuses.
func (as *AccountStore) Deposit(ctx context.Context, playerUUID string, amount models.Coins, kind models.TransactionKind, description string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return as.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		balance, balVer, err := readBalance(ctx, as.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}
		newBalance := balance + amount
		if newBalance < balance {
			return nil, fmt.Errorf("balance overflow for player %s", playerUUID)
		}
		history, histVer, err := readHistory(ctx, as.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}

		tx := as.kvStore.Atomic()
		stageBalance(tx, playerUUID, balVer, newBalance)
		record := as.newTransaction(kind, int64(amount), newBalance, description)
		if err := stageHistory(tx, playerUUID, histVer, history, record); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// Withdraw debits amount from the player's account. The balance requirement
// is re-validated on every retry, so a concurrent spend cannot push the
// account negative.
func (as *AccountStore) Withdraw(ctx context.Context, playerUUID string, amount models.Coins, kind models.TransactionKind, description string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return as.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		balance, balVer, err := readBalance(ctx, as.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}
		if balance < amount {
			return nil, ErrInsufficientFunds
		}
		history, histVer, err := readHistory(ctx, as.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}

		tx := as.kvStore.Atomic()
		stageBalance(tx, playerUUID, balVer, balance-amount)
		record := as.newTransaction(kind, -int64(amount), balance-amount, description)
		if err := stageHistory(tx, playerUUID, histVer, history, record); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// Transfer moves amount from sender to recipient in one atomic commit,
// debiting the sender an additional fee of ceil(amount*feeRate). The fee
// leaves the economy. Both balances are version-checked so a concurrent
// operation on either side forces a clean retry instead of a lost update.
// Returns the fee that was collected.
func (as *AccountStore) Transfer(ctx context.Context, senderUUID, recipientUUID string, amount models.Coins, feeRate float64) (models.Coins, error) {
	if senderUUID == recipientUUID {
		return 0, ErrSelfTransfer
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	fee := models.Coins(math.Ceil(float64(amount) * feeRate))
	totalDebit := amount + fee
	if totalDebit < amount {
		return 0, fmt.Errorf("transfer amount overflow")
	}

	err := as.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		senderBalance, senderVer, err := readBalance(ctx, as.kvStore, senderUUID)
		if err != nil {
			return nil, err
		}
		if senderBalance < totalDebit {
			return nil, ErrInsufficientFunds
		}
		recipientBalance, recipientVer, err := readBalance(ctx, as.kvStore, recipientUUID)
		if err != nil {
			return nil, err
		}
		newRecipientBalance := recipientBalance + amount
		if newRecipientBalance < recipientBalance {
			return nil, fmt.Errorf("balance overflow for player %s", recipientUUID)
		}
		senderHistory, senderHistVer, err := readHistory(ctx, as.kvStore, senderUUID)
		if err != nil {
			return nil, err
		}
		recipientHistory, recipientHistVer, err := readHistory(ctx, as.kvStore, recipientUUID)
		if err != nil {
			return nil, err
		}

		tx := as.kvStore.Atomic()
		stageBalance(tx, senderUUID, senderVer, senderBalance-totalDebit)
		stageBalance(tx, recipientUUID, recipientVer, newRecipientBalance)

		out := as.newTransaction(models.TxTransfer, -int64(totalDebit), senderBalance-totalDebit,
			fmt.Sprintf("Transfer to %s (fee %s)", recipientUUID, fee))
		if err := stageHistory(tx, senderUUID, senderHistVer, senderHistory, out); err != nil {
			return nil, err
		}
		in := as.newTransaction(models.TxTransfer, int64(amount), newRecipientBalance,
			fmt.Sprintf("Transfer from %s", senderUUID))
		if err := stageHistory(tx, recipientUUID, recipientHistVer, recipientHistory, in); err != nil {
			return nil, err
		}
		return tx, nil
	})
	if err != nil {
		return 0, err
	}
	return fee, nil
}

// newTransaction builds a history record with a fresh id.
func (as *AccountStore) newTransaction(kind models.TransactionKind, amount int64, resulting models.Coins, description string) models.Transaction {
	return models.Transaction{
		ID:               uuid.NewString(),
		Timestamp:        as.now(),
		Kind:             kind,
		Amount:           amount,
		ResultingBalance: resulting,
		Description:      description,
	}
}

// --- shared helpers, also used by the team and market stores ---

// readBalance reads the authoritative balance key. Absent means 0 at the
// key's reported version, which is exactly what a check-on-absence needs.
func readBalance(ctx context.Context, kvStore kv.Store, playerUUID string) (models.Coins, kv.Version, error) {
	data, ver, err := kvStore.Get(ctx, balanceKey(playerUUID))
	if err == kv.ErrKeyNotFound {
		return 0, ver, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read balance for player %s: %w", playerUUID, err)
	}
	var balance models.Coins
	if err := balance.UnmarshalJSON(data); err != nil {
		return 0, 0, fmt.Errorf("malformed balance for player %s: %w", playerUUID, err)
	}
	return balance, ver, nil
}

// readHistory reads the bounded transaction history, newest first.
func readHistory(ctx context.Context, kvStore kv.Store, playerUUID string) ([]models.Transaction, kv.Version, error) {
	data, ver, err := kvStore.Get(ctx, ledgerKey(playerUUID))
	if err == kv.ErrKeyNotFound {
		return nil, ver, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read ledger for player %s: %w", playerUUID, err)
	}
	var history []models.Transaction
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, 0, fmt.Errorf("malformed ledger for player %s: %w", playerUUID, err)
	}
	return history, ver, nil
}

// stageBalance adds the check-and-set for a balance key to the transaction.
// Balances are stored as bare decimal strings so the store's numeric
// increment stays usable on them.
func stageBalance(tx kv.Tx, playerUUID string, ver kv.Version, newBalance models.Coins) {
	tx.Check(balanceKey(playerUUID), ver)
	tx.Set(balanceKey(playerUUID), []byte(newBalance.String()))
}

// stageHistory prepends record, truncates to HistoryLimit and adds the
// check-and-set for the ledger key to the transaction.
func stageHistory(tx kv.Tx, playerUUID string, ver kv.Version, history []models.Transaction, record models.Transaction) error {
	updated := append([]models.Transaction{record}, history...)
	if len(updated) > models.HistoryLimit {
		updated = updated[:models.HistoryLimit]
	}
	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger for player %s: %w", playerUUID, err)
	}
	tx.Check(ledgerKey(playerUUID), ver)
	tx.Set(ledgerKey(playerUUID), data)
	return nil
}
