// economy/service/account_service.go
package service

import (
	"context"
	"log"

	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
)

// AccountService encapsulates the business logic for player balances and
// transfers. Validation and atomicity live in the store layer; this layer
// adds policy (fee rates) and observability.
type AccountService struct {
	accountStore *store.AccountStore
	archiveStore *store.ArchiveStore
	feeRate      float64
}

// NewAccountService creates a new AccountService instance. archiveStore may
// be nil when the service runs without MongoDB; archived history reads then
// return store.ErrArchiveUnavailable.
func NewAccountService(as *store.AccountStore, arch *store.ArchiveStore, transferFeeRate float64) *AccountService {
	return &AccountService{
		accountStore: as,
		archiveStore: arch,
		feeRate:      transferFeeRate,
	}
}

// GetAccount returns a player's balance together with their recent history.
// Players with no recorded activity get a zero-balance account.
func (s *AccountService) GetAccount(ctx context.Context, playerUUID string) (*models.Account, error) {
	return s.accountStore.GetAccount(ctx, playerUUID)
}

// GetBalance returns only the player's current balance.
func (s *AccountService) GetBalance(ctx context.Context, playerUUID string) (models.Coins, error) {
	return s.accountStore.GetBalance(ctx, playerUUID)
}

// Deposit credits a player's account. Used for gameplay rewards and admin grants.
func (s *AccountService) Deposit(ctx context.Context, playerUUID string, amount models.Coins, description string) error {
	if err := s.accountStore.Deposit(ctx, playerUUID, amount, models.TxDeposit, description); err != nil {
		return err
	}
	log.Printf("INFO: Deposited %s coins to player %s (%s)", amount, playerUUID, description)
	return nil
}

// GrantBonus credits a player's account with a gameplay bonus. Identical to
// a deposit except the history records it under its own kind.
func (s *AccountService) GrantBonus(ctx context.Context, playerUUID string, amount models.Coins, description string) error {
	if err := s.accountStore.Deposit(ctx, playerUUID, amount, models.TxBonus, description); err != nil {
		return err
	}
	log.Printf("INFO: Granted %s bonus coins to player %s (%s)", amount, playerUUID, description)
	return nil
}

// Withdraw debits a player's account, failing if funds are insufficient.
func (s *AccountService) Withdraw(ctx context.Context, playerUUID string, amount models.Coins, description string) error {
	if err := s.accountStore.Withdraw(ctx, playerUUID, amount, models.TxWithdraw, description); err != nil {
		return err
	}
	log.Printf("INFO: Withdrew %s coins from player %s (%s)", amount, playerUUID, description)
	return nil
}

// ArchivedHistory returns a player's long-term transaction history from the
// archive, newest first, beyond the short window kept on the ledger itself.
func (s *AccountService) ArchivedHistory(ctx context.Context, playerUUID string, limit int64) ([]store.ArchivedTransaction, error) {
	if s.archiveStore == nil {
		return nil, store.ErrArchiveUnavailable
	}
	return s.archiveStore.PlayerTransactions(ctx, playerUUID, limit)
}

// Transfer moves coins between two players, charging the configured fee on
// top of the amount. The fee is removed from circulation. Returns the fee
// that was charged.
func (s *AccountService) Transfer(ctx context.Context, senderUUID, recipientUUID string, amount models.Coins) (models.Coins, error) {
	fee, err := s.accountStore.Transfer(ctx, senderUUID, recipientUUID, amount, s.feeRate)
	if err != nil {
		return 0, err
	}
	log.Printf("INFO: Transferred %s coins from %s to %s (fee %s burned)", amount, senderUUID, recipientUUID, fee)
	return fee, nil
}
