package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
)

func newTestAccountStore(maxAttempts int) (*AccountStore, *kv.MemoryStore) {
	ms := kv.NewMemoryStore()
	return NewAccountStore(ms, kv.NewCoordinator(maxAttempts)), ms
}

func mustDeposit(t *testing.T, as *AccountStore, player string, amount models.Coins) {
	t.Helper()
	if err := as.Deposit(context.Background(), player, amount, models.TxDeposit, "seed"); err != nil {
		t.Fatalf("deposit %s to %s: %v", amount, player, err)
	}
}

func mustBalance(t *testing.T, as *AccountStore, player string) models.Coins {
	t.Helper()
	balance, err := as.GetBalance(context.Background(), player)
	if err != nil {
		t.Fatalf("balance of %s: %v", player, err)
	}
	return balance
}

func TestAccountAbsentReadsAsZero(t *testing.T) {
	as, _ := newTestAccountStore(4)

	account, err := as.GetAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Balance != 0 || len(account.History) != 0 {
		t.Fatalf("fresh account = %+v, want zero balance and empty history", account)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	as, _ := newTestAccountStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "p1", 100)
	if err := as.Withdraw(ctx, "p1", 40, models.TxWithdraw, "test"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := mustBalance(t, as, "p1"); got != 60 {
		t.Fatalf("balance = %s, want 60", got)
	}

	account, err := as.GetAccount(ctx, "p1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	// Newest first: the withdrawal precedes the deposit.
	if len(account.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(account.History))
	}
	if account.History[0].Amount != -40 || account.History[0].ResultingBalance != 60 {
		t.Fatalf("newest record = %+v", account.History[0])
	}
	if account.History[1].Amount != 100 {
		t.Fatalf("oldest record = %+v", account.History[1])
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	as, _ := newTestAccountStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "p1", 30)
	err := as.Withdraw(ctx, "p1", 31, models.TxWithdraw, "test")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := mustBalance(t, as, "p1"); got != 30 {
		t.Fatalf("balance after failed withdraw = %s, want 30", got)
	}
}

func TestZeroAmountRejected(t *testing.T) {
	as, _ := newTestAccountStore(4)
	ctx := context.Background()

	if err := as.Deposit(ctx, "p1", 0, models.TxDeposit, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero deposit: %v", err)
	}
	if err := as.Withdraw(ctx, "p1", 0, models.TxWithdraw, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero withdraw: %v", err)
	}
	if _, err := as.Transfer(ctx, "a", "b", 0, 0.05); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestTransferChargesFeeAndBurnsIt(t *testing.T) {
	as, _ := newTestAccountStore(4)
	ctx := context.Background()

	mustDeposit(t, as, "alice", 100)

	// 5% of 50 is 2.5, rounded up to 3. Alice pays 53, Bob receives 50.
	fee, err := as.Transfer(ctx, "alice", "bob", 50, 0.05)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if fee != 3 {
		t.Fatalf("fee = %s, want 3", fee)
	}
	if got := mustBalance(t, as, "alice"); got != 47 {
		t.Fatalf("alice = %s, want 47", got)
	}
	if got := mustBalance(t, as, "bob"); got != 50 {
		t.Fatalf("bob = %s, want 50", got)
	}

	// Both sides got a history record in the same commit.
	aliceAcct, _ := as.GetAccount(ctx, "alice")
	bobAcct, _ := as.GetAccount(ctx, "bob")
	if aliceAcct.History[0].Amount != -53 {
		t.Fatalf("alice record = %+v", aliceAcct.History[0])
	}
	if bobAcct.History[0].Amount != 50 {
		t.Fatalf("bob record = %+v", bobAcct.History[0])
	}
}

func TestTransferToSelfRejected(t *testing.T) {
	as, _ := newTestAccountStore(4)
	mustDeposit(t, as, "alice", 100)
	if _, err := as.Transfer(context.Background(), "alice", "alice", 10, 0); !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
}

func TestTransferInsufficientForAmountPlusFee(t *testing.T) {
	as, _ := newTestAccountStore(4)

	// 50 covers the amount but not amount plus fee.
	mustDeposit(t, as, "alice", 50)
	_, err := as.Transfer(context.Background(), "alice", "bob", 50, 0.05)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := mustBalance(t, as, "alice"); got != 50 {
		t.Fatalf("alice after failed transfer = %s, want 50", got)
	}
	if got := mustBalance(t, as, "bob"); got != 0 {
		t.Fatalf("bob after failed transfer = %s, want 0", got)
	}
}

func TestHistoryCappedAtLimit(t *testing.T) {
	as, _ := newTestAccountStore(4)
	ctx := context.Background()

	for i := 0; i < models.HistoryLimit+10; i++ {
		mustDeposit(t, as, "p1", 1)
	}
	account, err := as.GetAccount(ctx, "p1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if len(account.History) != models.HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(account.History), models.HistoryLimit)
	}
	// The balance is not affected by the truncation.
	if account.Balance != models.Coins(models.HistoryLimit+10) {
		t.Fatalf("balance = %s, want %d", account.Balance, models.HistoryLimit+10)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	as, _ := newTestAccountStore(50)
	ctx := context.Background()

	mustDeposit(t, as, "p1", 100)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- as.Withdraw(ctx, "p1", 30, models.TxWithdraw, "race")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientFunds):
		case errors.Is(err, kv.ErrTxConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes > 3 {
		t.Fatalf("%d withdrawals of 30 succeeded against a balance of 100", successes)
	}
	want := models.Coins(100 - 30*successes)
	if got := mustBalance(t, as, "p1"); got != want {
		t.Fatalf("final balance = %s, want %s", got, want)
	}
}

func TestConcurrentTransfersConserveCoins(t *testing.T) {
	as, _ := newTestAccountStore(100)
	ctx := context.Background()

	players := []string{"p0", "p1", "p2", "p3"}
	for _, p := range players {
		mustDeposit(t, as, p, 1000)
	}

	// Every player fires transfers at every other player with no fee, so the
	// total supply must come out exactly unchanged.
	var wg sync.WaitGroup
	for i, from := range players {
		for j, to := range players {
			if i == j {
				continue
			}
			wg.Add(1)
			go func(from, to string, amount models.Coins) {
				defer wg.Done()
				_, err := as.Transfer(ctx, from, to, amount, 0)
				if err != nil && !errors.Is(err, ErrInsufficientFunds) && !errors.Is(err, kv.ErrTxConflict) {
					t.Errorf("transfer %s -> %s: %v", from, to, err)
				}
			}(from, to, models.Coins(10*(i+j+1)))
		}
	}
	wg.Wait()

	var total models.Coins
	for _, p := range players {
		total += mustBalance(t, as, p)
	}
	if total != 4000 {
		t.Fatalf("total supply = %s, want 4000", total)
	}
}

func TestTransferSerializability(t *testing.T) {
	// Two transfers race over a shared middle account. Whatever the
	// interleaving, the outcome must equal some serial order.
	as, _ := newTestAccountStore(100)
	ctx := context.Background()

	mustDeposit(t, as, "a", 100)
	mustDeposit(t, as, "b", 100)

	var wg sync.WaitGroup
	wg.Add(2)
	var errA, errB error
	go func() {
		defer wg.Done()
		_, errA = as.Transfer(ctx, "a", "b", 60, 0)
	}()
	go func() {
		defer wg.Done()
		_, errB = as.Transfer(ctx, "b", "a", 80, 0)
	}()
	wg.Wait()

	for _, err := range []error{errA, errB} {
		if err != nil && !errors.Is(err, kv.ErrTxConflict) && !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	balA := mustBalance(t, as, "a")
	balB := mustBalance(t, as, "b")
	if balA+balB != 200 {
		t.Fatalf("supply = %s, want 200 (a=%s b=%s)", balA+balB, balA, balB)
	}

	valid := map[string]bool{
		// both succeeded, either order
		"120/80": true,
		// only a->b
		"40/160": true,
		// only b->a
		"180/20": true,
		// neither
		"100/100": true,
	}
	key := fmt.Sprintf("%s/%s", balA, balB)
	if !valid[key] {
		t.Fatalf("balances a=%s b=%s do not match any serial order", balA, balB)
	}
}
