package wallet

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/database"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/google/uuid"
)

// setupWallet wires the service against a real PostgreSQL instance; set
// CABINET_TEST_DSN to run.
func setupWallet(t *testing.T) (*Service, string, func()) {
	t.Helper()

	dsn := os.Getenv("CABINET_TEST_DSN")
	if dsn == "" {
		t.Skip("CABINET_TEST_DSN not set; skipping database tests")
	}

	db, err := database.New("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Logf("Migration note: %v", err)
	}
	if err := db.CleanData(); err != nil {
		t.Fatalf("Failed to clean data: %v", err)
	}

	svc := New(db.DB, audit.New(db.DB), "EUR")

	cabinetID := uuid.New().String()
	if err := svc.EnsureCabinet(context.Background(), cabinetID); err != nil {
		t.Fatalf("EnsureCabinet failed: %v", err)
	}

	return svc, cabinetID, func() {
		db.CleanData()
		db.Close()
	}
}

func TestDeposit(t *testing.T) {
	svc, cabinetID, cleanup := setupWallet(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, cabinetID, svc.Money(5000), domain.TxTypeDeposit, "fill-1", "Attendant fill")
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if tx.BalanceBefore.Amount != 0 || tx.BalanceAfter.Amount != 5000 {
		t.Errorf("Unexpected balances: before %d, after %d", tx.BalanceBefore.Amount, tx.BalanceAfter.Amount)
	}

	balance, err := svc.GetBalance(ctx, cabinetID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits.Amount != 5000 || balance.Credits.Currency != "EUR" {
		t.Errorf("Unexpected balance: %+v", balance.Credits)
	}

	t.Run("RejectsNonPositiveAmounts", func(t *testing.T) {
		for _, amount := range []int64{0, -100} {
			if _, err := svc.Deposit(ctx, cabinetID, svc.Money(amount), domain.TxTypeDeposit, "", ""); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("Amount %d: expected ErrInvalidAmount, got %v", amount, err)
			}
		}
	})

	t.Run("UnknownCabinet", func(t *testing.T) {
		_, err := svc.Deposit(ctx, uuid.New().String(), svc.Money(100), domain.TxTypeDeposit, "", "")
		if !errors.Is(err, ErrCabinetNotFound) {
			t.Errorf("Expected ErrCabinetNotFound, got %v", err)
		}
	})
}

func TestSettleSpin(t *testing.T) {
	svc, cabinetID, cleanup := setupWallet(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, cabinetID, svc.Money(1000), domain.TxTypeDeposit, "fill-1", "Attendant fill"); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	t.Run("DebitAndCreditLandTogether", func(t *testing.T) {
		before, after, err := svc.SettleSpin(ctx, cabinetID, svc.Money(100), svc.Money(300), uuid.New().String())
		if err != nil {
			t.Fatalf("SettleSpin failed: %v", err)
		}
		if before.Amount != 1000 || after.Amount != 1200 {
			t.Errorf("Expected 1000 -> 1200, got %d -> %d", before.Amount, after.Amount)
		}

		txs, err := svc.GetTransactions(ctx, cabinetID, 10)
		if err != nil {
			t.Fatalf("GetTransactions failed: %v", err)
		}
		if len(txs) != 3 {
			t.Fatalf("Expected 3 transactions, got %d", len(txs))
		}
		// Wager and win share a timestamp; count them instead of relying
		// on their relative order.
		counts := map[domain.TransactionType]int{}
		for _, tx := range txs {
			counts[tx.Type]++
		}
		if counts[domain.TxTypeWager] != 1 || counts[domain.TxTypeWin] != 1 || counts[domain.TxTypeDeposit] != 1 {
			t.Errorf("Unexpected transaction mix: %v", counts)
		}
	})

	t.Run("LosingSpinWritesNoWinTransaction", func(t *testing.T) {
		_, after, err := svc.SettleSpin(ctx, cabinetID, svc.Money(200), svc.Money(0), uuid.New().String())
		if err != nil {
			t.Fatalf("SettleSpin failed: %v", err)
		}
		if after.Amount != 1000 {
			t.Errorf("Expected 1000 after losing spin, got %d", after.Amount)
		}

		txs, err := svc.GetTransactions(ctx, cabinetID, 1)
		if err != nil {
			t.Fatalf("GetTransactions failed: %v", err)
		}
		if txs[0].Type != domain.TxTypeWager {
			t.Errorf("Expected wager on top, got %s", txs[0].Type)
		}
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		_, _, err := svc.SettleSpin(ctx, cabinetID, svc.Money(1000000), svc.Money(0), uuid.New().String())
		if !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("Expected ErrInsufficientFunds, got %v", err)
		}
	})

	t.Run("RejectsBadAmounts", func(t *testing.T) {
		if _, _, err := svc.SettleSpin(ctx, cabinetID, svc.Money(0), svc.Money(0), uuid.New().String()); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount for zero bet, got %v", err)
		}
		if _, _, err := svc.SettleSpin(ctx, cabinetID, svc.Money(100), svc.Money(-1), uuid.New().String()); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Expected ErrInvalidAmount for negative win, got %v", err)
		}
	})
}

func TestSettleSpin_ConcurrentSpinsNeverOverdraw(t *testing.T) {
	svc, cabinetID, cleanup := setupWallet(t)
	defer cleanup()
	ctx := context.Background()

	// Room for exactly 5 bets of 100.
	if _, err := svc.Deposit(ctx, cabinetID, svc.Money(500), domain.TxTypeDeposit, "fill-1", "Attendant fill"); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.SettleSpin(ctx, cabinetID, svc.Money(100), svc.Money(0), uuid.New().String())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientFunds) {
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Errorf("Expected exactly 5 settled spins, got %d", succeeded)
	}

	balance, err := svc.GetBalance(ctx, cabinetID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance.Credits.Amount != 0 {
		t.Errorf("Expected zero balance, got %d", balance.Credits.Amount)
	}
}

func TestCashout(t *testing.T) {
	svc, cabinetID, cleanup := setupWallet(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := svc.Deposit(ctx, cabinetID, svc.Money(2500), domain.TxTypeDeposit, "fill-1", "Attendant fill"); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	tx, err := svc.Cashout(ctx, cabinetID, "voucher-1")
	if err != nil {
		t.Fatalf("Cashout failed: %v", err)
	}
	if tx.Amount.Amount != 2500 || tx.BalanceAfter.Amount != 0 {
		t.Errorf("Expected full cashout of 2500, got %+v", tx)
	}
	if tx.Type != domain.TxTypeCashout || tx.Reference != "voucher-1" {
		t.Errorf("Unexpected transaction: %+v", tx)
	}

	// Nothing left to cash out.
	if _, err := svc.Cashout(ctx, cabinetID, "voucher-2"); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}
}

func TestGetBalance_UnknownCabinet(t *testing.T) {
	svc, _, cleanup := setupWallet(t)
	defer cleanup()

	if _, err := svc.GetBalance(context.Background(), uuid.New().String()); !errors.Is(err, ErrCabinetNotFound) {
		t.Errorf("Expected ErrCabinetNotFound, got %v", err)
	}
}
