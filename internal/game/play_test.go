package game

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/control"
	"github.com/fruitcab/cabinet/internal/database"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/fruitcab/cabinet/internal/wallet"
	"github.com/google/uuid"
)

type testRig struct {
	engine    *Engine
	wallet    *wallet.Service
	control   *control.Service
	cabinetID string
}

// setupTestEngine wires an engine against a real PostgreSQL instance.
// Set CABINET_TEST_DSN to run, e.g. "host=localhost dbname=cabinet_test
// sslmode=disable".
func setupTestEngine(t *testing.T) (*testRig, func()) {
	t.Helper()

	dsn := os.Getenv("CABINET_TEST_DSN")
	if dsn == "" {
		t.Skip("CABINET_TEST_DSN not set; skipping database tests")
	}

	db, err := database.New("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	// Ensure schema exists (idempotent)
	if err := db.Migrate(); err != nil {
		t.Logf("Migration note: %v", err)
	}

	// Clean data for fresh test state
	if err := db.CleanData(); err != nil {
		t.Fatalf("Failed to clean data: %v", err)
	}

	auditSvc := audit.New(db.DB)
	rngSvc := rng.New()
	walletSvc := wallet.New(db.DB, auditSvc, "EUR")
	controlSvc := control.New(db.DB, auditSvc)

	standard := newTestVariant(t, VariantStandard, uniformStrips(32, "lemon"), FlatPaytable(), false)
	boosted := newTestVariant(t, VariantBoosted, uniformStrips(32, "lemon"), ScaledPaytable(), true)

	engine := New(db.DB, rngSvc, walletSvc, auditSvc, controlSvc, []*Variant{standard, boosted}, Options{
		Currency:          "EUR",
		MinBet:            10,
		MaxBet:            10000,
		LargeWinThreshold: 100000,
	})

	cabinetID := uuid.New().String()
	if err := walletSvc.EnsureCabinet(context.Background(), cabinetID); err != nil {
		t.Fatalf("Failed to create cabinet balance: %v", err)
	}

	// Fund the cabinet
	_, err = walletSvc.Deposit(context.Background(), cabinetID,
		domain.Money{Amount: 100000, Currency: "EUR"},
		domain.TxTypeDeposit, "test-funding", "Test funding")
	if err != nil {
		t.Fatalf("Failed to fund cabinet: %v", err)
	}

	rig := &testRig{
		engine:    engine,
		wallet:    walletSvc,
		control:   controlSvc,
		cabinetID: cabinetID,
	}
	return rig, func() {
		db.CleanData()
		db.Close()
	}
}

func TestPlay(t *testing.T) {
	rig, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("SettlesAgainstWallet", func(t *testing.T) {
		result, err := rig.engine.Play(ctx, &PlayRequest{
			CabinetID: rig.cabinetID,
			Variant:   VariantStandard,
			Bet:       100,
		})
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}

		if result.SpinID == "" {
			t.Error("Expected a spin ID")
		}
		if result.Bet.Amount != 100 || result.Bet.Currency != "EUR" {
			t.Errorf("Unexpected bet: %+v", result.Bet)
		}
		if result.Win.Amount != result.Settlement.TotalWin {
			t.Errorf("Win %d does not match settlement total %d", result.Win.Amount, result.Settlement.TotalWin)
		}

		balance, err := rig.wallet.GetBalance(ctx, rig.cabinetID)
		if err != nil {
			t.Fatalf("GetBalance failed: %v", err)
		}
		if balance.Credits.Amount != result.Balance.Amount {
			t.Errorf("Reported balance %d does not match wallet %d", result.Balance.Amount, balance.Credits.Amount)
		}
	})

	t.Run("BalanceMathHolds", func(t *testing.T) {
		history, err := rig.engine.GetHistory(ctx, rig.cabinetID, 1)
		if err != nil {
			t.Fatalf("GetHistory failed: %v", err)
		}
		if len(history) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(history))
		}
		rec := history[0]
		if rec.BalanceAfter.Amount != rec.BalanceBefore.Amount-rec.Bet.Amount+rec.Win.Amount {
			t.Errorf("Balance math broken: before %d, bet %d, win %d, after %d",
				rec.BalanceBefore.Amount, rec.Bet.Amount, rec.Win.Amount, rec.BalanceAfter.Amount)
		}
	})

	t.Run("BetBoundsEnforced", func(t *testing.T) {
		for _, bet := range []int64{5, 10001} {
			_, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: rig.cabinetID, Variant: VariantStandard, Bet: bet})
			if !errors.Is(err, ErrInvalidBet) {
				t.Errorf("Bet %d: expected ErrInvalidBet, got %v", bet, err)
			}
		}
	})

	t.Run("UnknownVariantRejected", func(t *testing.T) {
		_, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: rig.cabinetID, Variant: "turbo", Bet: 100})
		if !errors.Is(err, ErrVariantNotFound) {
			t.Errorf("Expected ErrVariantNotFound, got %v", err)
		}
	})
}

func TestPlay_InsufficientBalance(t *testing.T) {
	rig, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	// Separate cabinet with an empty wallet.
	broke := uuid.New().String()
	if err := rig.wallet.EnsureCabinet(ctx, broke); err != nil {
		t.Fatalf("EnsureCabinet failed: %v", err)
	}

	_, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: broke, Variant: VariantStandard, Bet: 100})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
}

func TestPlay_RespectsServiceMode(t *testing.T) {
	rig, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	if err := rig.control.DisableAll(ctx, "maintenance", "tech-1"); err != nil {
		t.Fatalf("DisableAll failed: %v", err)
	}

	_, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: rig.cabinetID, Variant: VariantStandard, Bet: 100})
	if !errors.Is(err, control.ErrSpinsDisabled) {
		t.Errorf("Expected ErrSpinsDisabled, got %v", err)
	}

	if err := rig.control.EnableAll(ctx, "tech-1"); err != nil {
		t.Fatalf("EnableAll failed: %v", err)
	}
	if _, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: rig.cabinetID, Variant: VariantStandard, Bet: 100}); err != nil {
		t.Errorf("Play after re-enable failed: %v", err)
	}
}

func TestGetHistory_Ordering(t *testing.T) {
	rig, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	var spinIDs []string
	for i := 0; i < 5; i++ {
		result, err := rig.engine.Play(ctx, &PlayRequest{CabinetID: rig.cabinetID, Variant: VariantStandard, Bet: 10})
		if err != nil {
			t.Fatalf("Play %d failed: %v", i, err)
		}
		spinIDs = append(spinIDs, result.SpinID)
	}

	history, err := rig.engine.GetHistory(ctx, rig.cabinetID, 3)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(history))
	}
	// Most recent first.
	if history[0].ID != spinIDs[4] {
		t.Errorf("Expected newest spin %s first, got %s", spinIDs[4], history[0].ID)
	}
	for _, rec := range history {
		if len(rec.Outcome) == 0 {
			t.Errorf("Spin %s missing recall outcome", rec.ID)
		}
	}
}
