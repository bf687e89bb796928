package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/wallet"
	"github.com/google/uuid"
)

// PlayRequest asks for one settled spin on a cabinet's wallet.
type PlayRequest struct {
	CabinetID string `json:"cabinet_id"`
	Variant   string `json:"variant"`
	Bet       int64  `json:"bet"` // credits (cents)
}

// PlayResult is the settled outcome of a game cycle.
type PlayResult struct {
	SpinID     string       `json:"spin_id"`
	Settlement *Settlement  `json:"settlement"`
	Bet        domain.Money `json:"bet"`
	Win        domain.Money `json:"win"`
	Balance    domain.Money `json:"balance"`
}

// Play executes one full game cycle: validate, resolve the spin, then
// settle wager and win against the wallet in a single transaction so a
// debit and its credit land atomically (GLI-19 §4.3.3, §4.5).
// The wallet is not touched until the outcome is known; an engine or
// entropy failure therefore never strands a debit.
func (e *Engine) Play(ctx context.Context, req *PlayRequest) (*PlayResult, error) {
	v, err := e.Variant(req.Variant)
	if err != nil {
		return nil, err
	}

	if err := e.control.CheckSpin(ctx, req.CabinetID); err != nil {
		return nil, err
	}

	if req.Bet < e.minBet || req.Bet > e.maxBet {
		return nil, ErrInvalidBet
	}

	bet := domain.Money{Amount: req.Bet, Currency: e.currency}

	settlement, err := e.Spin(v, req.Bet)
	if err != nil {
		e.audit.Log(ctx, audit.EventSystemError, domain.SeverityCritical,
			"Spin resolution failed",
			map[string]string{"variant": v.Name, "error": err.Error()},
			audit.WithCabinet(req.CabinetID))
		return nil, fmt.Errorf("failed to resolve spin: %w", err)
	}

	win := domain.Money{Amount: settlement.TotalWin, Currency: e.currency}
	spinID := uuid.New().String()

	balBefore, balAfter, err := e.wallet.SettleSpin(ctx, req.CabinetID, bet, win, spinID)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	// Store spin recall record (GLI-19 §2.8.2, §4.14)
	outcomeJSON, _ := json.Marshal(settlement)
	now := time.Now().UTC()
	_, err = e.db.ExecContext(ctx, `
		INSERT INTO spins (id, cabinet_id, variant, played_at, bet, win, balance_before, balance_after, outcome, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, spinID, req.CabinetID, v.Name, now, bet.Amount, win.Amount,
		balBefore.Amount, balAfter.Amount, string(outcomeJSON), e.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to record spin: %w", err)
	}

	// Audit log for large wins (GLI-19 §2.8.8)
	if win.Amount >= e.largeWinThreshold {
		e.audit.Log(ctx, audit.EventLargeWin, domain.SeverityInfo,
			fmt.Sprintf("Large win: %.2f %s", win.Float64(), win.Currency),
			map[string]interface{}{
				"spin_id": spinID,
				"variant": v.Name,
				"win":     win.Float64(),
				"bet":     bet.Float64(),
			},
			audit.WithCabinet(req.CabinetID))
	}

	return &PlayResult{
		SpinID:     spinID,
		Settlement: settlement,
		Bet:        bet,
		Win:        win,
		Balance:    balAfter,
	}, nil
}

// GetHistory retrieves recent spin recall records (GLI-19 §4.14)
func (e *Engine) GetHistory(ctx context.Context, cabinetID string, limit int) ([]*domain.SpinRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT id, variant, played_at, bet, win, balance_before, balance_after, outcome, currency
		FROM spins WHERE cabinet_id = $1 ORDER BY played_at DESC LIMIT $2
	`, cabinetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*domain.SpinRecord
	for rows.Next() {
		var rec domain.SpinRecord
		var bet, win, balBefore, balAfter int64
		var outcome, currency string

		err := rows.Scan(&rec.ID, &rec.Variant, &rec.PlayedAt,
			&bet, &win, &balBefore, &balAfter, &outcome, &currency)
		if err != nil {
			return nil, err
		}

		rec.CabinetID = cabinetID
		rec.Bet = domain.Money{Amount: bet, Currency: currency}
		rec.Win = domain.Money{Amount: win, Currency: currency}
		rec.BalanceBefore = domain.Money{Amount: balBefore, Currency: currency}
		rec.BalanceAfter = domain.Money{Amount: balAfter, Currency: currency}
		rec.Outcome = json.RawMessage(outcome)

		history = append(history, &rec)
	}

	return history, nil
}
