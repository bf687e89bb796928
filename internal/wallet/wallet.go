// Package wallet provides balance and transaction management for cabinets
// Compliant with GLI-19 §2.5.6: Financial Transactions, §2.5.7: Transaction Log
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrCabinetNotFound   = errors.New("cabinet not found")
)

// Service provides wallet functionality. One wallet per cabinet.
type Service struct {
	db       *sql.DB
	audit    *audit.Service
	currency string
}

// New creates a new wallet service
func New(db *sql.DB, auditSvc *audit.Service, currency string) *Service {
	return &Service{
		db:       db,
		audit:    auditSvc,
		currency: currency,
	}
}

// Money builds a Money value in the wallet's configured currency.
func (s *Service) Money(amount int64) domain.Money {
	return domain.Money{Amount: amount, Currency: s.currency}
}

// EnsureCabinet creates an empty wallet row for a cabinet if none exists.
func (s *Service) EnsureCabinet(ctx context.Context, cabinetID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (cabinet_id, amount, currency, updated_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (cabinet_id) DO NOTHING
	`, cabinetID, s.currency, time.Now().UTC())
	return err
}

// GetBalance retrieves the current balance for a cabinet (GLI-19 §2.5.7)
func (s *Service) GetBalance(ctx context.Context, cabinetID string) (*domain.Balance, error) {
	var amount int64
	var currency string
	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT amount, currency, updated_at FROM balances WHERE cabinet_id = $1
	`, cabinetID).Scan(&amount, &currency, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCabinetNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &domain.Balance{
		CabinetID: cabinetID,
		Credits:   domain.Money{Amount: amount, Currency: currency},
		Currency:  currency,
		UpdatedAt: updatedAt,
	}, nil
}

// Deposit adds credits to a cabinet (attendant fill or voucher redemption)
// GLI-19 §2.5.6
func (s *Service) Deposit(ctx context.Context, cabinetID string, amount domain.Money, txType domain.TransactionType, reference, description string) (*domain.Transaction, error) {
	if amount.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	before, err := lockBalance(ctx, dbTx, cabinetID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	after := before.Add(amount)

	tx := &domain.Transaction{
		ID:            uuid.New().String(),
		CabinetID:     cabinetID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        domain.TxStatusCompleted,
		Reference:     reference,
		Description:   description,
		CreatedAt:     now,
		CompletedAt:   &now,
	}

	if err := writeBalance(ctx, dbTx, cabinetID, after.Amount, now); err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventDeposit, domain.SeverityInfo,
		fmt.Sprintf("%s of %.2f %s", description, amount.Float64(), amount.Currency),
		map[string]interface{}{
			"transaction_id": tx.ID,
			"type":           txType,
			"amount":         amount.Float64(),
		},
		audit.WithCabinet(cabinetID))

	return tx, nil
}

// Cashout empties the cabinet's balance for a voucher/ticket.
// Returns the amount removed. GLI-19 §2.5.6 - no negative balance.
func (s *Service) Cashout(ctx context.Context, cabinetID, reference string) (*domain.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	before, err := lockBalance(ctx, dbTx, cabinetID)
	if err != nil {
		return nil, err
	}
	if before.Amount <= 0 {
		return nil, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	after := domain.Money{Amount: 0, Currency: before.Currency}

	tx := &domain.Transaction{
		ID:            uuid.New().String(),
		CabinetID:     cabinetID,
		Type:          domain.TxTypeCashout,
		Amount:        before,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        domain.TxStatusCompleted,
		Reference:     reference,
		Description:   "Cashout to voucher",
		CreatedAt:     now,
		CompletedAt:   &now,
	}

	if err := writeBalance(ctx, dbTx, cabinetID, 0, now); err != nil {
		return nil, err
	}
	if err := insertTransaction(ctx, dbTx, tx); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventCashout, domain.SeverityInfo,
		fmt.Sprintf("Cashout of %.2f %s", before.Float64(), before.Currency),
		map[string]interface{}{
			"transaction_id": tx.ID,
			"amount":         before.Float64(),
		},
		audit.WithCabinet(cabinetID))

	return tx, nil
}

// SettleSpin applies a spin's wager debit and win credit in a single
// database transaction so the pair lands atomically relative to any
// concurrent request on the same cabinet (GLI-19 §4.3.3).
// Returns the balance before the debit and after the credit.
func (s *Service) SettleSpin(ctx context.Context, cabinetID string, bet, win domain.Money, spinID string) (domain.Money, domain.Money, error) {
	var zero domain.Money

	if bet.Amount <= 0 || win.Amount < 0 {
		return zero, zero, ErrInvalidAmount
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, zero, err
	}
	defer dbTx.Rollback()

	before, err := lockBalance(ctx, dbTx, cabinetID)
	if err != nil {
		return zero, zero, err
	}
	if before.Amount < bet.Amount {
		return zero, zero, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	afterWager := before.Sub(bet)
	afterWin := afterWager.Add(win)

	wagerTx := &domain.Transaction{
		ID:            uuid.New().String(),
		CabinetID:     cabinetID,
		Type:          domain.TxTypeWager,
		Amount:        bet,
		BalanceBefore: before,
		BalanceAfter:  afterWager,
		Status:        domain.TxStatusCompleted,
		Reference:     spinID,
		Description:   "Spin wager",
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	if err := insertTransaction(ctx, dbTx, wagerTx); err != nil {
		return zero, zero, err
	}

	if win.Amount > 0 {
		winTx := &domain.Transaction{
			ID:            uuid.New().String(),
			CabinetID:     cabinetID,
			Type:          domain.TxTypeWin,
			Amount:        win,
			BalanceBefore: afterWager,
			BalanceAfter:  afterWin,
			Status:        domain.TxStatusCompleted,
			Reference:     spinID,
			Description:   "Spin win",
			CreatedAt:     now,
			CompletedAt:   &now,
		}
		if err := insertTransaction(ctx, dbTx, winTx); err != nil {
			return zero, zero, err
		}
	}

	if err := writeBalance(ctx, dbTx, cabinetID, afterWin.Amount, now); err != nil {
		return zero, zero, err
	}
	if err := dbTx.Commit(); err != nil {
		return zero, zero, err
	}

	return before, afterWin, nil
}

// GetTransactions retrieves transaction history for a cabinet (GLI-19 §2.5.7)
func (s *Service) GetTransactions(ctx context.Context, cabinetID string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cabinet_id, type, amount, currency, balance_before, balance_after, status, reference, description, created_at, completed_at
		FROM transactions WHERE cabinet_id = $1 ORDER BY created_at DESC LIMIT $2
	`, cabinetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amount, balBefore, balAfter int64
		var currency, reference, description string
		var completedAt sql.NullTime

		err := rows.Scan(&tx.ID, &tx.CabinetID, &tx.Type, &amount, &currency,
			&balBefore, &balAfter, &tx.Status, &reference, &description,
			&tx.CreatedAt, &completedAt)
		if err != nil {
			return nil, err
		}

		tx.Amount = domain.Money{Amount: amount, Currency: currency}
		tx.BalanceBefore = domain.Money{Amount: balBefore, Currency: currency}
		tx.BalanceAfter = domain.Money{Amount: balAfter, Currency: currency}
		tx.Reference = reference
		tx.Description = description
		if completedAt.Valid {
			tx.CompletedAt = &completedAt.Time
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

// lockBalance reads a cabinet's balance inside a transaction with a row
// lock, serializing concurrent settlements on the same cabinet.
func lockBalance(ctx context.Context, dbTx *sql.Tx, cabinetID string) (domain.Money, error) {
	var amount int64
	var currency string

	err := dbTx.QueryRowContext(ctx, `
		SELECT amount, currency FROM balances WHERE cabinet_id = $1 FOR UPDATE
	`, cabinetID).Scan(&amount, &currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Money{}, ErrCabinetNotFound
		}
		return domain.Money{}, err
	}
	return domain.Money{Amount: amount, Currency: currency}, nil
}

func writeBalance(ctx context.Context, dbTx *sql.Tx, cabinetID string, amount int64, now time.Time) error {
	_, err := dbTx.ExecContext(ctx, `
		UPDATE balances SET amount = $1, updated_at = $2 WHERE cabinet_id = $3
	`, amount, now, cabinetID)
	return err
}

func insertTransaction(ctx context.Context, dbTx *sql.Tx, tx *domain.Transaction) error {
	_, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, cabinet_id, type, amount, currency, balance_before, balance_after, status, reference, description, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, tx.ID, tx.CabinetID, tx.Type, tx.Amount.Amount, tx.Amount.Currency,
		tx.BalanceBefore.Amount, tx.BalanceAfter.Amount, tx.Status, tx.Reference, tx.Description, tx.CreatedAt, tx.CompletedAt)
	return err
}
