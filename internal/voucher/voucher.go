// Package voucher implements cashout tickets and voucher redemption.
//
// A cashout moves the cabinet's whole balance onto a bearer voucher; the
// printed ticket carries the code. Redemption loads the amount onto a
// cabinet's wallet. Only a bcrypt hash of the code's secret half is
// stored. When an external voucher server is configured, redemption is
// validated there instead of locally.
package voucher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/fruitcab/cabinet/internal/wallet"
	"github.com/fruitcab/cabinet/pkg/voucherhub"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrVoucherUsed     = errors.New("voucher already redeemed or voided")
	ErrVoucherExpired  = errors.New("voucher expired")
	ErrInvalidCode     = errors.New("invalid voucher code")
	ErrNothingToCash   = errors.New("no balance to cash out")
)

// codeAlphabet excludes ambiguous characters so attendants can type
// codes off a thermal ticket.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// Service issues and redeems vouchers.
type Service struct {
	db     *sql.DB
	wallet *wallet.Service
	audit  *audit.Service
	rng    *rng.Service
	hub    *voucherhub.Client // nil when running standalone
	expiry time.Duration
}

// New creates a voucher service. hub may be nil for standalone floors.
func New(db *sql.DB, walletSvc *wallet.Service, auditSvc *audit.Service, rngSvc *rng.Service, hub *voucherhub.Client, expiry time.Duration) *Service {
	if expiry == 0 {
		expiry = 30 * 24 * time.Hour
	}
	return &Service{
		db:     db,
		wallet: walletSvc,
		audit:  auditSvc,
		rng:    rngSvc,
		hub:    hub,
		expiry: expiry,
	}
}

// IssueResult carries the one-time plaintext code alongside the stored
// voucher record. The code is never recoverable afterwards.
type IssueResult struct {
	Voucher *domain.Voucher `json:"voucher"`
	Code    string          `json:"code"`
	Ticket  string          `json:"ticket"`
}

// Issue cashes out a cabinet's balance onto a new voucher.
func (s *Service) Issue(ctx context.Context, cabinetID string) (*IssueResult, error) {
	voucherID := uuid.New().String()

	tx, err := s.wallet.Cashout(ctx, cabinetID, voucherID)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, ErrNothingToCash
		}
		return nil, err
	}
	amount := tx.Amount

	codeID, err := s.randomCode(6)
	if err != nil {
		return nil, err
	}
	secret, err := s.randomCode(10)
	if err != nil {
		return nil, err
	}
	code := codeID + "-" + secret

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash voucher code: %w", err)
	}

	now := time.Now().UTC()
	v := &domain.Voucher{
		ID:       voucherID,
		CodeHash: string(hash),
		CodeHint: secret[len(secret)-4:],
		Amount:   amount,
		Status:   domain.VoucherIssued,
		IssuedBy: cabinetID,
		IssuedAt: now,
		ExpiresAt: now.Add(s.expiry),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vouchers (id, code_id, code_hash, code_hint, amount, currency, status, issued_by, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, v.ID, codeID, v.CodeHash, v.CodeHint, v.Amount.Amount, v.Amount.Currency,
		v.Status, v.IssuedBy, v.IssuedAt, v.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store voucher: %w", err)
	}

	s.audit.Log(ctx, audit.EventVoucherIssued, domain.SeverityInfo,
		fmt.Sprintf("Voucher issued for %.2f %s", amount.Float64(), amount.Currency),
		map[string]interface{}{
			"voucher_id": v.ID,
			"amount":     amount.Float64(),
		},
		audit.WithCabinet(cabinetID))

	return &IssueResult{
		Voucher: v,
		Code:    code,
		Ticket:  RenderTicket(v, code),
	}, nil
}

// Redeem validates a code and credits the amount to the cabinet's wallet.
func (s *Service) Redeem(ctx context.Context, cabinetID, code string) (*domain.Transaction, error) {
	if s.hub != nil {
		return s.redeemRemote(ctx, cabinetID, code)
	}
	return s.redeemLocal(ctx, cabinetID, code)
}

func (s *Service) redeemLocal(ctx context.Context, cabinetID, code string) (*domain.Transaction, error) {
	codeID, secret, ok := splitCode(code)
	if !ok {
		return nil, ErrInvalidCode
	}

	var v domain.Voucher
	var amount int64
	var currency string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code_hash, amount, currency, status, expires_at
		FROM vouchers WHERE code_id = $1
	`, codeID).Scan(&v.ID, &v.CodeHash, &amount, &currency, &v.Status, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	v.Amount = domain.Money{Amount: amount, Currency: currency}

	if err := bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(secret)); err != nil {
		s.auditRejected(ctx, cabinetID, v.ID, "bad code")
		return nil, ErrInvalidCode
	}
	if v.Status != domain.VoucherIssued {
		s.auditRejected(ctx, cabinetID, v.ID, "already used")
		return nil, ErrVoucherUsed
	}
	if time.Now().UTC().After(v.ExpiresAt) {
		s.auditRejected(ctx, cabinetID, v.ID, "expired")
		return nil, ErrVoucherExpired
	}

	// Claim the voucher first; the status guard makes double redemption
	// lose the race.
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE vouchers SET status = $1, redeemed_by = $2, redeemed_at = $3
		WHERE id = $4 AND status = $5
	`, domain.VoucherRedeemed, cabinetID, now, v.ID, domain.VoucherIssued)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrVoucherUsed
	}

	tx, err := s.wallet.Deposit(ctx, cabinetID, v.Amount, domain.TxTypeVoucherCredit, v.ID, "Voucher redemption")
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventVoucherRedeemed, domain.SeverityInfo,
		fmt.Sprintf("Voucher redeemed for %.2f %s", v.Amount.Float64(), v.Amount.Currency),
		map[string]interface{}{
			"voucher_id": v.ID,
			"amount":     v.Amount.Float64(),
		},
		audit.WithCabinet(cabinetID))

	return tx, nil
}

// redeemRemote proxies redemption to the external voucher server and
// credits the wallet with whatever amount the server confirms.
func (s *Service) redeemRemote(ctx context.Context, cabinetID, code string) (*domain.Transaction, error) {
	result, err := s.hub.Redeem(ctx, &voucherhub.RedeemRequest{
		Code:       code,
		TerminalID: cabinetID,
	})
	if err != nil {
		var apiErr *voucherhub.APIError
		if errors.As(err, &apiErr) {
			s.auditRejected(ctx, cabinetID, "", apiErr.Code)
			switch apiErr.Code {
			case voucherhub.ErrVoucherNotFound:
				return nil, ErrVoucherNotFound
			case voucherhub.ErrVoucherRedeemed, voucherhub.ErrVoucherVoided:
				return nil, ErrVoucherUsed
			case voucherhub.ErrVoucherExpired:
				return nil, ErrVoucherExpired
			}
		}
		return nil, fmt.Errorf("voucher server redeem failed: %w", err)
	}

	amount := domain.Money{Amount: result.Amount, Currency: result.Currency}
	tx, err := s.wallet.Deposit(ctx, cabinetID, amount, domain.TxTypeVoucherCredit, result.VoucherID, "Voucher redemption")
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventVoucherRedeemed, domain.SeverityInfo,
		fmt.Sprintf("Remote voucher redeemed for %.2f %s", amount.Float64(), amount.Currency),
		map[string]interface{}{
			"voucher_id": result.VoucherID,
			"amount":     amount.Float64(),
		},
		audit.WithCabinet(cabinetID))

	return tx, nil
}

func (s *Service) auditRejected(ctx context.Context, cabinetID, voucherID, reason string) {
	s.audit.Log(ctx, audit.EventVoucherRejected, domain.SeverityWarning,
		fmt.Sprintf("Voucher rejected: %s", reason),
		map[string]string{"voucher_id": voucherID, "reason": reason},
		audit.WithCabinet(cabinetID))
}

// randomCode draws n characters from the code alphabet using the
// cryptographic RNG.
func (s *Service) randomCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := s.rng.Sample(0, len(codeAlphabet)-1)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx])
	}
	return b.String(), nil
}

func splitCode(code string) (codeID, secret string, ok bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	parts := strings.SplitN(code, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
