// Package domain contains core domain models for the cabinet server.
//
// A cabinet is an anonymous kiosk-style terminal: it owns exactly one
// credit wallet, funded by attendant deposits or voucher redemption and
// emptied by cashout. There are no player accounts.
package domain

import (
	"encoding/json"
	"time"
)

// Money represents monetary values with precision (GLI-19 §2.5.6)
type Money struct {
	Amount   int64  `json:"amount"`   // Amount in smallest unit (cents)
	Currency string `json:"currency"` // ISO 4217 currency code
}

// NewMoney creates a new Money value from dollars/major unit
func NewMoney(amount float64, currency string) Money {
	return Money{
		Amount:   int64(amount * 100),
		Currency: currency,
	}
}

// Float64 returns the monetary value as a float
func (m Money) Float64() float64 {
	return float64(m.Amount) / 100.0
}

// Add adds two money values
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Sub subtracts money value
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// TransactionType represents transaction types
// GLI-19 §2.5.6 - Financial Transactions: All financial transactions must be logged
type TransactionType string

const (
	TxTypeDeposit       TransactionType = "deposit"        // attendant fill
	TxTypeCashout       TransactionType = "cashout"        // balance moved onto a voucher
	TxTypeWager         TransactionType = "wager"          // spin debit
	TxTypeWin           TransactionType = "win"            // spin credit
	TxTypeVoucherCredit TransactionType = "voucher_credit" // redeemed voucher
	TxTypeAdjustment    TransactionType = "adjustment"
)

// TransactionStatus represents transaction state
type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
	TxStatusCancelled TransactionStatus = "cancelled"
)

// Transaction represents a financial transaction (GLI-19 §2.5.6, §2.5.7)
type Transaction struct {
	ID            string            `json:"id" db:"id"`
	CabinetID     string            `json:"cabinet_id" db:"cabinet_id"`
	Type          TransactionType   `json:"type" db:"type"`
	Amount        Money             `json:"amount" db:"amount"`
	BalanceBefore Money             `json:"balance_before" db:"balance_before"`
	BalanceAfter  Money             `json:"balance_after" db:"balance_after"`
	Status        TransactionStatus `json:"status" db:"status"`
	Reference     string            `json:"reference" db:"reference"`
	Description   string            `json:"description" db:"description"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at" db:"completed_at"`
}

// Balance represents a cabinet's credit balance (GLI-19 §2.5.7)
type Balance struct {
	CabinetID string    `json:"cabinet_id"`
	Credits   Money     `json:"credits"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoucherStatus represents voucher lifecycle state
type VoucherStatus string

const (
	VoucherIssued   VoucherStatus = "issued"
	VoucherRedeemed VoucherStatus = "redeemed"
	VoucherVoided   VoucherStatus = "voided"
)

// Voucher is a cashout ticket: the bearer record produced when a cabinet
// cashes out and the thing a cabinet redeems to load credits. Only the
// bcrypt hash of the code is stored.
type Voucher struct {
	ID         string        `json:"id" db:"id"`
	CodeHash   string        `json:"-" db:"code_hash"`
	CodeHint   string        `json:"code_hint" db:"code_hint"` // last 4 digits, for tickets
	Amount     Money         `json:"amount" db:"amount"`
	Status     VoucherStatus `json:"status" db:"status"`
	IssuedBy   string        `json:"issued_by" db:"issued_by"` // cabinet ID
	IssuedAt   time.Time     `json:"issued_at" db:"issued_at"`
	RedeemedBy *string       `json:"redeemed_by,omitempty" db:"redeemed_by"`
	RedeemedAt *time.Time    `json:"redeemed_at,omitempty" db:"redeemed_at"`
	ExpiresAt  time.Time     `json:"expires_at" db:"expires_at"`
}

// SpinRecord is the persisted recall record for a settled spin (GLI-19 §4.14)
type SpinRecord struct {
	ID            string          `json:"id" db:"id"`
	CabinetID     string          `json:"cabinet_id" db:"cabinet_id"`
	Variant       string          `json:"variant" db:"variant"`
	PlayedAt      time.Time       `json:"played_at" db:"played_at"`
	Bet           Money           `json:"bet" db:"bet"`
	Win           Money           `json:"win" db:"win"`
	BalanceBefore Money           `json:"balance_before" db:"balance_before"`
	BalanceAfter  Money           `json:"balance_after" db:"balance_after"`
	Outcome       json.RawMessage `json:"outcome" db:"outcome"`
}

// EventSeverity represents audit event severity
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityError    EventSeverity = "error"
	SeverityCritical EventSeverity = "critical"
)

// AuditEvent represents a significant event
// GLI-19 §2.8.8 - Significant Event Information
type AuditEvent struct {
	ID          string          `json:"id" db:"id"`
	Type        string          `json:"type" db:"type"`
	Severity    EventSeverity   `json:"severity" db:"severity"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	CabinetID   *string         `json:"cabinet_id,omitempty" db:"cabinet_id"`
	Description string          `json:"description" db:"description"`
	Data        json.RawMessage `json:"data,omitempty" db:"data"`
	Component   string          `json:"component" db:"component"`
}

// CabinetSystemStatus represents the floor-wide state
// GLI-19 §2.4 - Gaming Management: Operator must be able to disable gaming on demand
type CabinetSystemStatus struct {
	SpinsEnabled     bool       `json:"spins_enabled"`
	DisabledAt       *time.Time `json:"disabled_at,omitempty"`
	DisabledBy       string     `json:"disabled_by,omitempty"`
	DisabledReason   string     `json:"disabled_reason,omitempty"`
	DisabledCabinets []string   `json:"disabled_cabinets"`
	LastStateChange  time.Time  `json:"last_state_change"`
}
