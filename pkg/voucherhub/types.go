// Package voucherhub provides a client for the central voucher server API
// used by multi-cabinet floors.
package voucherhub

import "time"

// Error codes returned by the voucher server
const (
	ErrUnexpectedError  = "UNEXPECTED_ERROR"
	ErrNotAuthorized    = "NOT_AUTHORIZED"
	ErrInvalidCode      = "INVALID_CODE"
	ErrVoucherNotFound  = "VOUCHER_NOT_FOUND"
	ErrVoucherRedeemed  = "VOUCHER_REDEEMED"
	ErrVoucherVoided    = "VOUCHER_VOIDED"
	ErrVoucherExpired   = "VOUCHER_EXPIRED"
	ErrDuplicateRequest = "DUPLICATE_REQUEST"
)

// APIError represents an error response from the voucher server
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Response wraps the API response with either result or error
type Response[T any] struct {
	Result *T        `json:"result,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

// CheckRequest is the request body for /check
type CheckRequest struct {
	Code       string `json:"code"`
	FloorCode  string `json:"floorCode"`
	TerminalID string `json:"terminalId"`
}

// CheckResult describes a voucher without consuming it
type CheckResult struct {
	VoucherID string `json:"voucherId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

// RedeemRequest is the request body for /redeem
type RedeemRequest struct {
	Code       string `json:"code"`
	FloorCode  string `json:"floorCode"`
	TerminalID string `json:"terminalId"`
	RequestID  string `json:"requestId,omitempty"`
}

// RedeemResult is the result of a successful redemption
type RedeemResult struct {
	VoucherID  string `json:"voucherId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	RedeemedAt string `json:"redeemedAt"`
}

// IssueRequest is the request body for /issue
type IssueRequest struct {
	FloorCode  string `json:"floorCode"`
	TerminalID string `json:"terminalId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	RequestID  string `json:"requestId,omitempty"`
}

// IssueResult is the result of issuing a voucher on the server
type IssueResult struct {
	VoucherID string `json:"voucherId"`
	Code      string `json:"code"`
	ExpiresAt string `json:"expiresAt"`
}

// VoidRequest is the request body for /void
type VoidRequest struct {
	VoucherID  string `json:"voucherId"`
	FloorCode  string `json:"floorCode"`
	TerminalID string `json:"terminalId"`
	Reason     string `json:"reason,omitempty"`
}

// VoidResult is the result of a void operation
type VoidResult struct {
	VoucherID string `json:"voucherId"`
	VoidedAt  string `json:"voidedAt"`
}

// ClientConfig holds the configuration for the voucher server client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	FloorCode  string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:    30 * time.Second,
		RetryCount: 3,
	}
}
