// Package api provides the HTTP surface the cabinet front-end and
// paired remote devices talk to.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fruitcab/cabinet/internal/control"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/game"
	"github.com/fruitcab/cabinet/internal/remote"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/fruitcab/cabinet/internal/voucher"
	"github.com/fruitcab/cabinet/internal/wallet"
)

// Handler contains all HTTP handlers
type Handler struct {
	cabinetID string
	wallet    *wallet.Service
	game      *game.Engine
	rng       *rng.Service
	voucher   *voucher.Service
	control   *control.Service
	pairing   *remote.Pairing
	hub       *remote.Hub
}

// New creates a new API handler for one cabinet.
func New(cabinetID string, walletSvc *wallet.Service, gameEngine *game.Engine, rngSvc *rng.Service, voucherSvc *voucher.Service, controlSvc *control.Service, pairing *remote.Pairing, hub *remote.Hub) *Handler {
	return &Handler{
		cabinetID: cabinetID,
		wallet:    walletSvc,
		game:      gameEngine,
		rng:       rngSvc,
		voucher:   voucherSvc,
		control:   controlSvc,
		pairing:   pairing,
		hub:       hub,
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// === Health & Info ===

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// Check RNG health (GLI-19 §3.3.3)
	rngHealth, _ := h.rng.HealthCheck()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"cabinet_id": h.cabinetID,
		"rng_status": rngHealth,
	})
}

// ServerInfo handles GET /
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Fruit Cabinet",
		"version":     "1.0.0",
		"description": "Slot cabinet backend",
	})
}

// === Spins ===

type spinRequest struct {
	Bet int64 `json:"bet"`
}

// Spin handles POST /api/v1/spin
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	h.playSpin(w, r, game.VariantStandard)
}

// SpinBoosted handles POST /api/v1/spin/boosted
func (h *Handler) SpinBoosted(w http.ResponseWriter, r *http.Request) {
	h.playSpin(w, r, game.VariantBoosted)
}

func (h *Handler) playSpin(w http.ResponseWriter, r *http.Request, variant string) {
	var req spinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	h.playSpinWithBody(w, r, variant, req.Bet)
}

// GetHistory handles GET /api/v1/spin/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	history, err := h.game.GetHistory(r.Context(), h.cabinetID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "HISTORY_ERROR", "Failed to get spin history")
		return
	}

	historyList := make([]map[string]interface{}, len(history))
	for i, rec := range history {
		historyList[i] = map[string]interface{}{
			"spin_id":        rec.ID,
			"variant":        rec.Variant,
			"played_at":      rec.PlayedAt,
			"bet":            rec.Bet.Float64(),
			"win":            rec.Win.Float64(),
			"balance_before": rec.BalanceBefore.Float64(),
			"balance_after":  rec.BalanceAfter.Float64(),
			"outcome":        rec.Outcome,
		}
	}

	respondJSON(w, http.StatusOK, historyList)
}

// === Wallet ===

// GetBalance handles GET /api/v1/wallet/balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.wallet.GetBalance(r.Context(), h.cabinetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "BALANCE_ERROR", "Failed to get balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"credits":  balance.Credits.Float64(),
		"currency": balance.Credits.Currency,
	})
}

// Deposit handles POST /api/v1/wallet/deposit
// Bill and coin acceptors report inserted money here.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    int64  `json:"amount"` // credits (cents)
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive")
		return
	}

	amount := h.wallet.Money(req.Amount)
	tx, err := h.wallet.Deposit(r.Context(), h.cabinetID, amount, domain.TxTypeDeposit, req.Reference, "Cash inserted")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DEPOSIT_FAILED", "Deposit failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": tx.ID,
		"amount":         tx.Amount.Float64(),
		"balance_after":  tx.BalanceAfter.Float64(),
	})
}

// GetTransactions handles GET /api/v1/wallet/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	transactions, err := h.wallet.GetTransactions(r.Context(), h.cabinetID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TRANSACTIONS_ERROR", "Failed to get transactions")
		return
	}

	txList := make([]map[string]interface{}, len(transactions))
	for i, tx := range transactions {
		txList[i] = map[string]interface{}{
			"id":             tx.ID,
			"type":           tx.Type,
			"amount":         tx.Amount.Float64(),
			"balance_before": tx.BalanceBefore.Float64(),
			"balance_after":  tx.BalanceAfter.Float64(),
			"description":    tx.Description,
			"created_at":     tx.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, txList)
}

// === Vouchers ===

// Cashout handles POST /api/v1/cashout
// Empties the balance onto a fresh voucher and returns the printable ticket.
func (h *Handler) Cashout(w http.ResponseWriter, r *http.Request) {
	result, err := h.voucher.Issue(r.Context(), h.cabinetID)
	if err != nil {
		switch {
		case errors.Is(err, voucher.ErrNothingToCash):
			respondError(w, http.StatusBadRequest, "NOTHING_TO_CASH", "No balance to cash out")
		default:
			respondError(w, http.StatusInternalServerError, "CASHOUT_FAILED", "Cashout failed")
		}
		return
	}

	h.hub.Publish(h.cabinetID, remote.NewEvent("cashout", map[string]interface{}{
		"voucher_id": result.Voucher.ID,
		"amount":     result.Voucher.Amount.Float64(),
	}))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"voucher_id": result.Voucher.ID,
		"amount":     result.Voucher.Amount.Float64(),
		"currency":   result.Voucher.Amount.Currency,
		"code":       result.Code,
		"ticket":     result.Ticket,
		"expires_at": result.Voucher.ExpiresAt,
	})
}

// RedeemVoucher handles POST /api/v1/voucher/redeem
func (h *Handler) RedeemVoucher(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	tx, err := h.voucher.Redeem(r.Context(), h.cabinetID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, voucher.ErrInvalidCode), errors.Is(err, voucher.ErrVoucherNotFound):
			respondError(w, http.StatusNotFound, "VOUCHER_INVALID", "Voucher code is not valid")
		case errors.Is(err, voucher.ErrVoucherUsed):
			respondError(w, http.StatusConflict, "VOUCHER_USED", "Voucher has already been redeemed")
		case errors.Is(err, voucher.ErrVoucherExpired):
			respondError(w, http.StatusGone, "VOUCHER_EXPIRED", "Voucher has expired")
		default:
			respondError(w, http.StatusInternalServerError, "REDEEM_FAILED", "Redemption failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": tx.ID,
		"amount":         tx.Amount.Float64(),
		"balance_after":  tx.BalanceAfter.Float64(),
	})
}

// === Control ===

// ControlStatus handles GET /api/v1/control/status
func (h *Handler) ControlStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.control.Status())
}

// DisableSpins handles POST /api/v1/control/disable
func (h *Handler) DisableSpins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason       string `json:"reason"`
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.DisableAll(r.Context(), req.Reason, req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", "Failed to disable spins")
		return
	}

	h.hub.Publish(h.cabinetID, remote.NewEvent("service_mode", map[string]interface{}{
		"spins_enabled": false,
		"reason":        req.Reason,
	}))

	respondJSON(w, http.StatusOK, h.control.Status())
}

// EnableSpins handles POST /api/v1/control/enable
func (h *Handler) EnableSpins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthorizedBy string `json:"authorized_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.control.EnableAll(r.Context(), req.AuthorizedBy); err != nil {
		respondError(w, http.StatusInternalServerError, "CONTROL_ERROR", "Failed to enable spins")
		return
	}

	h.hub.Publish(h.cabinetID, remote.NewEvent("service_mode", map[string]interface{}{
		"spins_enabled": true,
	}))

	respondJSON(w, http.StatusOK, h.control.Status())
}

// === Remote pairing ===

// BeginPairing handles POST /api/v1/remote/pair
// The cabinet UI calls this and shows the code on screen.
func (h *Handler) BeginPairing(w http.ResponseWriter, r *http.Request) {
	code, expiresAt, err := h.pairing.Begin(h.cabinetID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "PAIRING_ERROR", "Failed to generate pairing code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":       code,
		"expires_at": expiresAt,
	})
}

// CompletePairing handles POST /api/v1/remote/pair/complete
// The remote device submits the displayed code and receives a grant.
func (h *Handler) CompletePairing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code   string `json:"code"`
		Device string `json:"device"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	grant, err := h.pairing.Complete(r.Context(), req.Code, req.Device)
	if err != nil {
		respondError(w, http.StatusNotFound, "PAIRING_NOT_FOUND", "Pairing code not found or expired")
		return
	}

	respondJSON(w, http.StatusOK, grant)
}

// RemoteCommand handles POST /api/v1/remote/command
// A paired device triggers a spin or cashout on the cabinet.
func (h *Handler) RemoteCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
		Variant string `json:"variant"`
		Bet     int64  `json:"bet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	switch req.Command {
	case "spin":
		variant := req.Variant
		if variant == "" {
			variant = game.VariantStandard
		}
		h.playSpinWithBody(w, r, variant, req.Bet)
	case "cashout":
		h.Cashout(w, r)
	default:
		respondError(w, http.StatusBadRequest, "UNKNOWN_COMMAND", "Unknown command: "+req.Command)
	}
}

// playSpinWithBody runs a spin whose parameters were already decoded.
func (h *Handler) playSpinWithBody(w http.ResponseWriter, r *http.Request, variant string, bet int64) {
	result, err := h.game.Play(r.Context(), &game.PlayRequest{
		CabinetID: h.cabinetID,
		Variant:   variant,
		Bet:       bet,
	})
	if err != nil {
		switch {
		case errors.Is(err, game.ErrVariantNotFound):
			respondError(w, http.StatusNotFound, "VARIANT_NOT_FOUND", "Game variant not found")
		case errors.Is(err, game.ErrInvalidBet):
			respondError(w, http.StatusBadRequest, "INVALID_BET", "Bet is outside the allowed range")
		case errors.Is(err, game.ErrInsufficientBalance):
			respondError(w, http.StatusBadRequest, "INSUFFICIENT_BALANCE", "Insufficient balance")
		case errors.Is(err, control.ErrSpinsDisabled), errors.Is(err, control.ErrCabinetDisabled):
			respondError(w, http.StatusServiceUnavailable, "SPINS_DISABLED", "Cabinet is not accepting spins")
		default:
			respondError(w, http.StatusInternalServerError, "GAME_ERROR", "Spin failed")
		}
		return
	}

	h.hub.Publish(h.cabinetID, remote.NewEvent("spin_settled", map[string]interface{}{
		"spin_id": result.SpinID,
		"variant": variant,
		"bet":     result.Bet.Float64(),
		"win":     result.Win.Float64(),
		"is_win":  result.Settlement.IsWin,
		"balance": result.Balance.Float64(),
	}))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"spin_id":    result.SpinID,
		"settlement": result.Settlement,
		"bet":        result.Bet.Float64(),
		"win":        result.Win.Float64(),
		"balance":    result.Balance.Float64(),
	})
}
