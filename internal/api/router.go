// Package api - Router setup
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	// API v1 routes. The front-end runs on the cabinet itself, so
	// these endpoints are open; the box is not reachable off-floor.
	api := r.PathPrefix("/api/v1").Subrouter()

	// Spins
	api.HandleFunc("/spin", h.Spin).Methods("POST")
	api.HandleFunc("/spin/boosted", h.SpinBoosted).Methods("POST")
	api.HandleFunc("/spin/history", h.GetHistory).Methods("GET")

	// Wallet
	api.HandleFunc("/wallet/balance", h.GetBalance).Methods("GET")
	api.HandleFunc("/wallet/deposit", h.Deposit).Methods("POST")
	api.HandleFunc("/wallet/transactions", h.GetTransactions).Methods("GET")

	// Vouchers
	api.HandleFunc("/cashout", h.Cashout).Methods("POST")
	api.HandleFunc("/voucher/redeem", h.RedeemVoucher).Methods("POST")

	// Cabinet control
	api.HandleFunc("/control/status", h.ControlStatus).Methods("GET")
	api.HandleFunc("/control/disable", h.DisableSpins).Methods("POST")
	api.HandleFunc("/control/enable", h.EnableSpins).Methods("POST")

	// Remote pairing (public: pairing completes with the on-screen code)
	api.HandleFunc("/remote/pair", h.BeginPairing).Methods("POST")
	api.HandleFunc("/remote/pair/complete", h.CompletePairing).Methods("POST")

	// Remote control (grant required)
	paired := api.PathPrefix("/remote").Subrouter()
	paired.Use(h.GrantMiddleware)
	paired.HandleFunc("/command", h.RemoteCommand).Methods("POST")
	paired.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")
	paired.HandleFunc("/events", h.HandleSSE).Methods("GET")

	return r
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
