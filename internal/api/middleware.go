// Package api - Middleware for grant validation and request processing
package api

import (
	"net/http"
	"strings"
)

// GrantMiddleware validates remote control grants. The grant must be
// bound to this cabinet; a grant from another cabinet is rejected.
func (h *Handler) GrantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "NO_GRANT", "Authorization header required")
			return
		}

		cabinetID, err := h.pairing.Validate(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "INVALID_GRANT", "Grant is invalid or expired")
			return
		}
		if cabinetID != h.cabinetID {
			respondError(w, http.StatusForbidden, "WRONG_CABINET", "Grant is for a different cabinet")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts a grant token from the Authorization header, or
// from the token query parameter for transports that cannot set headers
// (WebSocket upgrades, EventSource).
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// LoggingMiddleware logs all requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simple request logging
		// In production, use structured logging
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware adds CORS headers
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
