// Package remote implements remote control of a cabinet from a paired
// device. Pairing works like a TV remote: the cabinet shows a short
// code on screen, the device submits it and receives a signed grant it
// presents on every subsequent command.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/fruitcab/cabinet/internal/rng"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrPairingNotFound = errors.New("pairing code not found or expired")
	ErrInvalidGrant    = errors.New("invalid or expired grant")
)

// pairingAlphabet avoids ambiguous characters so the code can be read
// off the cabinet screen.
const pairingAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const pairingCodeLength = 6

type pendingPairing struct {
	cabinetID string
	expiresAt time.Time
}

// Pairing issues and validates remote control grants.
type Pairing struct {
	secret    []byte
	codeTTL   time.Duration
	grantTTL  time.Duration
	rng       *rng.Service
	audit     *audit.Service

	mu    sync.Mutex
	codes map[string]pendingPairing
}

// NewPairing creates a pairing service. Codes live for codeTTL after
// display; grants live for grantTTL after pairing completes.
func NewPairing(secret string, codeTTL, grantTTL time.Duration, rngSvc *rng.Service, auditSvc *audit.Service) *Pairing {
	if codeTTL == 0 {
		codeTTL = 2 * time.Minute
	}
	if grantTTL == 0 {
		grantTTL = 12 * time.Hour
	}
	return &Pairing{
		secret:   []byte(secret),
		codeTTL:  codeTTL,
		grantTTL: grantTTL,
		rng:      rngSvc,
		audit:    auditSvc,
		codes:    make(map[string]pendingPairing),
	}
}

// Begin generates a pairing code for the cabinet to display.
// Any previous unconsumed code for the same cabinet stays valid until
// it expires on its own.
func (p *Pairing) Begin(cabinetID string) (code string, expiresAt time.Time, err error) {
	var buf [pairingCodeLength]byte
	for i := range buf {
		idx, err := p.rng.Sample(0, len(pairingAlphabet)-1)
		if err != nil {
			return "", time.Time{}, err
		}
		buf[i] = pairingAlphabet[idx]
	}
	code = string(buf[:])
	expiresAt = time.Now().UTC().Add(p.codeTTL)

	p.mu.Lock()
	p.codes[code] = pendingPairing{cabinetID: cabinetID, expiresAt: expiresAt}
	p.sweepLocked()
	p.mu.Unlock()

	return code, expiresAt, nil
}

// Grant holds a completed pairing.
type Grant struct {
	Token     string    `json:"token"`
	CabinetID string    `json:"cabinet_id"`
	GrantID   string    `json:"grant_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Complete consumes a pairing code and returns a signed grant.
func (p *Pairing) Complete(ctx context.Context, code, deviceName string) (*Grant, error) {
	p.mu.Lock()
	pending, ok := p.codes[code]
	if ok {
		delete(p.codes, code)
	}
	p.mu.Unlock()

	if !ok || time.Now().UTC().After(pending.expiresAt) {
		return nil, ErrPairingNotFound
	}

	now := time.Now().UTC()
	grantID := uuid.New().String()
	expiresAt := now.Add(p.grantTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"grant_id":   grantID,
		"cabinet_id": pending.cabinetID,
		"device":     deviceName,
		"exp":        expiresAt.Unix(),
		"iat":        now.Unix(),
	})

	tokenString, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign grant: %w", err)
	}

	p.audit.Log(ctx, audit.EventRemotePaired, domain.SeverityInfo,
		fmt.Sprintf("Remote device paired: %s", deviceName),
		map[string]string{"grant_id": grantID, "device": deviceName},
		audit.WithCabinet(pending.cabinetID))

	return &Grant{
		Token:     tokenString,
		CabinetID: pending.cabinetID,
		GrantID:   grantID,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks a grant token and returns the cabinet it is bound to.
func (p *Pairing) Validate(tokenString string) (cabinetID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidGrant
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidGrant
	}

	cabinetID, ok = claims["cabinet_id"].(string)
	if !ok || cabinetID == "" {
		return "", ErrInvalidGrant
	}

	return cabinetID, nil
}

// sweepLocked drops expired codes. Caller holds p.mu.
func (p *Pairing) sweepLocked() {
	now := time.Now().UTC()
	for code, pending := range p.codes {
		if now.After(pending.expiresAt) {
			delete(p.codes, code)
		}
	}
}
