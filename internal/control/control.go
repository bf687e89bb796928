// Package control provides floor-wide and per-cabinet service mode
// Compliant with GLI-19 §2.4: Gaming Management
//
// Key Requirements:
//   - Operator must be able to disable all spinning on demand
//   - Individual cabinets can be put into service mode
//   - All state changes must be logged
package control

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fruitcab/cabinet/internal/audit"
	"github.com/fruitcab/cabinet/internal/domain"
)

var (
	ErrSpinsDisabled   = errors.New("spinning is currently disabled")
	ErrCabinetDisabled = errors.New("cabinet is in service mode")
)

// Service tracks whether spins are allowed, floor-wide and per cabinet.
// GLI-19 §2.4 - Gaming Management
type Service struct {
	db    *sql.DB
	audit *audit.Service

	mu               sync.RWMutex
	spinsEnabled     bool
	disabledCabinets map[string]bool
	disabledAt       *time.Time
	disabledBy       string
	disabledReason   string
}

// New creates a new control service
func New(db *sql.DB, auditSvc *audit.Service) *Service {
	return &Service{
		db:               db,
		audit:            auditSvc,
		spinsEnabled:     true,
		disabledCabinets: make(map[string]bool),
	}
}

// DisableAll stops all spinning floor-wide
// GLI-19 §2.4.1 - Gaming Management: Ability to disable on demand
func (s *Service) DisableAll(ctx context.Context, reason, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.spinsEnabled = false
	s.disabledAt = &now
	s.disabledBy = authorizedBy
	s.disabledReason = reason

	if err := s.persistState(ctx, "false", now, authorizedBy); err != nil {
		return err
	}

	s.audit.Log(ctx, audit.EventServiceMode, domain.SeverityCritical,
		fmt.Sprintf("All spinning disabled: %s", reason),
		map[string]interface{}{
			"authorized_by": authorizedBy,
			"reason":        reason,
		},
		audit.WithComponent("control"))

	return nil
}

// EnableAll resumes spinning floor-wide
func (s *Service) EnableAll(ctx context.Context, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.spinsEnabled = true
	s.disabledAt = nil
	s.disabledBy = ""
	s.disabledReason = ""

	if err := s.persistState(ctx, "true", now, authorizedBy); err != nil {
		return err
	}

	s.audit.Log(ctx, audit.EventServiceMode, domain.SeverityInfo,
		"All spinning enabled",
		map[string]interface{}{"authorized_by": authorizedBy},
		audit.WithComponent("control"))

	return nil
}

// DisableCabinet puts one cabinet into service mode
func (s *Service) DisableCabinet(ctx context.Context, cabinetID, reason, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disabledCabinets[cabinetID] = true

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disabled_cabinets (cabinet_id, reason, disabled_at, disabled_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cabinet_id) DO UPDATE SET reason = $2, disabled_at = $3, disabled_by = $4
	`, cabinetID, reason, now, authorizedBy)
	if err != nil {
		return fmt.Errorf("failed to persist cabinet state: %w", err)
	}

	s.audit.Log(ctx, audit.EventServiceMode, domain.SeverityWarning,
		fmt.Sprintf("Cabinet in service mode: %s", reason),
		map[string]interface{}{
			"reason":        reason,
			"authorized_by": authorizedBy,
		},
		audit.WithCabinet(cabinetID), audit.WithComponent("control"))

	return nil
}

// EnableCabinet takes one cabinet out of service mode
func (s *Service) EnableCabinet(ctx context.Context, cabinetID, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.disabledCabinets, cabinetID)

	_, err := s.db.ExecContext(ctx, `DELETE FROM disabled_cabinets WHERE cabinet_id = $1`, cabinetID)
	if err != nil {
		return fmt.Errorf("failed to persist cabinet state: %w", err)
	}

	s.audit.Log(ctx, audit.EventServiceMode, domain.SeverityInfo,
		"Cabinet service mode cleared",
		map[string]interface{}{"authorized_by": authorizedBy},
		audit.WithCabinet(cabinetID), audit.WithComponent("control"))

	return nil
}

// CheckSpin verifies a cabinet may spin right now
func (s *Service) CheckSpin(ctx context.Context, cabinetID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.spinsEnabled {
		return ErrSpinsDisabled
	}
	if s.disabledCabinets[cabinetID] {
		return ErrCabinetDisabled
	}
	return nil
}

// Status returns current floor state
func (s *Service) Status() *domain.CabinetSystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	disabled := make([]string, 0, len(s.disabledCabinets))
	for id := range s.disabledCabinets {
		disabled = append(disabled, id)
	}

	return &domain.CabinetSystemStatus{
		SpinsEnabled:     s.spinsEnabled,
		DisabledAt:       s.disabledAt,
		DisabledBy:       s.disabledBy,
		DisabledReason:   s.disabledReason,
		DisabledCabinets: disabled,
		LastStateChange:  time.Now().UTC(),
	}
}

// LoadState loads persisted state from database on startup
func (s *Service) LoadState(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM system_state WHERE key = 'spins_enabled'`).Scan(&value)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	s.spinsEnabled = value != "false"

	rows, err := s.db.QueryContext(ctx, `SELECT cabinet_id FROM disabled_cabinets`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cabinetID string
		if err := rows.Scan(&cabinetID); err != nil {
			return err
		}
		s.disabledCabinets[cabinetID] = true
	}

	return rows.Err()
}

func (s *Service) persistState(ctx context.Context, value string, now time.Time, by string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_state (key, value, updated_at, updated_by)
		VALUES ('spins_enabled', $1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $1, updated_at = $2, updated_by = $3
	`, value, now, by)
	if err != nil {
		return fmt.Errorf("failed to persist spin state: %w", err)
	}
	return nil
}
