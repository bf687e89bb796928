// Package audit provides audit logging for the cabinet server
// Compliant with GLI-19 §2.8.8: Significant Event Information
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fruitcab/cabinet/internal/domain"
	"github.com/google/uuid"
)

// Event types per GLI-19 §2.8.8
const (
	EventSpinSettled      = "spin_settled"
	EventLargeWin         = "large_win"
	EventDeposit          = "deposit"
	EventCashout          = "cashout"
	EventVoucherIssued    = "voucher_issued"
	EventVoucherRedeemed  = "voucher_redeemed"
	EventVoucherRejected  = "voucher_rejected"
	EventRemotePaired     = "remote_paired"
	EventServiceMode      = "service_mode_change"
	EventDataIntegrity    = "data_integrity_warning"
	EventSystemError      = "system_error"
	EventRNGHealthCheck   = "rng_health_check"
	EventCabinetConnected = "cabinet_connected"
)

// Service provides audit logging functionality
type Service struct {
	db *sql.DB
}

// New creates a new audit service
func New(db *sql.DB) *Service {
	return &Service{db: db}
}

// NewNop creates an audit service that discards events. For tests.
func NewNop() *Service {
	return &Service{}
}

// LogEvent records a significant event
func (s *Service) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if s.db == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, severity, timestamp, cabinet_id, description, data, component)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Type, event.Severity, event.Timestamp, event.CabinetID,
		event.Description, string(event.Data), event.Component)

	return err
}

// Log is a convenience method for logging events
func (s *Service) Log(ctx context.Context, eventType string, severity domain.EventSeverity, description string, data interface{}, opts ...EventOption) error {
	event := &domain.AuditEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		Description: description,
		Component:   "cabinet",
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err == nil {
			event.Data = jsonData
		}
	}

	for _, opt := range opts {
		opt(event)
	}

	return s.LogEvent(ctx, event)
}

// EventOption is a functional option for configuring audit events
type EventOption func(*domain.AuditEvent)

// WithCabinet sets the cabinet ID for the event
func WithCabinet(cabinetID string) EventOption {
	return func(e *domain.AuditEvent) {
		e.CabinetID = &cabinetID
	}
}

// WithComponent sets the component for the event
func WithComponent(component string) EventOption {
	return func(e *domain.AuditEvent) {
		e.Component = component
	}
}

// GetEvents retrieves audit events with optional filtering
func (s *Service) GetEvents(ctx context.Context, filter *EventFilter) ([]*domain.AuditEvent, error) {
	query := `SELECT id, type, severity, timestamp, cabinet_id, description, data, component
			  FROM audit_events WHERE 1=1`
	args := []interface{}{}
	paramIdx := 1

	if filter != nil {
		if filter.CabinetID != "" {
			query += fmt.Sprintf(" AND cabinet_id = $%d", paramIdx)
			args = append(args, filter.CabinetID)
			paramIdx++
		}
		if filter.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", paramIdx)
			args = append(args, filter.Type)
			paramIdx++
		}
		if !filter.From.IsZero() {
			query += fmt.Sprintf(" AND timestamp >= $%d", paramIdx)
			args = append(args, filter.From)
			paramIdx++
		}
		if !filter.To.IsZero() {
			query += fmt.Sprintf(" AND timestamp <= $%d", paramIdx)
			args = append(args, filter.To)
			paramIdx++
		}
	}

	query += " ORDER BY timestamp DESC"

	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", paramIdx)
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var cabinetID sql.NullString
		var data string

		err := rows.Scan(&event.ID, &event.Type, &event.Severity, &event.Timestamp,
			&cabinetID, &event.Description, &data, &event.Component)
		if err != nil {
			return nil, err
		}

		if cabinetID.Valid {
			event.CabinetID = &cabinetID.String
		}
		if data != "" {
			event.Data = json.RawMessage(data)
		}

		events = append(events, &event)
	}

	return events, nil
}

// EventFilter defines criteria for filtering audit events
type EventFilter struct {
	CabinetID string
	Type      string
	From      time.Time
	To        time.Time
	Limit     int
}
