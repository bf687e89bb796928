// Package database provides database access for the cabinet server
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates all required tables
// Based on GLI-19 §2.8 Information to be Maintained
func (db *DB) Migrate() error {
	schema := `
	-- Cabinet balances (GLI-19 §2.5.7)
	CREATE TABLE IF NOT EXISTS balances (
		cabinet_id VARCHAR(64) PRIMARY KEY,
		amount BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	-- Transaction log (GLI-19 §2.5.6, §2.5.7)
	CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		cabinet_id VARCHAR(64) NOT NULL REFERENCES balances(cabinet_id),
		type VARCHAR(32) NOT NULL,
		amount BIGINT NOT NULL,
		currency VARCHAR(3) NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		status VARCHAR(50) NOT NULL,
		reference TEXT,
		description TEXT,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_cabinet ON transactions(cabinet_id, created_at DESC);

	-- Spin recall records (GLI-19 §4.14)
	CREATE TABLE IF NOT EXISTS spins (
		id UUID PRIMARY KEY,
		cabinet_id VARCHAR(64) NOT NULL,
		variant VARCHAR(32) NOT NULL,
		played_at TIMESTAMP NOT NULL,
		bet BIGINT NOT NULL,
		win BIGINT NOT NULL,
		balance_before BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		outcome JSONB NOT NULL,
		currency VARCHAR(3) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_spins_cabinet ON spins(cabinet_id, played_at DESC);

	-- Cashout vouchers
	CREATE TABLE IF NOT EXISTS vouchers (
		id UUID PRIMARY KEY,
		code_id VARCHAR(16) UNIQUE NOT NULL,
		code_hash VARCHAR(255) NOT NULL,
		code_hint VARCHAR(8) NOT NULL,
		amount BIGINT NOT NULL,
		currency VARCHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		issued_by VARCHAR(64) NOT NULL,
		issued_at TIMESTAMP NOT NULL,
		redeemed_by VARCHAR(64),
		redeemed_at TIMESTAMP,
		expires_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vouchers_status ON vouchers(status, issued_at DESC);

	-- Audit log (GLI-19 §2.8.8)
	CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		type VARCHAR(100) NOT NULL,
		severity VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		cabinet_id VARCHAR(64),
		description TEXT,
		data JSONB,
		component VARCHAR(50)
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp DESC);

	-- Operator control state (GLI-19 §2.4)
	CREATE TABLE IF NOT EXISTS system_state (
		key VARCHAR(64) PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		updated_by VARCHAR(255)
	);

	CREATE TABLE IF NOT EXISTS disabled_cabinets (
		cabinet_id VARCHAR(64) PRIMARY KEY,
		reason TEXT,
		disabled_at TIMESTAMP NOT NULL,
		disabled_by VARCHAR(255)
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CleanData removes all data from tables. Test helper only.
func (db *DB) CleanData() error {
	tables := []string{
		"audit_events",
		"spins",
		"vouchers",
		"transactions",
		"disabled_cabinets",
		"system_state",
		"balances",
	}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}
