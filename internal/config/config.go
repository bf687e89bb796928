// Package config provides configuration management for the cabinet
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the cabinet backend
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Game       GameConfig
	Remote     RemoteConfig
	VoucherHub VoucherHubConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// GameConfig holds game-related configuration
type GameConfig struct {
	CabinetID         string
	ReelsPath         string
	BoostedReelsPath  string
	SymbolMapPath     string
	Currency          string
	MinBet            int64
	MaxBet            int64
	LargeWinThreshold int64
	VoucherExpiry     time.Duration
}

// RemoteConfig holds remote control configuration
type RemoteConfig struct {
	PairingSecret string
	CodeTTL       time.Duration
	GrantTTL      time.Duration
}

// VoucherHubConfig holds the optional voucher server connection.
// An empty BaseURL means vouchers are managed locally.
type VoucherHubConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	FloorCode string
}

// Load loads configuration from environment with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("CABINET_PORT", "8080"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: getEnv("CABINET_DB_DRIVER", "postgres"),
			DSN:    getEnv("CABINET_DB_DSN", "host=localhost dbname=cabinet sslmode=disable"),
		},
		Game: GameConfig{
			CabinetID:         getEnv("CABINET_ID", "cab-01"),
			ReelsPath:         getEnv("CABINET_REELS", "configs/reels_default.json"),
			BoostedReelsPath:  getEnv("CABINET_REELS_BOOSTED", "configs/reels_rtp91_boosted.json"),
			SymbolMapPath:     getEnv("CABINET_SYMBOL_MAP", "configs/symbol_map.json"),
			Currency:          getEnv("CABINET_CURRENCY", "EUR"),
			MinBet:            getEnvInt64("CABINET_MIN_BET", 10),
			MaxBet:            getEnvInt64("CABINET_MAX_BET", 10000),
			LargeWinThreshold: getEnvInt64("CABINET_LARGE_WIN", 100000),
			VoucherExpiry:     30 * 24 * time.Hour,
		},
		Remote: RemoteConfig{
			PairingSecret: getEnv("CABINET_PAIRING_SECRET", "cabinet-dev-secret-change-in-production"),
			CodeTTL:       2 * time.Minute,
			GrantTTL:      12 * time.Hour,
		},
		VoucherHub: VoucherHubConfig{
			BaseURL:   getEnv("CABINET_VOUCHERHUB_URL", ""),
			APIKey:    getEnv("CABINET_VOUCHERHUB_KEY", ""),
			APISecret: getEnv("CABINET_VOUCHERHUB_SECRET", ""),
			FloorCode: getEnv("CABINET_VOUCHERHUB_FLOOR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
