package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Chek       ChekConfig
	Payment    PaymentConfig
	Allocation AllocationConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	Issuer       string
	AccessExpiry time.Duration
}

// ChekConfig holds credentials for the Chek money-movement API.
// The API authenticates with a static read key plus a separate write key
// required on POST/PATCH calls.
type ChekConfig struct {
	BaseURL   string
	AccountID string
	APIKey    string
	WriteKey  string
	ProgramID int
}

type PaymentConfig struct {
	// Hard cap per single transaction, in cents.
	MaxPaymentCents int64
	// Cached Chek status older than this triggers a refresh before
	// any money moves.
	StatusStaleAfter time.Duration
}

type AllocationConfig struct {
	// Hard cap on a single month allocation, in cents.
	MaxAllocationCents int64
	// Timezone used for month boundaries and care day locking.
	BusinessTimezone string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8080"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DATABASE_DSN", "carepay:carepay@tcp(localhost:3306)/carepay?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       "carepay",
			AccessExpiry: 12 * time.Hour,
		},
		Chek: ChekConfig{
			BaseURL:   envOr("CHEK_BASE_URL", "https://sandbox.paywithchek.com"),
			AccountID: envOr("CHEK_ACCOUNT_ID", ""),
			APIKey:    envOr("CHEK_API_KEY", ""),
			WriteKey:  envOr("CHEK_WRITE_KEY", ""),
			ProgramID: envInt("CHEK_PROGRAM_ID", 0),
		},
		Payment: PaymentConfig{
			MaxPaymentCents:  int64(envInt("MAX_PAYMENT_CENTS", 140000)), // $1400
			StatusStaleAfter: time.Duration(envInt("CHEK_STATUS_STALE_MINUTES", 1)) * time.Minute,
		},
		Allocation: AllocationConfig{
			MaxAllocationCents: int64(envInt("MAX_ALLOCATION_CENTS", 140000)),
			BusinessTimezone:   envOr("BUSINESS_TIMEZONE", "America/Denver"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
