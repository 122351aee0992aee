// Package auth provides accounts, access and refresh tokens, email
// verification and passkeys for the API server.
package auth

import (
	"os"
	"time"

	"github.com/evcraddock/rent-finder/internal/email"
)

// Config holds authentication configuration.
type Config struct {
	AdminEmail string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SMTP       email.SMTPConfig
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		AdminEmail: os.Getenv("RF_ADMIN_EMAIL"),
		JWTSecret:  os.Getenv("RF_JWT_SECRET"),
		AccessTTL:  envDuration("RF_ACCESS_TTL", DefaultAccessTTL),
		RefreshTTL: envDuration("RF_REFRESH_TTL", DefaultRefreshTTL),
		SMTP: email.SMTPConfig{
			Host: os.Getenv("RF_SMTP_HOST"),
			Port: envOrDefault("RF_SMTP_PORT", "587"),
			User: os.Getenv("RF_SMTP_USER"),
			Pass: os.Getenv("RF_SMTP_PASS"),
			From: os.Getenv("RF_SMTP_FROM"),
		},
		DevMode: os.Getenv("RF_DEV_MODE") == "true",
		BaseURL: envOrDefault("RF_BASE_URL", "http://localhost:8080"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}
