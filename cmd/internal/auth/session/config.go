package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config defines all runtime configuration for the session core.
//
// It is constructed once at startup and passed by reference into the Manager;
// business logic never reads the process environment directly.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of JWT access tokens.
	AccessTokenTTL time.Duration

	// RefreshTTL defines the lifetime of refresh tokens.
	RefreshTTL time.Duration

	// ClockSkew is the allowed time skew during access-token validation.
	ClockSkew time.Duration

	// ReuseGrace bounds how long after a token's rotation a re-presentation
	// is still treated as a lost concurrent race instead of a replay. Only
	// replays trigger chain revocation.
	ReuseGrace time.Duration

	// JWTSecret is the HS256 signing secret. Required; startup fails without it.
	JWTSecret []byte
}

// DefaultConfig returns defaults matching the deployed backend
// (15-minute access tokens, 15-day refresh tokens).
func DefaultConfig() Config {
	return Config{
		Issuer:         "vitalis",
		AccessTokenTTL: 15 * time.Minute,
		RefreshTTL:     15 * 24 * time.Hour,
		ClockSkew:      30 * time.Second,
		ReuseGrace:     30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - VITALIS_JWT_SECRET
//
// Optional:
//   - VITALIS_AUTH_ISSUER
//   - VITALIS_ACCESS_TTL (Go duration)
//   - VITALIS_REFRESH_TTL_DAYS (positive integer)
//   - VITALIS_AUTH_CLOCK_SKEW (Go duration)
//   - VITALIS_REUSE_GRACE (Go duration)
//
// Returns ErrConfig if configuration is invalid or the secret is missing.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("VITALIS_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("VITALIS_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("VITALIS_REFRESH_TTL_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = time.Duration(n) * 24 * time.Hour
	}

	if v := os.Getenv("VITALIS_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("VITALIS_REUSE_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ReuseGrace = d
	}

	secret := strings.TrimSpace(os.Getenv("VITALIS_JWT_SECRET"))
	if secret == "" {
		return Config{}, ErrConfig
	}
	cfg.JWTSecret = []byte(secret)

	return cfg, nil
}
