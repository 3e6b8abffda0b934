package password

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Policy controls password validation boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt cost factor.
	Cost   int
	Policy Policy
}

// DefaultConfig returns the baseline matching the deployed backend.
// bcrypt reads at most 72 bytes of input, so MaxLength stays under that.
func DefaultConfig() Config {
	return Config{
		Cost: 12,
		Policy: Policy{
			MinLength:      8,
			MaxLength:      72,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - VITALIS_BCRYPT_COST
// - VITALIS_PASSWORD_MIN_LEN
// - VITALIS_PASSWORD_MAX_LEN
// - VITALIS_PASSWORD_REJECT_VERY_WEAK (true/false)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("VITALIS_BCRYPT_COST"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("password: invalid VITALIS_BCRYPT_COST %q", v)
		}
		cfg.Cost = n
	}

	if v, ok := os.LookupEnv("VITALIS_PASSWORD_MIN_LEN"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("password: invalid VITALIS_PASSWORD_MIN_LEN %q", v)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("VITALIS_PASSWORD_MAX_LEN"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < cfg.Policy.MinLength || n > 72 {
			return Config{}, fmt.Errorf("password: invalid VITALIS_PASSWORD_MAX_LEN %q", v)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("VITALIS_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("password: invalid VITALIS_PASSWORD_REJECT_VERY_WEAK %q", v)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	return cfg, nil
}
