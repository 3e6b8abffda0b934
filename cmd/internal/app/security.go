package app

import (
	"errors"

	"vitalis/cmd/security/token"
)

// ValidateSecurityConfig enforces the runtime security policy at startup.
// Fail-fast: a misconfigured deployment must not come up with weaker
// refresh-token hashing than the operator asked for.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: VITALIS_REQUIRE_TOKEN_HMAC=true but VITALIS_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: VITALIS_REQUIRE_TOKEN_HMAC=true but VITALIS_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	// The hasher reads the same env var; confirm it actually runs in HMAC mode.
	if !token.HMACEnabled() {
		return errors.New("security policy: VITALIS_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
