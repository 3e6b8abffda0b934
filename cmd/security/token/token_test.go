package token

import (
	"errors"
	"testing"
)

func TestHashSHA256HexDeterministic(t *testing.T) {
	a := HashSHA256Hex("some-refresh-token")
	b := HashSHA256Hex("some-refresh-token")
	if a != b {
		t.Fatalf("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashSHA256Hex("another-token") {
		t.Fatalf("distinct inputs must not collide trivially")
	}
}

func TestHashRefreshTokenHexModes(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	plainMode := HashRefreshTokenHex("tok")
	if plainMode != HashSHA256Hex("tok") {
		t.Fatalf("without a key, hashing must be plain SHA-256")
	}
	if HMACEnabled() {
		t.Fatalf("HMAC must be off without a key")
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	hmacMode := HashRefreshTokenHex("tok")
	if hmacMode == plainMode {
		t.Fatalf("keyed hashing must differ from plain SHA-256")
	}
	if hmacMode != HashHMACSHA256Hex("tok", []byte("0123456789abcdef0123456789abcdef")) {
		t.Fatalf("keyed hashing must be HMAC-SHA256 with the env key")
	}
	if !HMACEnabled() {
		t.Fatalf("HMAC must be on with a key")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyMissing) {
		t.Fatalf("expected missing-key error, got %v", err)
	}

	t.Setenv(HMACEnvKey, "too-short")
	if _, err := HMACKeyFromEnv(32); !errors.Is(err, ErrHMACKeyTooShort) {
		t.Fatalf("expected short-key error, got %v", err)
	}

	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	key, err := HMACKeyFromEnv(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("unexpected key length %d", len(key))
	}
}
