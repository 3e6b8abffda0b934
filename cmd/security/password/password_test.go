package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testCfg() Config {
	cfg := DefaultConfig()
	cfg.Cost = bcrypt.MinCost // keep the test suite fast
	return cfg
}

func TestHashVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testCfg()

	hash, err := cfg.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash must not equal the plain password")
	}

	ok, err := cfg.Verify(hash, "correct horse battery staple")
	if err != nil || !ok {
		t.Fatalf("verify match: ok=%v err=%v", ok, err)
	}

	ok, err = cfg.Verify(hash, "wrong password")
	if err != nil || ok {
		t.Fatalf("verify mismatch: ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	t.Parallel()

	cfg := testCfg()

	ok, err := cfg.Verify("not-a-bcrypt-hash", "whatever")
	if ok {
		t.Fatalf("malformed hash must not verify")
	}
	if !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestPolicyBounds(t *testing.T) {
	t.Parallel()

	cfg := testCfg()

	if _, err := cfg.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected too-short, got %v", err)
	}
	if _, err := cfg.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected too-long, got %v", err)
	}
	if _, err := cfg.Hash(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("72 bytes must pass: %v", err)
	}
}

func TestWeakPatternRejection(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.Policy.RejectVeryWeak = true

	weak := []string{"aaaaaaaa", "12345678", "password", "qwerty123"}
	for _, pw := range weak {
		if err := cfg.Validate(pw); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("Validate(%q)=%v want ErrWeakPassword", pw, err)
		}
	}

	if err := cfg.Validate("correct horse battery staple"); err != nil {
		t.Fatalf("strong passphrase rejected: %v", err)
	}
}
