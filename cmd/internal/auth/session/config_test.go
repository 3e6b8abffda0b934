package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("VITALIS_JWT_SECRET", "")

	_, err := LoadConfigFromEnv()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("VITALIS_JWT_SECRET", "test-secret")
	t.Setenv("VITALIS_AUTH_ISSUER", "")
	t.Setenv("VITALIS_ACCESS_TTL", "")
	t.Setenv("VITALIS_REFRESH_TTL_DAYS", "")
	t.Setenv("VITALIS_AUTH_CLOCK_SKEW", "")
	t.Setenv("VITALIS_REUSE_GRACE", "")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "vitalis", cfg.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 15*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 30*time.Second, cfg.ReuseGrace)
	assert.Equal(t, []byte("test-secret"), cfg.JWTSecret)
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("VITALIS_JWT_SECRET", "test-secret")
	t.Setenv("VITALIS_AUTH_ISSUER", "vitalis-staging")
	t.Setenv("VITALIS_ACCESS_TTL", "5m")
	t.Setenv("VITALIS_REFRESH_TTL_DAYS", "30")
	t.Setenv("VITALIS_AUTH_CLOCK_SKEW", "1m")
	t.Setenv("VITALIS_REUSE_GRACE", "5s")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "vitalis-staging", cfg.Issuer)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, time.Minute, cfg.ClockSkew)
	assert.Equal(t, 5*time.Second, cfg.ReuseGrace)
}

func TestLoadConfigFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("VITALIS_JWT_SECRET", "test-secret")

	cases := map[string]string{
		"VITALIS_ACCESS_TTL":       "yesterday",
		"VITALIS_REFRESH_TTL_DAYS": "-1",
		"VITALIS_AUTH_CLOCK_SKEW":  "lots",
		"VITALIS_REUSE_GRACE":      "-5s",
	}
	for key, val := range cases {
		t.Setenv(key, val)
		_, err := LoadConfigFromEnv()
		assert.ErrorIs(t, err, ErrConfig, "key %s", key)
		t.Setenv(key, "")
	}
}
