// Package session implements the vitalis refresh-token session core.
//
// It provides rotating refresh-token sessions with single-winner rotation
// under concurrency, rotation-chain reuse hardening, and idempotent logout.
//
// Access tokens are short-lived HS256 JWTs and are never persisted; a revoked
// session's already-issued access token therefore stays valid until its own
// expiry. That bounded exposure window is a deliberate trade-off for
// store-free access-token validation.
//
// Refresh tokens are opaque random values handed to the client exactly once.
// The server stores only a hash (HMAC-SHA256 when VITALIS_TOKEN_HMAC_KEY is
// set; otherwise SHA-256).
package session
