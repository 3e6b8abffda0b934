// Package token provides token hashing primitives for vitalis.
//
// It is the single source of truth for refresh-token hashing behavior.
//
// Design goals:
// - Default dev/back-compat mode: SHA-256(token) when no HMAC key is configured.
// - Hardened mode: HMAC-SHA256(token, key) when VITALIS_TOKEN_HMAC_KEY is set.
// - Stable 64-char hex output for storage and constant-time comparison.
package token
