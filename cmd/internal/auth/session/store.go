package session

import (
	"context"
	"time"
)

// Record mirrors one refresh-token row.
//
// TokenHash is the server-stored hash of the opaque token value; the plain
// token is never persisted. ReplacedByToken holds the hash of the successor
// token and is set at most once, only by rotation (never by logout).
type Record struct {
	TokenHash       string
	UserID          string
	IssuedAt        time.Time
	ExpiresAt       time.Time
	Revoked         bool
	ReplacedByToken *string
}

// Active reports whether the record may still be rotated at the given instant.
func (r Record) Active(now time.Time) bool {
	return !r.Revoked && r.ExpiresAt.After(now)
}

// Rotated reports whether the record was retired by rotation (as opposed to logout).
func (r Record) Rotated() bool {
	return r.Revoked && r.ReplacedByToken != nil
}

// Store abstracts persistence for refresh-token records.
//
// ConditionalRevoke is the rotation concurrency guard: it must be a single
// atomic conditional write keyed on revoked == false, never a read-then-write
// pair. Implementations must also give read-your-own-writes consistency: a
// record inserted by one call is visible to the next.
type Store interface {
	// FindByHash loads a record by token hash. Missing -> ErrInvalidSession.
	FindByHash(ctx context.Context, tokenHash string) (Record, error)

	// Insert persists a new record. Write failures propagate unrecovered.
	Insert(ctx context.Context, rec Record) error

	// ConditionalRevoke atomically marks the record revoked and links its
	// replacement, only if it is not already revoked. Returns false when the
	// record was absent or already revoked (the caller lost the race).
	ConditionalRevoke(ctx context.Context, tokenHash, newTokenHash string) (bool, error)

	// Revoke marks the record revoked without a replacement (logout).
	// Idempotent: unknown or already-revoked hashes are not an error.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeChain revokes the record and every successor reachable through
	// ReplacedByToken links. Used when a rotated token is presented again
	// (possible theft). Returns the number of records revoked.
	RevokeChain(ctx context.Context, tokenHash string) (int64, error)

	// PurgeExpired garbage-collects records that expired before the cutoff.
	// Absence of a record is equivalent to an invalid token, so purging is safe.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
