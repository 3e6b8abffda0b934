package identity

import (
	"context"
	"time"
)

// Store is the credential persistence boundary.
//
// The session manager only reads users (ID + Role); the auth gateway also
// creates them and records logins. Store-unavailable conditions propagate as
// plain errors and are mapped to 5xx by the gateway.
type Store interface {
	// FindByEmail loads a user by normalized email. Missing -> NotFoundError.
	FindByEmail(ctx context.Context, email string) (User, error)

	// FindByID loads a user by ID. Missing -> NotFoundError.
	FindByID(ctx context.Context, id string) (User, error)

	// Create persists a new user. A duplicate email -> ConflictError{Field: "email"}.
	Create(ctx context.Context, u User) error

	// SaveLastLogin records a successful login timestamp (best-effort bookkeeping).
	SaveLastLogin(ctx context.Context, id string, now time.Time) error
}
