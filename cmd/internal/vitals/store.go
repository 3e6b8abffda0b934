package vitals

import (
	"context"
	"time"
)

// Store persists vital-sign readings.
type Store interface {
	// Insert persists a new reading.
	Insert(ctx context.Context, r Reading) error

	// Recent returns up to limit readings for userID, newest first by
	// recorded_at.
	Recent(ctx context.Context, userID string, limit int) ([]Reading, error)

	// Latest returns the single newest reading for userID, or ErrNotFound.
	Latest(ctx context.Context, userID string) (Reading, error)

	// SetRisk attaches a predictor result to an already-stored reading.
	SetRisk(ctx context.Context, id string, label string, score float64) error

	// PurgeBefore deletes readings recorded before the cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
