package vitals

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Reading
	byUser map[string][]string
}

// NewMemoryStore creates an empty in-memory readings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Reading),
		byUser: make(map[string][]string),
	}
}

// Insert persists a new reading.
func (s *MemoryStore) Insert(_ context.Context, r Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[r.ID] = r
	s.byUser[r.UserID] = append(s.byUser[r.UserID], r.ID)
	return nil
}

// Recent returns up to limit readings for userID, newest first.
func (s *MemoryStore) Recent(_ context.Context, userID string, limit int) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]Reading, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Latest returns the newest reading for userID.
func (s *MemoryStore) Latest(ctx context.Context, userID string) (Reading, error) {
	recent, err := s.Recent(ctx, userID, 1)
	if err != nil {
		return Reading{}, err
	}
	if len(recent) == 0 {
		return Reading{}, ErrNotFound
	}
	return recent[0], nil
}

// SetRisk attaches a predictor result to a stored reading.
func (s *MemoryStore) SetRisk(_ context.Context, id string, label string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.RiskLabel = &label
	r.RiskScore = &score
	s.byID[id] = r
	return nil
}

// PurgeBefore deletes readings recorded before the cutoff.
func (s *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for userID, ids := range s.byUser {
		kept := ids[:0]
		for _, id := range ids {
			r := s.byID[id]
			if r.RecordedAt.Before(cutoff) {
				delete(s.byID, id)
				purged++
				continue
			}
			kept = append(kept, id)
		}
		s.byUser[userID] = kept
	}
	return purged, nil
}

// Len reports the total number of stored readings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
