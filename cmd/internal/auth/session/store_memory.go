package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for unit tests and DB-less dev mode.
//
// The single mutex makes ConditionalRevoke a true compare-and-swap: the
// check and the write happen under one critical section.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

// NewMemoryStore constructs an empty in-memory refresh-token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

// FindByHash loads a record by token hash.
func (s *MemoryStore) FindByHash(ctx context.Context, tokenHash string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[tokenHash]
	if !ok {
		return Record{}, ErrInvalidSession
	}
	return rec, nil
}

// Insert persists a new record.
func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs[rec.TokenHash] = rec
	return nil
}

// ConditionalRevoke atomically retires an active record and links its replacement.
func (s *MemoryStore) ConditionalRevoke(ctx context.Context, tokenHash, newTokenHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[tokenHash]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	replaced := newTokenHash
	rec.ReplacedByToken = &replaced
	s.recs[tokenHash] = rec
	return true, nil
}

// Revoke marks a record revoked without replacement. Idempotent.
func (s *MemoryStore) Revoke(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[tokenHash]
	if !ok || rec.Revoked {
		return nil
	}
	rec.Revoked = true
	s.recs[tokenHash] = rec
	return nil
}

// RevokeChain revokes the record and all successors reachable via ReplacedByToken.
func (s *MemoryStore) RevokeChain(ctx context.Context, tokenHash string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	hash := tokenHash
	for {
		rec, ok := s.recs[hash]
		if !ok {
			break
		}
		if !rec.Revoked {
			rec.Revoked = true
			s.recs[hash] = rec
			n++
		}
		if rec.ReplacedByToken == nil {
			break
		}
		hash = *rec.ReplacedByToken
	}
	return n, nil
}

// PurgeExpired removes records that expired before the cutoff.
func (s *MemoryStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.recs {
		if !rec.ExpiresAt.After(cutoff) {
			delete(s.recs, hash)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// ActiveCount reports how many records are still active at now. Test helper.
func (s *MemoryStore) ActiveCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.recs {
		if rec.Active(now) {
			n++
		}
	}
	return n
}
