package vitals

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Subscriber is one live-feed consumer for a single user's readings.
//
// send is intentionally NOT closed by the publisher to keep fanout panic-safe
// under concurrency; done signals shutdown instead, and Close is idempotent.
type Subscriber struct {
	id     string
	userID string
	send   chan Reading

	done      chan struct{}
	closeOnce sync.Once
}

// Readings returns the channel new readings arrive on.
func (s *Subscriber) Readings() <-chan Reading { return s.send }

// Done returns a channel that is closed when the subscriber is shutting down.
func (s *Subscriber) Done() <-chan struct{} {
	if s == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.done
}

// Close signals shutdown (idempotent). It does NOT close the readings channel.
func (s *Subscriber) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Feed is the in-memory fanout for live readings, keyed by user.
//
// Concurrency guarantees:
// - Subscribe/Unsubscribe are safe under concurrent Publish.
// - Publish never blocks (drops under backpressure).
type Feed struct {
	log *slog.Logger

	mu     sync.RWMutex
	byUser map[string]map[string]*Subscriber
}

// NewFeed constructs an empty Feed.
func NewFeed(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		log:    log,
		byUser: make(map[string]map[string]*Subscriber),
	}
}

// Subscribe registers a consumer for userID's readings.
func (f *Feed) Subscribe(userID string, queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = 16
	}
	sub := &Subscriber{
		id:     ulid.Make().String(),
		userID: userID,
		send:   make(chan Reading, queueSize),
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	subs := f.byUser[userID]
	if subs == nil {
		subs = make(map[string]*Subscriber)
		f.byUser[userID] = subs
	}
	subs[sub.id] = sub
	f.mu.Unlock()

	f.log.Info("vitals.feed.subscribe", "user_id", userID, "subscriber_id", sub.id)
	return sub
}

// Unsubscribe removes a consumer and signals its shutdown.
func (f *Feed) Unsubscribe(sub *Subscriber) {
	if f == nil || sub == nil {
		return
	}

	f.mu.Lock()
	if subs := f.byUser[sub.userID]; subs != nil {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(f.byUser, sub.userID)
		}
	}
	f.mu.Unlock()

	// Signal shutdown after removal so publishers holding a pointer see done.
	sub.Close()

	f.log.Info("vitals.feed.unsubscribe", "user_id", sub.userID, "subscriber_id", sub.id)
}

// Publish fans a reading out to every subscriber of its user.
// Non-blocking: slow consumers lose readings rather than stalling ingest.
func (f *Feed) Publish(r Reading) {
	if f == nil {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.byUser[r.UserID] {
		if sub == nil {
			continue
		}

		select {
		case <-sub.Done():
			continue
		default:
		}

		select {
		case sub.send <- r:
		default:
			// Drop rather than block the whole feed.
		}
	}
}
