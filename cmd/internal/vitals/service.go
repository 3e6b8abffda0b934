package vitals

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vitalis/cmd/identity"
)

var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitalis_vitals_ingest_total",
		Help: "Vital-sign ingest attempts by outcome.",
	}, []string{"outcome"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitalis_vitals_cache_lookups_total",
		Help: "Cache-aside lookups for recent readings by result.",
	}, []string{"result"})
)

// Service is the vitals subsystem facade: validation, persistence, risk
// prediction, and caching behind three operations.
type Service struct {
	log       *slog.Logger
	store     Store
	cache     *Cache
	predictor Predictor
	feed      *Feed
}

// NewService constructs a vitals Service. cache, predictor, and feed may be nil.
func NewService(log *slog.Logger, store Store, cache *Cache, predictor Predictor, feed *Feed) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log, store: store, cache: cache, predictor: predictor, feed: feed}
}

// Ingest validates and stores a reading for userID, then attaches a risk
// prediction when the model service answers in time. Prediction failure never
// fails the ingest.
func (s *Service) Ingest(ctx context.Context, now time.Time, userID string, in ReadingInput) (Reading, error) {
	r, err := NewReading(now, userID, in)
	if err != nil {
		ingestTotal.WithLabelValues("invalid").Inc()
		return Reading{}, err
	}

	if err := s.store.Insert(ctx, r); err != nil {
		ingestTotal.WithLabelValues("store_error").Inc()
		return Reading{}, err
	}

	if s.predictor != nil {
		if pred, err := s.predictor.Predict(ctx, r); err != nil {
			s.log.Warn("vitals.predict.fail", "err", err, "reading_id", r.ID)
		} else {
			r.RiskLabel = &pred.Label
			r.RiskScore = &pred.Score
			if err := s.store.SetRisk(ctx, r.ID, pred.Label, pred.Score); err != nil {
				s.log.Warn("vitals.predict.save.fail", "err", err, "reading_id", r.ID)
			}
		}
	}

	s.cache.Invalidate(ctx, userID)
	s.feed.Publish(r)

	ingestTotal.WithLabelValues("ok").Inc()
	return r, nil
}

// Recent returns up to limit readings for targetUserID, newest first, going
// through the cache. The caller's claims decide access: patients read only
// their own readings, doctors read anyone's.
func (s *Service) Recent(ctx context.Context, callerID string, callerRole identity.Role, targetUserID string, limit int) ([]Reading, error) {
	if err := authorize(callerID, callerRole, targetUserID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if cached, ok := s.cache.GetRecent(ctx, targetUserID, limit); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	readings, err := s.store.Recent(ctx, targetUserID, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetRecent(ctx, targetUserID, limit, readings)
	return readings, nil
}

// Latest returns the newest reading for targetUserID under the same access
// rules as Recent. Uncached: the single-row read is cheap and staleness
// matters most here.
func (s *Service) Latest(ctx context.Context, callerID string, callerRole identity.Role, targetUserID string) (Reading, error) {
	if err := authorize(callerID, callerRole, targetUserID); err != nil {
		return Reading{}, err
	}
	return s.store.Latest(ctx, targetUserID)
}

// PurgeBefore garbage-collects old readings.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.store.PurgeBefore(ctx, cutoff)
}

func authorize(callerID string, callerRole identity.Role, targetUserID string) error {
	if callerRole == identity.RoleDoctor {
		return nil
	}
	if callerID == targetUserID {
		return nil
	}
	return ErrForbidden
}
