package vitals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalis/cmd/identity"
)

type fakePredictor struct {
	pred  Prediction
	err   error
	calls int
}

func (p *fakePredictor) Predict(_ context.Context, _ Reading) (Prediction, error) {
	p.calls++
	if p.err != nil {
		return Prediction{}, p.err
	}
	return p.pred, nil
}

func newTestService(t *testing.T, predictor Predictor) (*Service, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, store, nil, predictor, nil), store
}

func TestIngestStoresAndPredicts(t *testing.T) {
	t.Parallel()

	predictor := &fakePredictor{pred: Prediction{Label: "elevated", Score: 0.73}}
	svc, store := newTestService(t, predictor)

	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	r, err := svc.Ingest(ctx, now, "user-1", validInput())
	require.NoError(t, err)
	require.Equal(t, 1, predictor.calls)
	require.NotNil(t, r.RiskLabel)
	assert.Equal(t, "elevated", *r.RiskLabel)
	assert.InDelta(t, 0.73, *r.RiskScore, 1e-9)

	// The persisted copy carries the risk too.
	stored, err := store.Latest(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored.RiskLabel)
	assert.Equal(t, "elevated", *stored.RiskLabel)
}

func TestIngestSurvivesPredictorFailure(t *testing.T) {
	t.Parallel()

	predictor := &fakePredictor{err: errors.New("model service down")}
	svc, store := newTestService(t, predictor)

	r, err := svc.Ingest(context.Background(), time.Now().UTC(), "user-1", validInput())
	require.NoError(t, err)
	assert.Nil(t, r.RiskLabel)
	assert.Nil(t, r.RiskScore)
	assert.Equal(t, 1, store.Len())
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	predictor := &fakePredictor{}
	svc, store := newTestService(t, predictor)

	in := validInput()
	in.HeartRate = 500

	_, err := svc.Ingest(context.Background(), time.Now().UTC(), "user-1", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, predictor.calls, "invalid readings must not reach the predictor")
}

func TestRecentAccessControl(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		in := validInput()
		in.RecordedAt = now.Add(time.Duration(i) * time.Minute)
		_, err := svc.Ingest(ctx, now, "patient-1", in)
		require.NoError(t, err)
	}

	// Patients read their own history, newest first.
	got, err := svc.Recent(ctx, "patient-1", identity.RolePatient, "patient-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].RecordedAt.After(got[1].RecordedAt))

	// Doctors read anyone's.
	got, err = svc.Recent(ctx, "doctor-9", identity.RoleDoctor, "patient-1", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Other patients are refused.
	_, err = svc.Recent(ctx, "patient-2", identity.RolePatient, "patient-1", 10)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Latest(ctx, "patient-2", identity.RolePatient, "patient-1")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRecentClampsLimit(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 30 {
		in := validInput()
		in.RecordedAt = now.Add(time.Duration(i) * time.Minute)
		_, err := svc.Ingest(ctx, now, "patient-1", in)
		require.NoError(t, err)
	}

	for _, limit := range []int{0, -5, 101} {
		got, err := svc.Recent(ctx, "patient-1", identity.RolePatient, "patient-1", limit)
		require.NoError(t, err)
		assert.Len(t, got, 20, "limit %d should clamp to the default", limit)
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.Latest(ctx, "patient-1", identity.RolePatient, "patient-1")
	require.ErrorIs(t, err, ErrNotFound)

	older := validInput()
	older.RecordedAt = now.Add(-time.Hour)
	_, err = svc.Ingest(ctx, now, "patient-1", older)
	require.NoError(t, err)

	newest := validInput()
	newest.HeartRate = 90
	_, err = svc.Ingest(ctx, now, "patient-1", newest)
	require.NoError(t, err)

	got, err := svc.Latest(ctx, "patient-1", identity.RolePatient, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.HeartRate)
}

func TestPurgeBefore(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, nil)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	old := validInput()
	old.RecordedAt = now.Add(-48 * time.Hour)
	_, err := svc.Ingest(ctx, now, "patient-1", old)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, now, "patient-1", validInput())
	require.NoError(t, err)

	n, err := svc.PurgeBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, store.Len())
}

func TestRecentUsesCache(t *testing.T) {
	cache, _ := newTestCache(t)
	store := NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(log, store, cache, nil, nil)

	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.Ingest(ctx, now, "patient-1", validInput())
	require.NoError(t, err)

	first, err := svc.Recent(ctx, "patient-1", identity.RolePatient, "patient-1", 20)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The second read is served from the cache: inserting behind the cache's
	// back does not change the answer until invalidation.
	require.NoError(t, store.Insert(ctx, cachedReading("patient-1", now.Add(time.Minute))))

	second, err := svc.Recent(ctx, "patient-1", identity.RolePatient, "patient-1", 20)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	// Ingest invalidates, so the next read sees everything.
	_, err = svc.Ingest(ctx, now.Add(2*time.Minute), "patient-1", validInput())
	require.NoError(t, err)

	third, err := svc.Recent(ctx, "patient-1", identity.RolePatient, "patient-1", 20)
	require.NoError(t, err)
	assert.Len(t, third, 3)
}
