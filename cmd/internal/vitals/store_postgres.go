package vitals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (vitals).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed readings store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const readingColumns = `
	id, user_id, heart_rate, systolic, diastolic, spo2, temperature_c,
	notes, source, recorded_at, created_at, risk_label, risk_score
`

func scanReading(row pgx.Row) (Reading, error) {
	var r Reading
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.HeartRate,
		&r.Systolic,
		&r.Diastolic,
		&r.SpO2,
		&r.TemperatureC,
		&r.Notes,
		&r.Source,
		&r.RecordedAt,
		&r.CreatedAt,
		&r.RiskLabel,
		&r.RiskScore,
	)
	return r, err
}

// Insert persists a new reading.
func (s *PostgresStore) Insert(ctx context.Context, r Reading) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vitals (
			id, user_id, heart_rate, systolic, diastolic, spo2, temperature_c,
			notes, source, recorded_at, created_at, risk_label, risk_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.ID, r.UserID, r.HeartRate, r.Systolic, r.Diastolic, r.SpO2,
		r.TemperatureC, r.Notes, r.Source, r.RecordedAt, r.CreatedAt, r.RiskLabel, r.RiskScore)
	return err
}

// Recent returns up to limit readings for userID, newest first.
func (s *PostgresStore) Recent(ctx context.Context, userID string, limit int) ([]Reading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+readingColumns+`
		FROM vitals
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Reading, 0, limit)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Latest returns the newest reading for userID.
func (s *PostgresStore) Latest(ctx context.Context, userID string) (Reading, error) {
	r, err := scanReading(s.pool.QueryRow(ctx, `
		SELECT `+readingColumns+`
		FROM vitals
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reading{}, ErrNotFound
	}
	if err != nil {
		return Reading{}, err
	}
	return r, nil
}

// SetRisk attaches a predictor result to a stored reading.
func (s *PostgresStore) SetRisk(ctx context.Context, id string, label string, score float64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE vitals
		SET risk_label = $2,
		    risk_score = $3
		WHERE id = $1
	`, id, label, score)
	return err
}

// PurgeBefore deletes readings recorded before the cutoff.
func (s *PostgresStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM vitals
		WHERE recorded_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
