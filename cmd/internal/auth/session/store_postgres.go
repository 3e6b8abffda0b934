package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (refresh_tokens).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed refresh-token store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindByHash loads a record by token hash.
func (s *PostgresStore) FindByHash(ctx context.Context, tokenHash string) (Record, error) {
	var rec Record

	err := s.pool.QueryRow(ctx, `
		SELECT token_hash, user_id, issued_at, expires_at, revoked, replaced_by_token
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&rec.TokenHash,
		&rec.UserID,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.Revoked,
		&rec.ReplacedByToken,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrInvalidSession
	}
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Insert persists a new refresh-token record.
func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (
			token_hash, user_id, issued_at, expires_at, revoked, replaced_by_token
		) VALUES ($1, $2, $3, $4, FALSE, NULL)
	`, rec.TokenHash, rec.UserID, rec.IssuedAt, rec.ExpiresAt)
	return err
}

// ConditionalRevoke is the rotation CAS: a single conditional UPDATE keyed on
// revoked = FALSE. Two racing rotations on the same token see exactly one
// affected row between them.
func (s *PostgresStore) ConditionalRevoke(ctx context.Context, tokenHash, newTokenHash string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE,
		    replaced_by_token = $2
		WHERE token_hash = $1
		  AND NOT revoked
	`, tokenHash, newTokenHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Revoke marks a record revoked without a replacement (logout). Idempotent.
func (s *PostgresStore) Revoke(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1
		  AND NOT revoked
	`, tokenHash)
	return err
}

// RevokeChain revokes the record and every successor linked through
// replaced_by_token, in one statement.
func (s *PostgresStore) RevokeChain(ctx context.Context, tokenHash string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		WITH RECURSIVE chain AS (
			SELECT token_hash, replaced_by_token
			FROM refresh_tokens
			WHERE token_hash = $1
			UNION ALL
			SELECT rt.token_hash, rt.replaced_by_token
			FROM refresh_tokens rt
			JOIN chain c ON rt.token_hash = c.replaced_by_token
		)
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash IN (SELECT token_hash FROM chain)
		  AND NOT revoked
	`, tokenHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeExpired deletes records that expired before the cutoff.
func (s *PostgresStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
