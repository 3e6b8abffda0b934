package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed credential store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `
	id, name, email, password_hash, role,
	email_verified, last_login_at, created_at
`

// FindByEmail loads a user by normalized email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.FindByEmail"
	return s.findOne(ctx, op, `WHERE email = $1`, NormalizeEmail(email))
}

// FindByID loads a user by ID.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, error) {
	const op = "identity.FindByID"
	return s.findOne(ctx, op, `WHERE id = $1`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, op, where string, arg any) (User, error) {
	var u User
	var role string

	err := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		`+where+`
	`, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.EmailVerified,
		&u.LastLoginAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	u.Role = Role(role)
	return u, nil
}

// Create persists a new user row.
func (s *PostgresStore) Create(ctx context.Context, u User) error {
	const op = "identity.Create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (
			id, name, email, password_hash, role,
			email_verified, last_login_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.EmailVerified, u.CreatedAt)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return err
	}
	return nil
}

// SaveLastLogin records the last successful login timestamp.
func (s *PostgresStore) SaveLastLogin(ctx context.Context, id string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET last_login_at = $2
		WHERE id = $1
	`, id, now)
	return err
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer the stable schema constraint name; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case c == "uq_users_email" || strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
