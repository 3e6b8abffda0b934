package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vitalis/cmd/identity"
	"vitalis/cmd/security/token"
)

var rotationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vitalis_session_rotations_total",
	Help: "Refresh rotation attempts by outcome.",
}, []string{"outcome"})

// Manager orchestrates issuance, rotation, and revocation of refresh tokens
// against the Store, and mints access tokens via the AccessTokenManager.
//
// Every operation is safe under arbitrary interleaving of calls on the same
// token: the only mutual-exclusion point is Store.ConditionalRevoke.
type Manager struct {
	cfg    Config
	log    *slog.Logger
	users  identity.Store
	store  Store
	tokens AccessTokenManager
}

// Issued is the result of issuing or rotating a session.
type Issued struct {
	UserID       string
	Role         identity.Role
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewManager constructs a Manager with the provided configuration and collaborators.
func NewManager(cfg Config, log *slog.Logger, users identity.Store, store Store, tokens AccessTokenManager) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, log: log, users: users, store: store, tokens: tokens}
}

// newRefreshToken returns a fresh opaque token value and its server-side hash.
// Values are UUIDv4: globally unique across all time, never reused.
func newRefreshToken() (plain string, hash string) {
	plain = uuid.NewString()
	return plain, token.HashRefreshTokenHex(plain)
}

// Issue starts a new rotation chain for an already-authenticated user.
//
// The caller must have verified credentials (or a prior session) first; Issue
// itself has no failure modes beyond store-write errors, which propagate.
func (m *Manager) Issue(ctx context.Context, now time.Time, user identity.User) (Issued, error) {
	plain, hash := newRefreshToken()
	refreshExp := now.Add(m.cfg.RefreshTTL)

	if err := m.store.Insert(ctx, Record{
		TokenHash: hash,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return Issued{}, err
	}

	accessToken, accessExp, err := m.tokens.Issue(user.ID, user.Role, now)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: plain,
		RefreshExp:   refreshExp,
	}, nil
}

// Rotate exchanges a presented refresh token for a successor token plus a
// fresh access token.
//
// State machine: ACTIVE -> ROTATED (revoked + replaced-by set) via this path,
// or -> REVOKED (revoked, no replacement) via logout. Only ACTIVE records
// rotate; everything else fails with ErrInvalidSession, with causes kept
// indistinguishable.
//
// Concurrency: the ConditionalRevoke CAS decides races. Of N concurrent calls
// presenting the same token, exactly one wins; losers must not create a
// replacement, or the chain would fork into two live sessions.
func (m *Manager) Rotate(ctx context.Context, now time.Time, presented string) (Issued, error) {
	presentedHash := token.HashRefreshTokenHex(presented)

	rec, err := m.store.FindByHash(ctx, presentedHash)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			rotationOutcomes.WithLabelValues("invalid").Inc()
		}
		return Issued{}, err
	}

	if rec.Rotated() {
		if m.lostRotationRace(ctx, rec, now) {
			// The record was retired within the grace window of its successor's
			// issuance: this caller is a concurrent racer, not a replay. Chain
			// revocation here would kill the winner's fresh successor and leave
			// no active session at all.
			rotationOutcomes.WithLabelValues("lost_race").Inc()
			return Issued{}, ErrInvalidSession
		}
		// A rotated token re-presented after the grace window is a theft
		// signal: the legitimate client already holds the successor. Kill the
		// whole chain so a stolen token can't keep an attacker's lineage alive.
		if n, chainErr := m.store.RevokeChain(ctx, rec.TokenHash); chainErr != nil {
			m.log.Error("session.rotate.chain_revoke.fail", "err", chainErr)
		} else if n > 0 {
			m.log.Warn("session.rotate.reuse_detected", "user_id", rec.UserID, "revoked", n)
		}
		rotationOutcomes.WithLabelValues("reuse").Inc()
		return Issued{}, ErrInvalidSession
	}

	if rec.Revoked || !rec.ExpiresAt.After(now) {
		rotationOutcomes.WithLabelValues("invalid").Inc()
		return Issued{}, ErrInvalidSession
	}

	newPlain, newHash := newRefreshToken()

	won, err := m.store.ConditionalRevoke(ctx, rec.TokenHash, newHash)
	if err != nil {
		return Issued{}, err
	}
	if !won {
		// Lost the CAS to a concurrent rotation on the same token.
		rotationOutcomes.WithLabelValues("lost_race").Inc()
		return Issued{}, ErrInvalidSession
	}

	refreshExp := now.Add(m.cfg.RefreshTTL)
	if err := m.store.Insert(ctx, Record{
		TokenHash: newHash,
		UserID:    rec.UserID,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return Issued{}, err
	}

	user, err := m.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			// The token record is left to passive expiry.
			rotationOutcomes.WithLabelValues("user_gone").Inc()
			return Issued{}, ErrUserNotFound
		}
		return Issued{}, err
	}

	accessToken, accessExp, err := m.tokens.Issue(user.ID, user.Role, now)
	if err != nil {
		return Issued{}, err
	}

	rotationOutcomes.WithLabelValues("ok").Inc()
	return Issued{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: newPlain,
		RefreshExp:   refreshExp,
	}, nil
}

// lostRotationRace reports whether a rotated record was retired so recently
// that its presenter must be treated as the loser of a concurrent rotation.
// After a race exactly one new active record must remain; the reuse-hardening
// path only fires once the successor is older than the configured grace.
func (m *Manager) lostRotationRace(ctx context.Context, rec Record, now time.Time) bool {
	if rec.ReplacedByToken == nil {
		return false
	}
	succ, err := m.store.FindByHash(ctx, *rec.ReplacedByToken)
	if err != nil {
		// Successor not visible yet: the winner is still between its CAS
		// and its insert.
		return true
	}
	return now.Before(succ.IssuedAt.Add(m.cfg.ReuseGrace))
}

// Revoke handles logout. It is deliberately asymmetric with Rotate: logout is
// best-effort cleanup, not an authentication check, so unknown and
// already-revoked tokens succeed silently.
func (m *Manager) Revoke(ctx context.Context, now time.Time, presented string) error {
	_ = now // revocation is not time-conditional; expired tokens revoke fine
	return m.store.Revoke(ctx, token.HashRefreshTokenHex(presented))
}

// ValidateAccess verifies an access token and returns its claims.
//
// No store lookup happens here: access tokens are self-contained, so a
// revoked session's access token stays valid for its remaining (short) TTL.
func (m *Manager) ValidateAccess(accessToken string, now time.Time) (AccessClaims, error) {
	return m.tokens.Verify(accessToken, now)
}

// PurgeExpired garbage-collects expired records. Called from a background
// janitor; correctness never depends on it running.
func (m *Manager) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.store.PurgeExpired(ctx, now)
}
