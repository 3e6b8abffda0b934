package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are enabled when VITALIS_TEST_DATABASE_URL is set.

func mustOpenTestPool(t *testing.T, schema string) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("VITALIS_TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: VITALIS_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse VITALIS_TEST_DATABASE_URL: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	c, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func newTestSchema(t *testing.T) string {
	t.Helper()

	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return "session_test_" + hex.EncodeToString(b[:])
}

func mustApplySchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx := context.Background()
	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA %s", schema),
		`CREATE TABLE refresh_tokens (
			token_hash        TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			issued_at         TIMESTAMPTZ NOT NULL,
			expires_at        TIMESTAMPTZ NOT NULL,
			revoked           BOOLEAN NOT NULL DEFAULT FALSE,
			replaced_by_token TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
	})
}

func TestPostgresStore_RotationLifecycle(t *testing.T) {
	t.Parallel()

	schema := newTestSchema(t)
	pool := mustOpenTestPool(t, schema)
	defer pool.Close()
	mustApplySchema(t, pool, schema)

	store := NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec := Record{
		TokenHash: "hash-a",
		UserID:    "user-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.FindByHash(ctx, "hash-a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.UserID != "user-1" || got.Revoked || got.ReplacedByToken != nil {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.Active(now) {
		t.Fatalf("record should be active")
	}

	if _, err := store.FindByHash(ctx, "missing"); err != ErrInvalidSession {
		t.Fatalf("missing hash: want ErrInvalidSession, got %v", err)
	}

	// First conditional revoke wins, second loses.
	won, err := store.ConditionalRevoke(ctx, "hash-a", "hash-b")
	if err != nil || !won {
		t.Fatalf("first CAS: won=%v err=%v", won, err)
	}
	won, err = store.ConditionalRevoke(ctx, "hash-a", "hash-c")
	if err != nil || won {
		t.Fatalf("second CAS: won=%v err=%v", won, err)
	}

	got, err = store.FindByHash(ctx, "hash-a")
	if err != nil {
		t.Fatalf("find after CAS: %v", err)
	}
	if !got.Rotated() || *got.ReplacedByToken != "hash-b" {
		t.Fatalf("expected rotated record linked to hash-b, got %+v", got)
	}
}

func TestPostgresStore_RevokeChain(t *testing.T) {
	t.Parallel()

	schema := newTestSchema(t)
	pool := mustOpenTestPool(t, schema)
	defer pool.Close()
	mustApplySchema(t, pool, schema)

	store := NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	// Chain: a (rotated to b) -> b (rotated to c) -> c (live).
	for _, hash := range []string{"a", "b", "c"} {
		err := store.Insert(ctx, Record{
			TokenHash: hash,
			UserID:    "user-1",
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", hash, err)
		}
	}
	if _, err := store.ConditionalRevoke(ctx, "a", "b"); err != nil {
		t.Fatalf("revoke a: %v", err)
	}
	if _, err := store.ConditionalRevoke(ctx, "b", "c"); err != nil {
		t.Fatalf("revoke b: %v", err)
	}

	n, err := store.RevokeChain(ctx, "a")
	if err != nil {
		t.Fatalf("revoke chain: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 newly revoked record (c), got %d", n)
	}

	got, err := store.FindByHash(ctx, "c")
	if err != nil {
		t.Fatalf("find c: %v", err)
	}
	if !got.Revoked {
		t.Fatalf("chain tail must be revoked")
	}
}

func TestPostgresStore_RevokeAndPurge(t *testing.T) {
	t.Parallel()

	schema := newTestSchema(t)
	pool := mustOpenTestPool(t, schema)
	defer pool.Close()
	mustApplySchema(t, pool, schema)

	store := NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.Insert(ctx, Record{
		TokenHash: "hash-x",
		UserID:    "user-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Idempotent revoke, including unknown hashes.
	if err := store.Revoke(ctx, "hash-x"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.Revoke(ctx, "hash-x"); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}
	if err := store.Revoke(ctx, "never-seen"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}

	got, err := store.FindByHash(ctx, "hash-x")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Revoked || got.ReplacedByToken != nil {
		t.Fatalf("logout must revoke without a successor: %+v", got)
	}

	n, err := store.PurgeExpired(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged record, got %d", n)
	}
}
