// Package app wires the Vitalis server runtime: config, logging, persistence,
// caching, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"vitalis/cmd/identity"
	authapi "vitalis/cmd/internal/auth/api"
	"vitalis/cmd/internal/auth/session"
	"vitalis/cmd/internal/vitals"
	"vitalis/cmd/security/password"
)

// App is the Vitalis server runtime: it owns resource lifecycles and the HTTP
// server wiring.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool
	rdb       *redis.Client

	sessions  *session.Manager
	auth      *authapi.Handler
	vitalsSvc *vitals.Service
	vitalsAPI *vitals.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	var (
		dbPool    *pgxpool.Pool
		dbEnabled bool

		userStore    identity.Store
		sessionStore session.Store
		vitalsStore  vitals.Store
	)

	if cfg.DatabaseURL == "" {
		// In-memory dev mode: everything vanishes on restart.
		log.Info("db.disabled.inmemory_store")
		userStore = identity.NewMemoryStore()
		sessionStore = session.NewMemoryStore()
		vitalsStore = vitals.NewMemoryStore()
	} else {
		pool, err := NewDBPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")
		dbPool = pool
		dbEnabled = true
		userStore = identity.NewPostgresStore(pool)
		sessionStore = session.NewPostgresStore(pool)
		vitalsStore = vitals.NewPostgresStore(pool)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	sessions := session.NewManager(sessCfg, log, userStore, sessionStore, tokens)

	pwCfg, err := password.FromEnv()
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	authCfg := authapi.LoadConfigFromEnv()
	authHandler, err := authapi.NewHandler(log, authCfg, pwCfg, userStore, sessions)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	rdb, err := NewRedisClient(ctx, cfg, log)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	cache := vitals.NewCache(rdb, log, vitals.DefaultCacheTTL)

	var predictor vitals.Predictor
	if cfg.MLURL != "" {
		predictor = vitals.NewHTTPPredictor(cfg.MLURL, cfg.MLTimeout)
		log.Info("vitals.predictor.enabled", "url", cfg.MLURL)
	} else {
		log.Info("vitals.predictor.disabled")
	}

	feed := vitals.NewFeed(log)
	vitalsSvc := vitals.NewService(log, vitalsStore, cache, predictor, feed)
	vitalsAPI, err := vitals.NewHandler(log, vitalsSvc, feed, authHandler, authCfg.MaxBodyBytes)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		rdb:       rdb,
		sessions:  sessions,
		auth:      authHandler,
		vitalsSvc: vitalsSvc,
		vitalsAPI: vitalsAPI,
	}, nil
}

// Run starts the HTTP server and the cleanup janitor, then blocks until
// context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.vitalsAPI)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.runJanitor(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.close(shutdownCtx)

	a.log.Info("server.stopped")
	return nil
}

// runJanitor periodically garbage-collects expired refresh tokens and, when a
// retention window is configured, old readings. Correctness never depends on
// it: rotation and validation check expiry themselves.
func (a *App) runJanitor(ctx context.Context) {
	interval := nonZeroDuration(a.cfg.JanitorInterval, time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()

			if n, err := a.sessions.PurgeExpired(ctx, now); err != nil {
				a.log.Error("janitor.sessions.fail", "err", err)
			} else if n > 0 {
				a.log.Info("janitor.sessions.purged", "count", n)
			}

			if a.cfg.VitalsRetention > 0 {
				cutoff := now.Add(-a.cfg.VitalsRetention)
				if n, err := a.vitalsSvc.PurgeBefore(ctx, cutoff); err != nil {
					a.log.Error("janitor.vitals.fail", "err", err)
				} else if n > 0 {
					a.log.Info("janitor.vitals.purged", "count", n)
				}
			}
		}
	}
}

func (a *App) close(_ context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
