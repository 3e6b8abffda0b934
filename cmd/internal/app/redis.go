package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis when an address is configured. Returns nil
// when Redis is disabled; the vitals cache treats a nil client as a no-op.
func NewRedisClient(ctx context.Context, cfg Config, log Logger) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Info("redis.disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Info("redis.enabled", "addr", cfg.RedisAddr)
	return rdb, nil
}
