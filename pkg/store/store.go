// Package store is the key/value abstraction behind the response cache and the rate limiter.
// The memory backend is only correct for a single API instance; run several instances on the
// redis backend.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telcodash/pkg/config"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr increments the counter under key, starting a ttl window on first use.
	// It returns the new count and the time left in the window.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
	// Sweep drops expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		mem := NewMemory()
		go mem.RunSweeper(ctx, cfg.SweepInterval, logger)
		logger.Info("Using in-memory store", zap.Duration("sweep_interval", cfg.SweepInterval))
		return mem, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Info("Using redis store", zap.String("addr", cfg.RedisAddr))
		return NewRedis(client, "telcodash"), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Key joins parts into a normalized store key.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, trimmed)
	}
	return strings.Join(values, ":")
}
