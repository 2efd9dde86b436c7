package middleware

import (
	"context"
	"time"

	"telcodash/pkg/metrics"
	"telcodash/pkg/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const cacheVersionTTL = 24 * time.Hour

// ResponseCache caches successful GET responses per user and URL.
// Any successful non-GET request by the same user bumps a per-user version,
// which retires every cached response of that user at once. Successful writes
// by a caller with sharedRole also bump a global version included in every key.
func ResponseCache(st store.Store, ttl time.Duration, sharedRole string, m *metrics.Metrics, logger *zap.Logger) fiber.Handler {
	globalKey := store.Key("cache-version", "global")

	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return c.Next()
		}
		ctx := c.UserContext()
		versionKey := store.Key("cache-version", userID)

		if c.Method() != fiber.MethodGet {
			if err := c.Next(); err != nil {
				return err
			}
			if status := c.Response().StatusCode(); status >= 300 {
				return nil
			}
			keys := []string{versionKey}
			if role, _ := c.Locals(LocalRole).(string); sharedRole != "" && role == sharedRole {
				keys = append(keys, globalKey)
			}
			for _, key := range keys {
				if _, _, err := st.Incr(ctx, key, cacheVersionTTL); err != nil {
					logger.Warn("Failed to invalidate response cache", zap.String("key", key), zap.Error(err))
				}
			}
			return nil
		}

		version, err := readVersion(ctx, st, versionKey)
		if err != nil {
			logger.Warn("Response cache unavailable", zap.Error(err))
			return c.Next()
		}
		global, err := readVersion(ctx, st, globalKey)
		if err != nil {
			logger.Warn("Response cache unavailable", zap.Error(err))
			return c.Next()
		}
		key := store.Key("cache", userID, global, version, c.OriginalURL())

		if body, ok, err := st.Get(ctx, key); err == nil && ok {
			m.CacheLookup(true)
			c.Set("X-Cache", "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(fiber.StatusOK).Send(body)
		}
		m.CacheLookup(false)

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		body := append([]byte(nil), c.Response().Body()...)
		if err := st.Set(ctx, key, body, ttl); err != nil {
			logger.Warn("Failed to store cached response", zap.Error(err))
		}
		c.Set("X-Cache", "MISS")
		return nil
	}
}

func readVersion(ctx context.Context, st store.Store, key string) (string, error) {
	raw, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		return "0", err
	}
	return string(raw), nil
}
