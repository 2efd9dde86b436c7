package middleware

import (
	"strconv"
	"time"

	"telcodash/pkg/config"
	"telcodash/pkg/metrics"
	"telcodash/pkg/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RateLimit applies a fixed window per caller: the user id when authenticated, the client IP otherwise.
// Store failures let the request through.
func RateLimit(st store.Store, cfg config.RateLimitConfig, m *metrics.Metrics, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || cfg.Requests <= 0 {
			return c.Next()
		}

		caller := UserID(c)
		if caller == "" {
			caller = "ip:" + c.IP()
		}

		count, remaining, err := st.Incr(c.UserContext(), store.Key("ratelimit", caller), cfg.Window)
		if err != nil {
			logger.Warn("Rate limit store unavailable", zap.Error(err))
			return c.Next()
		}

		limit := int64(cfg.Requests)
		left := limit - count
		if left < 0 {
			left = 0
		}
		reset := int(remaining.Round(time.Second) / time.Second)

		c.Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
		c.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > limit {
			m.RateLimited()
			logger.Warn("Rate limit exceeded", zap.String("caller", caller), zap.Int64("count", count))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(reset))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		}

		return c.Next()
	}
}
