package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telcodash/pkg/auth"
	"telcodash/pkg/config"
	"telcodash/pkg/metrics"
	"telcodash/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func withUser(id, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, id)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	app := fiber.New()
	app.Get("/me", AuthMiddleware(jwtManager, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + "/" + c.Locals(LocalRole).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwtManager.GenerateToken("user-1", "a@b.test", "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "user-1/admin", readBody(t, resp))
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	app := fiber.New()
	app.Get("/me", AuthMiddleware(jwtManager, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	refresh, err := jwtManager.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		status int
	}{
		{name: "admin allowed", role: "admin", status: fiber.StatusOK},
		{name: "user forbidden", role: "user", status: fiber.StatusForbidden},
		{name: "missing role forbidden", role: "", status: fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/plans", withUser("u", tt.role), RequireRole("admin", zap.NewNop()), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/plans", nil))
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimit(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	cfg := config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	app := fiber.New()
	app.Use(withUser("user-1", "user"))
	app.Use(RateLimit(store.NewMemory(), cfg, m, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i, remaining := range []string{"1", "0"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
		require.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
		require.Equal(t, remaining, resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false, Requests: 1, Window: time.Minute}
	app := fiber.New()
	app.Use(RateLimit(store.NewMemory(), cfg, nil, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestResponseCache(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Use(withUser("user-1", "user"))
	app.Use(ResponseCache(store.NewMemory(), time.Minute, "admin", nil, zap.NewNop()))
	app.Get("/lines", func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"calls": calls})
	})
	app.Post("/lines", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	get := func() (string, string) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/lines", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		return readBody(t, resp), resp.Header.Get("X-Cache")
	}

	body, cache := get()
	require.Equal(t, `{"calls":1}`, body)
	require.Equal(t, "MISS", cache)

	body, cache = get()
	require.Equal(t, `{"calls":1}`, body)
	require.Equal(t, "HIT", cache)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/lines", strings.NewReader("{}")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, cache = get()
	require.Equal(t, `{"calls":2}`, body)
	require.Equal(t, "MISS", cache)
}

func TestResponseCacheAdminWriteRetiresEveryUser(t *testing.T) {
	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, c.Get("X-User"))
		c.Locals(LocalRole, c.Get("X-Role"))
		return c.Next()
	})
	app.Use(ResponseCache(store.NewMemory(), time.Minute, "admin", nil, zap.NewNop()))
	app.Get("/plans", func(c *fiber.Ctx) error {
		calls++
		return c.JSON(fiber.Map{"calls": calls})
	})
	app.Put("/admin/plans/1", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Put("/lines/1", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(method, path, user, role string) *http.Response {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("X-User", user)
		req.Header.Set("X-Role", role)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, "MISS", send(http.MethodGet, "/plans", "user-2", "user").Header.Get("X-Cache"))
	require.Equal(t, "HIT", send(http.MethodGet, "/plans", "user-2", "user").Header.Get("X-Cache"))

	// a regular user's write only retires that user's entries
	send(http.MethodPut, "/lines/1", "user-3", "user")
	require.Equal(t, "HIT", send(http.MethodGet, "/plans", "user-2", "user").Header.Get("X-Cache"))

	send(http.MethodPut, "/admin/plans/1", "admin-1", "admin")
	resp := send(http.MethodGet, "/plans", "user-2", "user")
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	require.Equal(t, `{"calls":2}`, readBody(t, resp))
}

func TestRequestMetricsUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	app := fiber.New()
	app.Use(RequestMetrics(m))
	app.Get("/lines/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/lines/"+id, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "telcodash_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["route"] == "/lines/:id" && labels["status"] == "204" {
				require.Equal(t, 2.0, metric.GetCounter().GetValue())
				found = true
			}
		}
	}
	require.True(t, found)
}
