package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telcodash/internal/api/handlers"
	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/auth"
	"telcodash/pkg/config"
	"telcodash/pkg/metrics"
	"telcodash/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type profileOnly struct {
	handlers.AuthService
}

func (profileOnly) Profile(_ context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID.String(), Role: models.RoleUser}, nil
}

func testRouter(t *testing.T, requests int) (*fiber.App, *auth.JWTManager) {
	t.Helper()
	log := zap.NewNop()
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	reg := prometheus.NewRegistry()

	cfg := &config.Config{
		RateLimit: config.RateLimitConfig{Enabled: true, Requests: requests, Window: time.Minute},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Server:    config.ServerConfig{AllowOrigins: "*"},
	}
	h := Handlers{
		Auth:            handlers.NewAuthHandler(profileOnly{}, log),
		Lines:           handlers.NewLineHandler(nil, log),
		Plans:           handlers.NewPlanHandler(nil, log),
		Usage:           handlers.NewUsageHandler(nil, log),
		Costs:           handlers.NewCostHandler(nil, log),
		Budgets:         handlers.NewBudgetHandler(nil, log),
		Notifications:   handlers.NewNotificationHandler(nil, log),
		Recommendations: handlers.NewRecommendationHandler(nil, log),
		Dashboard:       handlers.NewDashboardHandler(nil, nil, log),
	}
	app := SetupRouter(h, Deps{
		JWT:      jwtManager,
		Store:    store.NewMemory(),
		Config:   cfg,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	}, log)
	return app, jwtManager
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRouterPublicRoutes(t *testing.T) {
	app, _ := testRouter(t, 10)

	resp := get(t, app, "/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = get(t, app, "/api/v1/lines", "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRouterProtectedChain(t *testing.T) {
	app, jwtManager := testRouter(t, 2)
	userID := uuid.NewString()
	token, err := jwtManager.GenerateToken(userID, "ops@acme.test", models.RoleUser)
	require.NoError(t, err)

	resp := get(t, app, "/api/v1/me", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/plans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = get(t, app, "/api/v1/me", token)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRouterExposesMetrics(t *testing.T) {
	app, _ := testRouter(t, 10)
	get(t, app, "/health", "")

	resp := get(t, app, "/metrics", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "telcodash_http_requests_total")
}
