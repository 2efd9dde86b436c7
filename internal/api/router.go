package api

import (
	"errors"

	"telcodash/docs"
	"telcodash/internal/api/handlers"
	"telcodash/internal/models"
	"telcodash/pkg/auth"
	"telcodash/pkg/config"
	"telcodash/pkg/metrics"
	"telcodash/pkg/middleware"
	"telcodash/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by SetupRouter.
type Handlers struct {
	Auth            *handlers.AuthHandler
	Lines           *handlers.LineHandler
	Plans           *handlers.PlanHandler
	Usage           *handlers.UsageHandler
	Costs           *handlers.CostHandler
	Budgets         *handlers.BudgetHandler
	Notifications   *handlers.NotificationHandler
	Recommendations *handlers.RecommendationHandler
	Dashboard       *handlers.DashboardHandler
}

// Deps carries the shared infrastructure the middleware chain needs.
type Deps struct {
	JWT      *auth.JWTManager
	Store    store.Store
	Config   *config.Config
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

func SetupRouter(h Handlers, deps Deps, appLogger *zap.Logger) *fiber.App {
	cfg := deps.Config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())
	app.Use(middleware.RequestMetrics(deps.Metrics))

	// registering the docs package happens in its init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authRoutes := app.Group("/user/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/refresh", h.Auth.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(deps.JWT, appLogger))
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(deps.Store, cfg.RateLimit, deps.Metrics, appLogger))
	}
	if cfg.Cache.Enabled {
		protected.Use(middleware.ResponseCache(deps.Store, cfg.Cache.TTL, models.RoleAdmin, deps.Metrics, appLogger))
	}

	protected.Get("/me", h.Auth.Me)
	protected.Get("/dashboard", h.Dashboard.Dashboard)
	protected.Get("/service-status", h.Dashboard.ServiceStatus)

	lines := protected.Group("/lines")
	lines.Post("", h.Lines.CreateLine)
	lines.Get("", h.Lines.ListLines)
	lines.Get("/:id", h.Lines.GetLine)
	lines.Put("/:id", h.Lines.UpdateLine)
	lines.Delete("/:id", h.Lines.DeleteLine)
	lines.Get("/:id/usage", h.Lines.LineUsage)
	lines.Post("/:id/usage/sample", h.Usage.GenerateSample)
	lines.Get("/:id/anomalies", h.Usage.LineAnomalies)
	lines.Get("/:id/patterns", h.Usage.Patterns)
	lines.Get("/:id/plans/compare", h.Plans.ComparePlans)

	plans := protected.Group("/plans")
	plans.Get("", h.Plans.ListPlans)
	plans.Get("/:id", h.Plans.GetPlan)

	usage := protected.Group("/usage")
	usage.Post("", h.Usage.IngestUsage)
	usage.Get("/trends", h.Usage.Trends)
	usage.Get("/anomalies", h.Usage.Anomalies)
	usage.Put("/:id", h.Usage.CorrectUsage)

	costs := protected.Group("/costs")
	costs.Post("/generate", h.Costs.GenerateCosts)
	costs.Get("/history", h.Costs.CostHistory)
	costs.Get("/summary", h.Costs.OptimizationSummary)
	costs.Get("/:year/:month", h.Costs.GetCosts)

	budgets := protected.Group("/budgets")
	budgets.Get("", h.Budgets.ListBudgets)
	budgets.Post("", h.Budgets.CreateBudget)
	budgets.Get("/status", h.Budgets.BudgetStatus)
	budgets.Post("/check", h.Budgets.CheckThresholds)
	budgets.Get("/:id", h.Budgets.GetBudget)
	budgets.Put("/:id", h.Budgets.UpdateBudget)
	budgets.Delete("/:id", h.Budgets.DeleteBudget)

	notifications := protected.Group("/notifications")
	notifications.Get("", h.Notifications.ListNotifications)
	notifications.Get("/unread-count", h.Notifications.UnreadCount)
	notifications.Put("/read-all", h.Notifications.MarkAllRead)
	notifications.Put("/:id/read", h.Notifications.MarkRead)
	notifications.Delete("/:id", h.Notifications.DeleteNotification)

	recs := protected.Group("/recommendations")
	recs.Get("", h.Recommendations.ListRecommendations)
	recs.Post("/generate", h.Recommendations.GenerateRecommendations)
	recs.Post("/:id/apply", h.Recommendations.ApplyRecommendation)
	recs.Delete("/:id", h.Recommendations.DeleteRecommendation)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin, appLogger))
	admin.Post("/plans", h.Plans.CreatePlan)
	admin.Put("/plans/:id", h.Plans.UpdatePlan)
	admin.Delete("/plans/:id", h.Plans.DeletePlan)
	admin.Put("/service-status/:name", h.Dashboard.UpdateServiceStatus)

	return app
}
