package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telcodash/internal/api"
	"telcodash/internal/api/handlers"
	"telcodash/internal/repository"
	"telcodash/internal/service"
	"telcodash/pkg/auth"
	"telcodash/pkg/config"
	"telcodash/pkg/logger"
	"telcodash/pkg/metrics"
	"telcodash/pkg/postgres"
	"telcodash/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// @title Telcodash API
// @version 1.0
// @description Telecom usage analytics, budgets and plan optimization for small businesses
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@telcodash.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting telcodash service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.Migrate(pool, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	db := postgres.NewRetryDB(pool, cfg.Database.RetryBackoff, logger.Named("postgres"))

	kv, err := store.New(ctx, cfg.Store, logger.Named("store"))
	if err != nil {
		appLogger.Fatal("Failed to initialize store", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	lineRepo := repository.NewLineRepository(db, appLogger)
	planRepo := repository.NewPlanRepository(db, appLogger)
	usageRepo := repository.NewUsageRepository(db, appLogger)
	costRepo := repository.NewCostRepository(db, appLogger)
	budgetRepo := repository.NewBudgetRepository(db, appLogger)
	notificationRepo := repository.NewNotificationRepository(db, appLogger)
	recRepo := repository.NewRecommendationRepository(db, appLogger)
	statusRepo := repository.NewServiceStatusRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	lineService := service.NewLineService(lineRepo, planRepo, usageRepo, appLogger)
	planService := service.NewPlanService(planRepo, lineRepo, usageRepo, appLogger)
	usageService := service.NewUsageService(lineRepo, usageRepo, cfg.Engine, appMetrics, appLogger)
	costService := service.NewCostService(usageRepo, costRepo, recRepo, appLogger)
	budgetService := service.NewBudgetService(budgetRepo, lineRepo, usageRepo, notificationRepo, appMetrics, appLogger)
	notificationService := service.NewNotificationService(notificationRepo, appLogger)
	recService := service.NewRecommendationService(recRepo, lineRepo, planRepo, usageRepo, notificationRepo, appMetrics, appLogger)
	dashboardService := service.NewDashboardService(lineRepo, usageRepo, costRepo, notificationRepo, recRepo, budgetService, appLogger)
	statusService := service.NewStatusService(statusRepo, appLogger)

	// Setup router
	app := api.SetupRouter(api.Handlers{
		Auth:            handlers.NewAuthHandler(authService, appLogger),
		Lines:           handlers.NewLineHandler(lineService, appLogger),
		Plans:           handlers.NewPlanHandler(planService, appLogger),
		Usage:           handlers.NewUsageHandler(usageService, appLogger),
		Costs:           handlers.NewCostHandler(costService, appLogger),
		Budgets:         handlers.NewBudgetHandler(budgetService, appLogger),
		Notifications:   handlers.NewNotificationHandler(notificationService, appLogger),
		Recommendations: handlers.NewRecommendationHandler(recService, appLogger),
		Dashboard:       handlers.NewDashboardHandler(dashboardService, statusService, appLogger),
	}, api.Deps{
		JWT:      jwtManager,
		Store:    kv,
		Config:   cfg,
		Metrics:  appMetrics,
		Gatherer: registry,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
