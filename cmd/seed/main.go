package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/internal/service"
	"telcodash/pkg/apperror"
	"telcodash/pkg/auth"
	"telcodash/pkg/config"
	"telcodash/pkg/logger"
	"telcodash/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed catalog.json
var catalogJSON []byte

const sampleMonths = 12

type seedLine struct {
	dto.CreateLineRequest
	Plan string `json:"plan"`
}

type seedStatus struct {
	Name string `json:"name"`
	dto.ServiceStatusRequest
}

type catalog struct {
	Plans    []dto.PlanRequest `json:"plans"`
	Statuses []seedStatus      `json:"statuses"`
	Lines    []seedLine        `json:"lines"`
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	var data catalog
	if err := json.Unmarshal(catalogJSON, &data); err != nil {
		appLogger.Fatal("Failed to parse seed catalog", zap.Error(err))
	}

	// Connect to database
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.Migrate(pool, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool, appLogger)
	lineRepo := repository.NewLineRepository(pool, appLogger)
	planRepo := repository.NewPlanRepository(pool, appLogger)
	usageRepo := repository.NewUsageRepository(pool, appLogger)
	costRepo := repository.NewCostRepository(pool, appLogger)
	budgetRepo := repository.NewBudgetRepository(pool, appLogger)
	notificationRepo := repository.NewNotificationRepository(pool, appLogger)
	recRepo := repository.NewRecommendationRepository(pool, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	s := &seeder{
		logger:   appLogger,
		users:    userRepo,
		auth:     service.NewAuthService(userRepo, jwtManager, appLogger),
		plans:    service.NewPlanService(planRepo, lineRepo, usageRepo, appLogger),
		statuses: service.NewStatusService(repository.NewServiceStatusRepository(pool, appLogger), appLogger),
		lines:    service.NewLineService(lineRepo, planRepo, usageRepo, appLogger),
		usage:    service.NewUsageService(lineRepo, usageRepo, cfg.Engine, nil, appLogger),
		costs:    service.NewCostService(usageRepo, costRepo, recRepo, appLogger),
		budgets:  service.NewBudgetService(budgetRepo, lineRepo, usageRepo, notificationRepo, nil, appLogger),
		recs:     service.NewRecommendationService(recRepo, lineRepo, planRepo, usageRepo, notificationRepo, nil, appLogger),
	}

	appLogger.Info("Starting database seeding...")
	if err := s.run(ctx, data, getEnv("SEED_PASSWORD", "telcodash-demo")); err != nil {
		appLogger.Fatal("Seeding failed", zap.Error(err))
	}
	appLogger.Info("Database seeding completed successfully!")
}

type seeder struct {
	logger   *zap.Logger
	users    *repository.UserRepository
	auth     *service.AuthService
	plans    *service.PlanService
	statuses *service.StatusService
	lines    *service.LineService
	usage    *service.UsageService
	costs    *service.CostService
	budgets  *service.BudgetService
	recs     *service.RecommendationService
}

func (s *seeder) run(ctx context.Context, data catalog, password string) error {
	planIDs, err := s.seedPlans(ctx, data.Plans)
	if err != nil {
		return err
	}
	for _, st := range data.Statuses {
		if _, err := s.statuses.Upsert(ctx, st.Name, &st.ServiceStatusRequest); err != nil {
			return err
		}
	}
	if err := s.seedAdmin(ctx, password); err != nil {
		return err
	}

	resp, err := s.auth.Register(ctx, &dto.RegisterRequest{
		Name:        "Demo Owner",
		Email:       "demo@telcodash.io",
		Password:    password,
		CompanyName: "Acme Logistics GmbH",
	})
	if errors.Is(err, service.ErrUserExists) {
		s.logger.Info("Demo company already seeded, skipping lines and usage")
		return nil
	}
	if err != nil {
		return err
	}
	userID := uuid.MustParse(resp.User.ID)

	for _, l := range data.Lines {
		req := l.CreateLineRequest
		if id, ok := planIDs[l.Plan]; ok {
			req.PlanID = id.String()
		}
		line, err := s.lines.Create(ctx, userID, &req)
		if err != nil {
			return err
		}
		if _, err := s.usage.GenerateSample(ctx, userID, line.ID, sampleMonths); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for ym, i := models.YearMonthOf(now).AddMonths(-(sampleMonths - 1)), 0; i < sampleMonths; ym, i = ym.AddMonths(1), i+1 {
		if _, err := s.costs.GenerateForMonth(ctx, userID, ym.MonthName(), ym.Year); err != nil {
			return err
		}
	}

	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	for _, b := range []dto.BudgetRequest{
		{EntityType: "company", Amount: decimal.NewFromInt(250), Period: "monthly", AlertThreshold: 80, StartDate: start},
		{EntityType: "department", EntityID: "sales", Amount: decimal.NewFromInt(150), Period: "quarterly", AlertThreshold: 90, StartDate: start},
	} {
		if _, err := s.budgets.Create(ctx, userID, &b); err != nil {
			return err
		}
	}
	if _, err := s.budgets.CheckThresholds(ctx, userID); err != nil {
		return err
	}

	res, err := s.recs.Generate(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("Seeded demo company",
		zap.String("email", resp.User.Email),
		zap.Int("lines", len(data.Lines)),
		zap.Int("recommendations", len(res.Created)),
	)
	return nil
}

// seedPlans creates catalog plans that do not exist yet and returns ids by name.
func (s *seeder) seedPlans(ctx context.Context, plans []dto.PlanRequest) (map[string]uuid.UUID, error) {
	existing, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(plans))
	for _, p := range existing {
		ids[p.Name] = p.ID
	}
	for i := range plans {
		if _, ok := ids[plans[i].Name]; ok {
			continue
		}
		plan, err := s.plans.Create(ctx, &plans[i])
		if err != nil {
			return nil, err
		}
		ids[plan.Name] = plan.ID
		s.logger.Info("Seeded plan", zap.String("name", plan.Name))
	}
	return ids, nil
}

func (s *seeder) seedAdmin(ctx context.Context, password string) error {
	const email = "admin@telcodash.io"
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.users.Create(ctx, &models.User{
		ID:        uuid.New(),
		Name:      "Administrator",
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
