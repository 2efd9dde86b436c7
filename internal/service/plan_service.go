package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"telcodash/internal/analytics"
	"telcodash/internal/dto"
	"telcodash/internal/engine"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PlanService struct {
	plans  PlanRepository
	lines  LineRepository
	usage  UsageRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewPlanService(plans PlanRepository, lines LineRepository, usage UsageRepository, logger *zap.Logger) *PlanService {
	return &PlanService{
		plans:  plans,
		lines:  lines,
		usage:  usage,
		logger: logger,
		now:    time.Now,
	}
}

func (s *PlanService) List(ctx context.Context) ([]models.ServicePlan, error) {
	return s.plans.List(ctx)
}

func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*models.ServicePlan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *PlanService) Create(ctx context.Context, req *dto.PlanRequest) (*models.ServicePlan, error) {
	if req.Price.IsNegative() {
		return nil, apperror.Invalid("price", "must not be negative")
	}

	now := s.now().UTC()
	plan := &models.ServicePlan{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	applyPlanRequest(plan, req, now)

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.logger.Info("Plan created", zap.String("plan_id", plan.ID.String()), zap.String("name", plan.Name))
	return plan, nil
}

func (s *PlanService) Update(ctx context.Context, id uuid.UUID, req *dto.PlanRequest) (*models.ServicePlan, error) {
	if req.Price.IsNegative() {
		return nil, apperror.Invalid("price", "must not be negative")
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPlanRequest(plan, req, s.now().UTC())

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.plans.Delete(ctx, id)
}

// Compare measures every catalog plan against the line's trend-adjusted usage.
func (s *PlanService) Compare(ctx context.Context, userID, lineID uuid.UUID) (*dto.PlanComparisonResponse, error) {
	line, err := ownedLine(ctx, s.lines, userID, lineID)
	if err != nil {
		return nil, err
	}

	history, err := s.usage.ListByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}

	pattern := analytics.AnalyzeUsagePatterns(history)
	effective := engine.EffectiveUsage(line.CurrentUsage, pattern)

	resp := &dto.PlanComparisonResponse{
		LineID:         line.ID.String(),
		EffectiveUsage: effective,
		Trend:          string(pattern.Trend),
		Plans:          make([]dto.PlanFit, 0, len(catalog)),
	}
	for _, p := range catalog {
		overage := decimal.NewFromFloat(math.Max(0, effective-p.DataLimit)).Mul(engine.OverageRate).Round(2)
		fit := dto.PlanFit{
			Plan:             dto.NewPlanResponse(p),
			IsCurrent:        line.PlanID != nil && *line.PlanID == p.ID,
			Fits:             p.DataLimit >= effective,
			EstimatedOverage: overage,
			MonthlyCost:      p.Price.Add(overage),
		}
		if p.DataLimit > 0 {
			fit.Utilization = effective / p.DataLimit * 100
		}
		resp.Plans = append(resp.Plans, fit)
	}
	return resp, nil
}

func applyPlanRequest(plan *models.ServicePlan, req *dto.PlanRequest, now time.Time) {
	features := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		features = append(features, sanitizeText(f))
	}

	plan.Name = sanitizeText(req.Name)
	plan.DataLimit = req.DataLimit
	plan.CallLimit = req.CallLimit
	plan.SMSLimit = req.SMSLimit
	plan.Price = req.Price
	plan.Features = features
	plan.UpdatedAt = now
}
