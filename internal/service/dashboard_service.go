package service

import (
	"context"
	"errors"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DashboardService struct {
	lines         LineRepository
	usage         UsageRepository
	costs         CostRepository
	notifications NotificationRepository
	recs          RecommendationRepository
	budgets       *BudgetService
	logger        *zap.Logger
	now           func() time.Time
}

func NewDashboardService(
	lines LineRepository,
	usage UsageRepository,
	costs CostRepository,
	notifications NotificationRepository,
	recs RecommendationRepository,
	budgets *BudgetService,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		lines:         lines,
		usage:         usage,
		costs:         costs,
		notifications: notifications,
		recs:          recs,
		budgets:       budgets,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *DashboardService) Summary(ctx context.Context, userID uuid.UUID) (*dto.DashboardResponse, error) {
	period := models.YearMonthOf(s.now().UTC())

	counts, err := s.lines.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.DashboardResponse{
		Lines:         make(map[string]int, 3),
		CurrentPeriod: period.String(),
	}
	for _, status := range []models.LineStatus{models.LineActive, models.LineSuspended, models.LineTerminated} {
		resp.Lines[string(status)] = counts[status]
		resp.TotalLines += counts[status]
	}

	resp.CurrentMonthCost, err = s.currentMonthCost(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	resp.UnreadNotifications, err = s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	savings, err := s.recs.OpenSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.OpenSavings = decimal.Zero
	for _, amount := range savings {
		resp.OpenSavings = resp.OpenSavings.Add(amount)
	}

	evals, err := s.budgets.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.ActiveBudgets = len(evals)
	for _, e := range evals {
		if e.Exceeded {
			resp.ExceededBudgets++
		}
	}
	return resp, nil
}

// currentMonthCost prefers the stored breakdown and falls back to summing usage.
func (s *DashboardService) currentMonthCost(ctx context.Context, userID uuid.UUID, period models.YearMonth) (decimal.Decimal, error) {
	cost, err := s.costs.Get(ctx, userID, period.MonthName(), period.Year)
	if err == nil {
		return cost.TotalCost, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return decimal.Zero, err
	}

	records, err := s.usage.ListByUserForMonth(ctx, userID, period.MonthName(), period.Year)
	if err != nil {
		return decimal.Zero, err
	}
	var sum models.CostBreakdown
	for _, r := range records {
		sum.Add(r)
	}
	return sum.TotalCost, nil
}
