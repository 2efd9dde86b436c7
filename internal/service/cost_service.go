package service

import (
	"context"
	"fmt"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type CostService struct {
	usage  UsageRepository
	costs  CostRepository
	recs   RecommendationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCostService(usage UsageRepository, costs CostRepository, recs RecommendationRepository, logger *zap.Logger) *CostService {
	return &CostService{
		usage:  usage,
		costs:  costs,
		recs:   recs,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateForMonth sums the cost columns of every line's record for the month and
// upserts the user's breakdown. Running it again replaces the totals.
func (s *CostService) GenerateForMonth(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error) {
	name, err := models.ParseMonth(month)
	if err != nil {
		return nil, apperror.Invalid("month", err.Error())
	}

	records, err := s.usage.ListByUserForMonth(ctx, userID, name, year)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cost := &models.CostBreakdown{
		ID:        uuid.New(),
		UserID:    userID,
		Month:     name,
		Year:      year,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, r := range records {
		cost.Add(r)
	}

	if err := s.costs.Upsert(ctx, cost); err != nil {
		return nil, fmt.Errorf("upsert cost breakdown: %w", err)
	}
	s.logger.Info("Cost breakdown generated",
		zap.String("user_id", userID.String()),
		zap.String("month", name),
		zap.Int("year", year),
		zap.Int("records", len(records)),
	)
	return cost, nil
}

func (s *CostService) GetCostByCategory(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error) {
	name, err := models.ParseMonth(month)
	if err != nil {
		return nil, apperror.Invalid("month", err.Error())
	}
	return s.costs.Get(ctx, userID, name, year)
}

// History returns every stored breakdown, oldest first.
func (s *CostService) History(ctx context.Context, userID uuid.UUID) ([]models.CostBreakdown, error) {
	return s.costs.ListByUser(ctx, userID)
}

func (s *CostService) OptimizationSummary(ctx context.Context, userID uuid.UUID) (*dto.OptimizationSummaryResponse, error) {
	bySavings, err := s.recs.OpenSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	applied := false
	open, err := s.recs.ListByUser(ctx, userID, &applied)
	if err != nil {
		return nil, err
	}
	history, err := s.costs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, amount := range bySavings {
		total = total.Add(amount)
	}

	shares := make(map[string]dto.CategoryShare, len(bySavings))
	for category, amount := range bySavings {
		share := dto.CategoryShare{Amount: amount}
		if total.IsPositive() {
			share.Percentage = amount.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
		shares[string(category)] = share
	}

	resp := &dto.OptimizationSummaryResponse{
		OpenRecommendations: len(open),
		PotentialSavings:    total,
		SavingsByCategory:   shares,
		LatestMonthCost:     decimal.Zero,
	}
	if len(history) > 0 {
		resp.LatestMonthCost = history[len(history)-1].TotalCost
	}
	return resp, nil
}
