package service

import (
	"context"
	"testing"

	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCostService(w *world) *CostService {
	svc := NewCostService(w.usage, w.costs, w.recs, zap.NewNop())
	svc.now = clock
	return svc
}

func TestCostServiceGenerateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newCostService(w)
	userID := uuid.New()
	a := w.addLine(t, userID, "+4915100000001", "", nil, 0, 10)
	b := w.addLine(t, userID, "+4915100000002", "", nil, 0, 10)
	require.NoError(t, w.usage.Create(ctx, &models.UsageRecord{
		ID: uuid.New(), LineID: a.ID, Month: "Jun", Year: 2024,
		DataCost: dec("10"), CallsCost: dec("4.50"), RoamingCost: dec("12"),
	}))
	require.NoError(t, w.usage.Create(ctx, &models.UsageRecord{
		ID: uuid.New(), LineID: b.ID, Month: "Jun", Year: 2024,
		DataCost: dec("5"), SMSCost: dec("1.25"),
	}))
	w.addUsage(t, a.ID, "May", 2024, 3, "99")

	first, err := svc.GenerateForMonth(ctx, userID, "June", 2024)
	require.NoError(t, err)
	require.True(t, first.TotalCost.Equal(dec("32.75")), first.TotalCost.String())

	second, err := svc.GenerateForMonth(ctx, userID, "Jun", 2024)
	require.NoError(t, err)
	require.Len(t, w.costs.rows, 1)
	require.Equal(t, first.ID, second.ID)

	got, err := svc.GetCostByCategory(ctx, userID, "jun", 2024)
	require.NoError(t, err)
	require.True(t, got.DataCost.Equal(dec("15")))
	require.True(t, got.CallsCost.Equal(dec("4.5")))
	require.True(t, got.SMSCost.Equal(dec("1.25")))
	require.True(t, got.RoamingCost.Equal(dec("12")))
	require.True(t, got.TotalCost.Equal(first.TotalCost))

	_, err = svc.GetCostByCategory(ctx, userID, "Jul", 2024)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GenerateForMonth(ctx, userID, "Juneteenth", 2024)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCostServiceHistoryIsChronological(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newCostService(w)
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "", nil, 0, 10)
	w.addUsage(t, line.ID, "Feb", 2024, 1, "2")
	w.addUsage(t, line.ID, "Nov", 2023, 1, "3")

	for _, m := range []struct {
		month string
		year  int
	}{{"Feb", 2024}, {"Nov", 2023}} {
		_, err := svc.GenerateForMonth(ctx, userID, m.month, m.year)
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "Nov", history[0].Month)
	require.Equal(t, "Feb", history[1].Month)
}

func TestCostServiceOptimizationSummary(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newCostService(w)
	userID := uuid.New()
	w.recs.recs = []models.Recommendation{
		{ID: uuid.New(), UserID: userID, Category: models.CategoryPlanUpgrade, SavingsAmount: dec("5")},
		{ID: uuid.New(), UserID: userID, Category: models.CategoryDataSharing, SavingsAmount: dec("15")},
		{ID: uuid.New(), UserID: userID, Category: models.CategoryPlanDowngrade, SavingsAmount: dec("100"), IsApplied: true},
	}
	w.costs.rows = []models.CostBreakdown{{ID: uuid.New(), UserID: userID, Month: "May", Year: 2024, TotalCost: dec("240")}}

	summary, err := svc.OptimizationSummary(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.OpenRecommendations)
	require.True(t, summary.PotentialSavings.Equal(dec("20")))
	require.Equal(t, 25.0, summary.SavingsByCategory["plan_upgrade"].Percentage)
	require.Equal(t, 75.0, summary.SavingsByCategory["data_sharing"].Percentage)
	require.NotContains(t, summary.SavingsByCategory, "plan_downgrade")
	require.True(t, summary.LatestMonthCost.Equal(dec("240")))
}
