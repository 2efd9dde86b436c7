package service

import (
	"context"
	"testing"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlanServiceCompare(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := NewPlanService(w.plans, w.lines, w.usage, zap.NewNop())
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "", &w.medium, 11, 10)

	cmp, err := svc.Compare(ctx, userID, line.ID)
	require.NoError(t, err)
	require.Equal(t, 11.0, cmp.EffectiveUsage)
	require.Len(t, cmp.Plans, 3)

	medium := cmp.Plans[0]
	require.True(t, medium.IsCurrent)
	require.False(t, medium.Fits)
	require.True(t, medium.EstimatedOverage.Equal(dec("10")))
	require.True(t, medium.MonthlyCost.Equal(dec("30")))
	require.InDelta(t, 110.0, medium.Utilization, 1e-9)

	large := cmp.Plans[1]
	require.False(t, large.IsCurrent)
	require.True(t, large.Fits)
	require.True(t, large.MonthlyCost.Equal(dec("25")))

	_, err = svc.Compare(ctx, uuid.New(), line.ID)
	require.ErrorIs(t, err, apperror.ErrAccessDenied)
}

func TestPlanServiceCRUD(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := NewPlanService(w.plans, w.lines, w.usage, zap.NewNop())
	svc.now = clock

	plan, err := svc.Create(ctx, &dto.PlanRequest{Name: "Unlimited", DataLimit: 100, Price: dec("60"), Features: []string{" 5G ", "EU roaming"}})
	require.NoError(t, err)
	require.Equal(t, []string{"5G", "EU roaming"}, plan.Features)

	_, err = svc.Create(ctx, &dto.PlanRequest{Name: "Unlimited", Price: dec("1")})
	require.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Create(ctx, &dto.PlanRequest{Name: "Broken", Price: dec("-1")})
	require.ErrorIs(t, err, apperror.ErrValidation)

	updated, err := svc.Update(ctx, plan.ID, &dto.PlanRequest{Name: "Unlimited+", DataLimit: 200, Price: dec("70")})
	require.NoError(t, err)
	require.Equal(t, "Unlimited+", updated.Name)
	require.Empty(t, updated.Features)

	require.NoError(t, svc.Delete(ctx, plan.ID))
	_, err = svc.Get(ctx, plan.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDashboardServiceSummary(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	budgets := newBudgetService(w)
	svc := NewDashboardService(w.lines, w.usage, w.costs, w.notifications, w.recs, budgets, zap.NewNop())
	svc.now = clock
	userID := uuid.New()

	a := w.addLine(t, userID, "+4915100000001", "", nil, 0, 10)
	w.addLine(t, userID, "+4915100000002", "", nil, 0, 10)
	suspended := w.addLine(t, userID, "+4915100000003", "", nil, 0, 10)
	suspended.Status = models.LineSuspended
	require.NoError(t, w.lines.Update(ctx, &suspended))

	w.addUsage(t, a.ID, "Jun", 2024, 3, "42.50")
	w.notifications.items = []models.Notification{{ID: uuid.New(), UserID: userID, Type: models.NotificationInfo}}
	w.recs.recs = []models.Recommendation{{ID: uuid.New(), UserID: userID, Category: models.CategoryPlanUpgrade, SavingsAmount: dec("7.5")}}
	_, err := budgets.Create(ctx, userID, budgetRequest("company", "", "40", "monthly", 80))
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalLines)
	require.Equal(t, 2, summary.Lines["active"])
	require.Equal(t, 1, summary.Lines["suspended"])
	require.Equal(t, 0, summary.Lines["terminated"])
	require.Equal(t, "Jun-2024", summary.CurrentPeriod)
	require.True(t, summary.CurrentMonthCost.Equal(dec("42.5")), "falls back to usage when no breakdown is stored")
	require.Equal(t, 1, summary.UnreadNotifications)
	require.True(t, summary.OpenSavings.Equal(dec("7.5")))
	require.Equal(t, 1, summary.ActiveBudgets)
	require.Equal(t, 1, summary.ExceededBudgets)

	w.costs.rows = []models.CostBreakdown{{ID: uuid.New(), UserID: userID, Month: "Jun", Year: 2024, TotalCost: dec("50")}}
	summary, err = svc.Summary(ctx, userID)
	require.NoError(t, err)
	require.True(t, summary.CurrentMonthCost.Equal(dec("50")))
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := NewNotificationService(w.notifications, zap.NewNop())
	userID := uuid.New()
	first := models.Notification{ID: uuid.New(), UserID: userID, Title: "first", Type: models.NotificationInfo}
	second := models.Notification{ID: uuid.New(), UserID: userID, Title: "second", Type: models.NotificationAlert}
	w.notifications.items = []models.Notification{first, second}

	items, err := svc.List(ctx, userID, false, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "second", items[0].Title)

	require.ErrorIs(t, svc.MarkRead(ctx, uuid.New(), first.ID), apperror.ErrAccessDenied)
	require.NoError(t, svc.MarkRead(ctx, userID, first.ID))

	unread, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	items, err = svc.List(ctx, userID, true, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)

	updated, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	require.NoError(t, svc.Delete(ctx, userID, second.ID))
	require.ErrorIs(t, svc.Delete(ctx, userID, second.ID), apperror.ErrNotFound)
}

func TestStatusServiceUpsert(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := NewStatusService(w.statuses, zap.NewNop())
	svc.now = clock

	_, err := svc.Upsert(ctx, "4G network", &dto.ServiceStatusRequest{Status: "degraded", Message: "Cell maintenance in Berlin"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "4G network", &dto.ServiceStatusRequest{Status: "operational"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, models.StateOperational, items[0].Status)

	_, err = svc.Upsert(ctx, "4G network", &dto.ServiceStatusRequest{Status: "on fire"})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Upsert(ctx, "  ", &dto.ServiceStatusRequest{Status: "outage"})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSanitizeText(t *testing.T) {
	require.Equal(t, "Acme", sanitizeText("  Acme\n"))
	require.Equal(t, "ab", sanitizeText("a\xffb"))
	require.Equal(t, "Zoë", sanitizeText("Zoë"))
	require.Equal(t, "+491510000", titlePrefix("+4915100000001: upgrade", 10))
	require.Equal(t, "short", titlePrefix("short", 10))
}
