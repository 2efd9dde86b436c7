package service

import (
	"context"
	"testing"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"
	"telcodash/pkg/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBudgetService(w *world) *BudgetService {
	svc := NewBudgetService(w.budgets, w.lines, w.usage, w.notifications, metrics.New(w.registry), zap.NewNop())
	svc.now = clock
	return svc
}

func budgetRequest(entityType, entityID, amount, period string, threshold float64) *dto.BudgetRequest {
	return &dto.BudgetRequest{
		EntityType:     entityType,
		EntityID:       entityID,
		Amount:         dec(amount),
		Period:         period,
		AlertThreshold: threshold,
		StartDate:      "2024-01-01",
	}
}

func TestBudgetServiceCheckThresholds(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "Sales", nil, 0, 10)
	w.addUsage(t, line.ID, "Jun", 2024, 5, "85")
	w.addUsage(t, line.ID, "May", 2024, 5, "50")

	budget, err := svc.Create(ctx, userID, budgetRequest("company", "ignored", "100", "monthly", 80))
	require.NoError(t, err)
	require.Equal(t, userID.String(), budget.EntityID)

	check, err := svc.CheckThresholds(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, check.Checked)
	require.Len(t, check.Exceeded, 1)
	require.Equal(t, 85.0, check.Exceeded[0].SpendingPercentage)
	require.True(t, check.Exceeded[0].Spending.Equal(dec("85")))
	require.Equal(t, "Jun-2024", check.Exceeded[0].Window.From.String())
	require.Equal(t, 1, check.Notifications)

	alerts := w.notifications.ofType(models.NotificationAlert)
	require.Len(t, alerts, 1)
	require.Contains(t, alerts[0].Message, "85.0%")

	// no cross-run dedup: a second check alerts again
	_, err = svc.CheckThresholds(ctx, userID)
	require.NoError(t, err)
	require.Len(t, w.notifications.ofType(models.NotificationAlert), 2)
	require.Equal(t, 2.0, counterTotal(t, w.registry, "telcodash_budget_alerts_total"))
}

func TestBudgetServiceNoAlertJustBelowThreshold(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "Sales", nil, 0, 10)
	w.addUsage(t, line.ID, "Jun", 2024, 5, "79.996")

	_, err := svc.Create(ctx, userID, budgetRequest("company", "", "100", "monthly", 80))
	require.NoError(t, err)

	check, err := svc.CheckThresholds(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, check.Checked)
	require.Empty(t, check.Exceeded)
	require.Zero(t, check.Notifications)
	require.Empty(t, w.notifications.ofType(models.NotificationAlert))
}

func TestBudgetServiceDepartmentSpending(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	userID := uuid.New()
	sales := w.addLine(t, userID, "+4915100000001", "Sales", nil, 0, 10)
	ops := w.addLine(t, userID, "+4915100000002", "Ops", nil, 0, 10)
	w.addUsage(t, sales.ID, "Apr", 2024, 1, "30")
	w.addUsage(t, sales.ID, "Jun", 2024, 1, "20")
	w.addUsage(t, sales.ID, "Mar", 2024, 1, "40")
	w.addUsage(t, ops.ID, "Jun", 2024, 1, "100")

	_, err := svc.Create(ctx, userID, budgetRequest("department", "Sales", "200", "quarterly", 90))
	require.NoError(t, err)

	evals, err := svc.Status(ctx, userID)
	require.NoError(t, err)
	require.Len(t, evals, 1)
	require.True(t, evals[0].Spending.Equal(dec("50")), evals[0].Spending.String())
	require.Equal(t, 25.0, evals[0].SpendingPercentage)
	require.False(t, evals[0].Exceeded)
	require.Empty(t, w.notifications.items, "status never notifies")
}

func TestBudgetServiceRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "", nil, 0, 10)

	expired := budgetRequest("line", line.ID.String(), "50", "monthly", 80)
	expired.EndDate = "2024-01-31"
	_, err := svc.Create(ctx, userID, expired)
	require.NoError(t, err)

	first, err := svc.Create(ctx, userID, budgetRequest("line", line.ID.String(), "50", "monthly", 80))
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, budgetRequest("line", line.ID.String(), "70", "yearly", 50))
	require.ErrorIs(t, err, ErrBudgetOverlap)
	require.ErrorIs(t, err, apperror.ErrConflict)

	// updating the active budget itself is not an overlap
	_, err = svc.Update(ctx, userID, first.ID, budgetRequest("line", line.ID.String(), "60", "monthly", 75))
	require.NoError(t, err)
}

func TestBudgetServiceValidation(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	userID := uuid.New()
	foreign := w.addLine(t, uuid.New(), "+4915100000009", "", nil, 0, 10)

	cases := []struct {
		name  string
		req   *dto.BudgetRequest
		field string
	}{
		{name: "zero amount", req: budgetRequest("company", "", "0", "monthly", 80), field: "amount"},
		{name: "bad period", req: budgetRequest("company", "", "10", "weekly", 80), field: "period"},
		{name: "bad line id", req: budgetRequest("line", "not-a-uuid", "10", "monthly", 80), field: "entity_id"},
		{name: "missing department", req: budgetRequest("department", " ", "10", "monthly", 80), field: "entity_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, userID, tc.req)
			var vErr *apperror.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Contains(t, vErr.Fields, tc.field)
		})
	}

	reversed := budgetRequest("company", "", "10", "monthly", 80)
	reversed.EndDate = "2023-12-31"
	_, err := svc.Create(ctx, userID, reversed)
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, userID, budgetRequest("line", foreign.ID.String(), "10", "monthly", 80))
	require.ErrorIs(t, err, apperror.ErrAccessDenied)
}

func TestBudgetServiceOwnership(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newBudgetService(w)
	owner := uuid.New()

	budget, err := svc.Create(ctx, owner, budgetRequest("company", "", "100", "yearly", 80))
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), budget.ID)
	require.ErrorIs(t, err, apperror.ErrAccessDenied)
	require.ErrorIs(t, svc.Delete(ctx, uuid.New(), budget.ID), apperror.ErrAccessDenied)
	require.NoError(t, svc.Delete(ctx, owner, budget.ID))

	_, err = svc.Get(ctx, owner, budget.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
