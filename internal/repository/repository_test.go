package repository

import (
	"context"
	"testing"
	"time"

	"telcodash/internal/models"
	"telcodash/pkg/apperror"
	"telcodash/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db            postgres.DB
	users         *UserRepository
	lines         *LineRepository
	plans         *PlanRepository
	usage         *UsageRepository
	costs         *CostRepository
	budgets       *BudgetRepository
	notifications *NotificationRepository
	recs          *RecommendationRepository
	statuses      *ServiceStatusRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := postgres.TestTx(t)
	log := zap.NewNop()
	return &fixture{
		db:            db,
		users:         NewUserRepository(db, log),
		lines:         NewLineRepository(db, log),
		plans:         NewPlanRepository(db, log),
		usage:         NewUsageRepository(db, log),
		costs:         NewCostRepository(db, log),
		budgets:       NewBudgetRepository(db, log),
		notifications: NewNotificationRepository(db, log),
		recs:          NewRecommendationRepository(db, log),
		statuses:      NewServiceStatusRepository(db, log),
	}
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.New(),
		Name:      "Ops",
		Email:     uuid.NewString() + "@acme.test",
		Password:  "hash",
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) line(t *testing.T, userID uuid.UUID, department string) *models.TelecomLine {
	t.Helper()
	now := time.Now().UTC()
	l := &models.TelecomLine{
		ID:           uuid.New(),
		UserID:       userID,
		PhoneNumber:  "+336" + uuid.NewString()[:8],
		Department:   department,
		MonthlyLimit: 10,
		Status:       models.LineActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.lines.Create(context.Background(), l))
	return l
}

func (f *fixture) record(t *testing.T, lineID uuid.UUID, month string, year int, cost string) *models.UsageRecord {
	t.Helper()
	rec := &models.UsageRecord{
		ID:        uuid.New(),
		LineID:    lineID,
		Month:     month,
		Year:      year,
		DataUsed:  4.5,
		DataCost:  decimal.RequireFromString(cost),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.usage.Create(context.Background(), rec))
	return rec
}

func TestUserRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)

	got, err := f.users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = f.users.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, apperror.ErrNotFound)

	// constraint errors abort the transaction, keep them last
	dup := *u
	dup.ID = uuid.New()
	require.ErrorIs(t, f.users.Create(ctx, &dup), apperror.ErrConflict)
}

func TestLineRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)
	a := f.line(t, u.ID, "sales")
	f.line(t, u.ID, "ops")

	sales, err := f.lines.ListByUser(ctx, u.ID, LineFilter{Department: "sales"})
	require.NoError(t, err)
	require.Len(t, sales, 1)

	a.Status = models.LineSuspended
	a.CurrentUsage = 3.5
	require.NoError(t, f.lines.Update(ctx, a))
	counts, err := f.lines.CountByStatus(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, counts[models.LineSuspended])
	require.Equal(t, 1, counts[models.LineActive])

	total, err := f.lines.CountByUser(ctx, u.ID, LineFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	f.record(t, a.ID, "Jan", 2026, "10")
	require.NoError(t, f.lines.Delete(ctx, a.ID))
	history, err := f.usage.ListByLine(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, history, "usage history cascades with the line")

	require.ErrorIs(t, f.lines.Delete(ctx, a.ID), apperror.ErrNotFound)

	dup := *f.line(t, u.ID, "ops")
	dup.ID = uuid.New()
	require.ErrorIs(t, f.lines.Create(ctx, &dup), apperror.ErrConflict)
}

func TestPlanRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()
	plan := &models.ServicePlan{
		ID:        uuid.New(),
		Name:      "Plan " + uuid.NewString()[:6],
		DataLimit: 15,
		Price:     decimal.RequireFromString("25.00"),
		Features:  []string{"5G", "EU roaming"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.plans.Create(ctx, plan))

	got, err := f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"5G", "EU roaming"}, got.Features)
	require.True(t, got.Price.Equal(plan.Price))

	plan.Price = decimal.RequireFromString("22.50")
	require.NoError(t, f.plans.Update(ctx, plan))
	got, err = f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, "22.5", got.Price.String())
}

func TestUsageRepositoryOrdersByMonthOrdinal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)
	l := f.line(t, u.ID, "")

	for _, m := range []string{"Dec", "Apr", "Aug", "Feb"} {
		f.record(t, l.ID, m, 2025, "1")
	}
	f.record(t, l.ID, "Jan", 2026, "1")

	history, err := f.usage.ListByLine(ctx, l.ID)
	require.NoError(t, err)
	months := make([]string, len(history))
	for i, r := range history {
		months[i] = r.Month
	}
	require.Equal(t, []string{"Feb", "Apr", "Aug", "Dec", "Jan"}, months)

	history[0].DataUsed = 9
	require.NoError(t, f.usage.Correct(ctx, &history[0]))
	got, err := f.usage.GetByID(ctx, history[0].ID)
	require.NoError(t, err)
	require.Equal(t, 9.0, got.DataUsed)

	month, err := f.usage.ListByUserForMonth(ctx, u.ID, "Aug", 2025)
	require.NoError(t, err)
	require.Len(t, month, 1)

	dup := history[0]
	dup.ID = uuid.New()
	require.ErrorIs(t, f.usage.Create(ctx, &dup), apperror.ErrConflict)
}

func TestCostRepositoryUpsertIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)

	first := &models.CostBreakdown{ID: uuid.New(), UserID: u.ID, Month: "Mar", Year: 2026,
		DataCost: decimal.NewFromInt(10), TotalCost: decimal.NewFromInt(10), UpdatedAt: time.Now().UTC(), CreatedAt: time.Now().UTC()}
	require.NoError(t, f.costs.Upsert(ctx, first))
	storedID := first.ID

	second := &models.CostBreakdown{ID: uuid.New(), UserID: u.ID, Month: "Mar", Year: 2026,
		DataCost: decimal.NewFromInt(12), TotalCost: decimal.NewFromInt(12), UpdatedAt: time.Now().UTC(), CreatedAt: time.Now().UTC()}
	require.NoError(t, f.costs.Upsert(ctx, second))
	require.Equal(t, storedID, second.ID)

	all, err := f.costs.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].TotalCost.Equal(decimal.NewFromInt(12)))
}

func TestBudgetRepositoryActiveWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)
	today := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	ended := today.AddDate(0, 0, -1)

	expired := &models.Budget{ID: uuid.New(), UserID: u.ID, EntityType: models.EntityCompany, EntityID: u.ID.String(),
		Amount: decimal.NewFromInt(100), Period: models.PeriodMonthly, AlertThreshold: 80,
		StartDate: today.AddDate(0, -3, 0), EndDate: &ended, CreatedAt: today, UpdatedAt: today}
	active := &models.Budget{ID: uuid.New(), UserID: u.ID, EntityType: models.EntityCompany, EntityID: u.ID.String(),
		Amount: decimal.NewFromInt(200), Period: models.PeriodMonthly, AlertThreshold: 80,
		StartDate: today, CreatedAt: today, UpdatedAt: today}
	require.NoError(t, f.budgets.Create(ctx, expired))
	require.NoError(t, f.budgets.Create(ctx, active))

	got, err := f.budgets.ListActiveByUser(ctx, u.ID, today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, active.ID, got[0].ID)

	clash, err := f.budgets.FindActiveForEntity(ctx, u.ID, models.EntityCompany, u.ID.String(), today, active.ID)
	require.NoError(t, err)
	require.Empty(t, clash)

	another := *active
	another.ID = uuid.New()
	require.ErrorIs(t, f.budgets.Create(ctx, &another), apperror.ErrConflict)
}

func TestNotificationRepository(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.notifications.Create(ctx, &models.Notification{
			ID: uuid.New(), UserID: u.ID, Title: "t", Message: "m", Type: models.NotificationAlert, CreatedAt: time.Now().UTC(),
		}))
	}
	unread, err := f.notifications.CountUnread(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 3, unread)

	list, err := f.notifications.ListByUser(ctx, u.ID, true, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NoError(t, f.notifications.MarkRead(ctx, list[0].ID))

	changed, err := f.notifications.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), changed)
}

func TestRecommendationRepositoryTitleFragment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	u := f.user(t)

	rec := &models.Recommendation{
		ID: uuid.New(), UserID: u.ID, Title: "+33612345678: upgrade to Business L", Description: "d",
		SavingsAmount: decimal.NewFromInt(5), Priority: models.PriorityHigh, Category: models.CategoryPlanUpgrade,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.recs.Create(ctx, rec))

	found, err := f.recs.HasOpenWithTitleFragment(ctx, u.ID, "+336123456")
	require.NoError(t, err)
	require.True(t, found)

	found, err = f.recs.HasOpenWithTitleFragment(ctx, u.ID, "100%")
	require.NoError(t, err)
	require.False(t, found)

	savings, err := f.recs.OpenSavings(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, savings[models.CategoryPlanUpgrade].Equal(decimal.NewFromInt(5)))

	require.NoError(t, f.recs.MarkApplied(ctx, rec.ID))
	found, err = f.recs.HasOpenWithTitleFragment(ctx, u.ID, "+336123456")
	require.NoError(t, err)
	require.False(t, found, "applied recommendations do not block new ones")
}

func TestServiceStatusUpsert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	name := "sms-gateway-" + uuid.NewString()[:6]

	first := &models.ServiceStatus{ID: uuid.New(), ServiceName: name, Status: models.StateOperational, UpdatedAt: time.Now().UTC()}
	require.NoError(t, f.statuses.Upsert(ctx, first))

	second := &models.ServiceStatus{ID: uuid.New(), ServiceName: name, Status: models.StateDegraded, Message: "latency", UpdatedAt: time.Now().UTC()}
	require.NoError(t, f.statuses.Upsert(ctx, second))
	require.Equal(t, first.ID, second.ID)
}
