package service

import (
	"context"
	"errors"
	"testing"

	"telcodash/internal/models"
	"telcodash/pkg/apperror"
	"telcodash/pkg/metrics"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecommendationService(w *world) *RecommendationService {
	svc := NewRecommendationService(w.recs, w.lines, w.plans, w.usage, w.notifications, metrics.New(w.registry), zap.NewNop())
	svc.now = clock
	return svc
}

func TestRecommendationServiceGenerateAndDedup(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newRecommendationService(w)
	userID := uuid.New()
	busy := w.addLine(t, userID, "+4915100000001", "", &w.medium, 11, 10)
	w.addLine(t, userID, "+4915100000002", "", nil, 1, 10)

	result, err := svc.Generate(ctx, userID)
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	require.Zero(t, result.Skipped)

	upgrade := result.Created[0]
	require.Equal(t, models.CategoryPlanUpgrade, upgrade.Category)
	require.Equal(t, "+4915100000001: upgrade to Business L", upgrade.Title)
	require.Equal(t, busy.ID, *upgrade.LineID)
	require.Equal(t, w.large.ID, *upgrade.PlanID)
	require.True(t, upgrade.SavingsAmount.Equal(dec("5")))
	require.Equal(t, models.PriorityHigh, upgrade.Priority)

	sharing := result.Created[1]
	require.Equal(t, models.CategoryDataSharing, sharing.Category)
	require.True(t, sharing.SavingsAmount.Equal(dec("10")), sharing.SavingsAmount.String())
	require.Equal(t, models.PriorityMedium, sharing.Priority)

	infos := w.notifications.ofType(models.NotificationInfo)
	require.Len(t, infos, 1)
	require.Contains(t, infos[0].Message, "2 new recommendation(s)")
	require.Contains(t, infos[0].Message, "15.00")

	again, err := svc.Generate(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, again.Created)
	require.Equal(t, 2, again.Skipped)
	require.Len(t, w.recs.recs, 2)
	require.Len(t, w.notifications.ofType(models.NotificationInfo), 1, "nothing new, no summary")

	require.Equal(t, 2.0, counterTotal(t, w.registry, "telcodash_recommendations_created_total"))
	require.Equal(t, 2.0, counterTotal(t, w.registry, "telcodash_recommendations_deduplicated_total"))
}

func TestRecommendationServiceSkipsInactiveAndPlanlessLines(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newRecommendationService(w)
	userID := uuid.New()
	suspended := w.addLine(t, userID, "+4915100000001", "", &w.medium, 11, 10)
	suspended.Status = models.LineSuspended
	require.NoError(t, w.lines.Update(ctx, &suspended))
	w.addLine(t, userID, "+4915100000002", "", nil, 11, 10)

	result, err := svc.Generate(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, result.Created)
	require.Empty(t, w.notifications.items)
}

func TestRecommendationServiceApply(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newRecommendationService(w)
	userID := uuid.New()
	line := w.addLine(t, userID, "+4915100000001", "", &w.medium, 11, 10)

	result, err := svc.Generate(ctx, userID)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	recID := result.Created[0].ID

	_, err = svc.Apply(ctx, uuid.New(), recID)
	require.ErrorIs(t, err, apperror.ErrAccessDenied)

	applied, err := svc.Apply(ctx, userID, recID)
	require.NoError(t, err)
	require.True(t, applied.IsApplied)

	stored, err := w.lines.GetByID(ctx, line.ID)
	require.NoError(t, err)
	require.Equal(t, w.large.ID, *stored.PlanID)

	_, err = svc.Apply(ctx, userID, recID)
	require.ErrorIs(t, err, ErrAlreadyApplied)

	// applied recommendations drop out of the open list
	openOnly := false
	open, err := svc.List(ctx, userID, &openOnly)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestRecommendationServiceApplyKeepsRecordOpenWhenPlanSwitchFails(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newRecommendationService(w)
	userID := uuid.New()
	w.addLine(t, userID, "+4915100000001", "", &w.medium, 11, 10)

	result, err := svc.Generate(ctx, userID)
	require.NoError(t, err)

	w.lines.UpdateFunc = func(*models.TelecomLine) error { return errors.New("connection reset") }
	_, err = svc.Apply(ctx, userID, result.Created[0].ID)
	require.Error(t, err)

	rec, err := w.recs.GetByID(ctx, result.Created[0].ID)
	require.NoError(t, err)
	require.False(t, rec.IsApplied)
}

func TestRecommendationServiceDelete(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	svc := newRecommendationService(w)
	userID := uuid.New()
	rec := models.Recommendation{ID: uuid.New(), UserID: userID, Title: "Data sharing across lines", Category: models.CategoryDataSharing}
	w.recs.recs = append(w.recs.recs, rec)

	require.ErrorIs(t, svc.Delete(ctx, uuid.New(), rec.ID), apperror.ErrAccessDenied)
	require.NoError(t, svc.Delete(ctx, userID, rec.ID))
	require.ErrorIs(t, svc.Delete(ctx, userID, rec.ID), apperror.ErrNotFound)
}
