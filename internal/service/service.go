// Package service orchestrates request-scoped work: load records, run the analytics
// and engine functions, persist the outcome.
package service

import (
	"context"
	"fmt"
	"time"

	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound       = fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	ErrUserExists         = fmt.Errorf("user already exists: %w", apperror.ErrConflict)
	ErrNotOwner           = fmt.Errorf("resource belongs to another user: %w", apperror.ErrAccessDenied)
	ErrBudgetOverlap      = fmt.Errorf("an active budget already covers this entity: %w", apperror.ErrConflict)
	ErrAlreadyApplied     = fmt.Errorf("recommendation already applied: %w", apperror.ErrConflict)
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type LineRepository interface {
	Create(ctx context.Context, line *models.TelecomLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TelecomLine, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter repository.LineFilter) ([]models.TelecomLine, error)
	CountByUser(ctx context.Context, userID uuid.UUID, filter repository.LineFilter) (int, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.LineStatus]int, error)
	Update(ctx context.Context, line *models.TelecomLine) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PlanRepository interface {
	Create(ctx context.Context, plan *models.ServicePlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServicePlan, error)
	List(ctx context.Context) ([]models.ServicePlan, error)
	Update(ctx context.Context, plan *models.ServicePlan) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UsageRepository interface {
	Create(ctx context.Context, rec *models.UsageRecord) error
	Correct(ctx context.Context, rec *models.UsageRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error)
	ListByLine(ctx context.Context, lineID uuid.UUID) ([]models.UsageRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UsageRecord, error)
	ListByUserForMonth(ctx context.Context, userID uuid.UUID, month string, year int) ([]models.UsageRecord, error)
}

type CostRepository interface {
	Upsert(ctx context.Context, cost *models.CostBreakdown) error
	Get(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CostBreakdown, error)
}

type BudgetRepository interface {
	Create(ctx context.Context, b *models.Budget) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Budget, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, today time.Time) ([]models.Budget, error)
	FindActiveForEntity(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID string, today time.Time, excludeID uuid.UUID) ([]models.Budget, error)
	Update(ctx context.Context, b *models.Budget) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset uint64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

type RecommendationRepository interface {
	Create(ctx context.Context, rec *models.Recommendation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, applied *bool) ([]models.Recommendation, error)
	HasOpenWithTitleFragment(ctx context.Context, userID uuid.UUID, fragment string) (bool, error)
	MarkApplied(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	OpenSavings(ctx context.Context, userID uuid.UUID) (map[models.RecommendationCategory]decimal.Decimal, error)
}

type ServiceStatusRepository interface {
	List(ctx context.Context) ([]models.ServiceStatus, error)
	Upsert(ctx context.Context, status *models.ServiceStatus) error
}

// ownedLine loads a line and checks that userID owns it.
func ownedLine(ctx context.Context, lines LineRepository, userID, lineID uuid.UUID) (*models.TelecomLine, error) {
	line, err := lines.GetByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.UserID != userID {
		return nil, ErrNotOwner
	}
	return line, nil
}

// groupByLine splits a user's history per line, keeping record order.
func groupByLine(records []models.UsageRecord) map[uuid.UUID][]models.UsageRecord {
	out := make(map[uuid.UUID][]models.UsageRecord)
	for _, r := range records {
		out[r.LineID] = append(out[r.LineID], r)
	}
	return out
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Invalid(field, "must be a valid UUID")
	}
	return id, nil
}

func pagination(page, limit int) (uint64, uint64) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return uint64(limit), uint64((page - 1) * limit)
}
