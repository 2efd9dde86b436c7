package repository

import (
	"context"
	"time"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var budgetColumns = []string{
	"id", "user_id", "entity_type", "entity_id", "amount", "period",
	"alert_threshold", "start_date", "end_date", "created_at", "updated_at",
}

type BudgetRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewBudgetRepository(db postgres.DB, logger *zap.Logger) *BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	query := psql.Insert("budgets").
		Columns(budgetColumns...).
		Values(b.ID, b.UserID, b.EntityType, b.EntityID, b.Amount, b.Period,
			b.AlertThreshold, b.StartDate, b.EndDate, b.CreatedAt, b.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "budget")
}

func (r *BudgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	sql, args, err := psql.Select(budgetColumns...).From("budgets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	b, err := scanBudget(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "budget")
	}
	return b, nil
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Budget, error) {
	query := psql.Select(budgetColumns...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC")
	return r.list(ctx, query)
}

// ListActiveByUser returns budgets with no end date or ending on or after today.
func (r *BudgetRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID, today time.Time) ([]models.Budget, error) {
	query := psql.Select(budgetColumns...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID}).
		Where(activeOn(today)).
		OrderBy("created_at ASC")
	return r.list(ctx, query)
}

// FindActiveForEntity returns the active budgets of one entity, skipping excludeID.
func (r *BudgetRepository) FindActiveForEntity(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID string, today time.Time, excludeID uuid.UUID) ([]models.Budget, error) {
	query := psql.Select(budgetColumns...).
		From("budgets").
		Where(squirrel.Eq{"user_id": userID, "entity_type": entityType, "entity_id": entityID}).
		Where(squirrel.NotEq{"id": excludeID}).
		Where(activeOn(today))
	return r.list(ctx, query)
}

func (r *BudgetRepository) Update(ctx context.Context, b *models.Budget) error {
	query := psql.Update("budgets").
		Set("entity_type", b.EntityType).
		Set("entity_id", b.EntityID).
		Set("amount", b.Amount).
		Set("period", b.Period).
		Set("alert_threshold", b.AlertThreshold).
		Set("start_date", b.StartDate).
		Set("end_date", b.EndDate).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "budget")
	}
	return requireAffected(tag, "budget")
}

func (r *BudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("budgets").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "budget")
	}
	return requireAffected(tag, "budget")
}

func (r *BudgetRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.Budget, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "budgets")
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func activeOn(today time.Time) squirrel.Or {
	day := today.Format(time.DateOnly)
	return squirrel.Or{
		squirrel.Eq{"end_date": nil},
		squirrel.Expr("end_date >= ?::date", day),
	}
}

func scanBudget(row rowScanner) (*models.Budget, error) {
	var b models.Budget
	err := row.Scan(
		&b.ID, &b.UserID, &b.EntityType, &b.EntityID, &b.Amount, &b.Period,
		&b.AlertThreshold, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
