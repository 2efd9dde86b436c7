package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var planColumns = []string{"id", "name", "data_limit", "call_limit", "sms_limit", "price", "features", "created_at", "updated_at"}

type PlanRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewPlanRepository(db postgres.DB, logger *zap.Logger) *PlanRepository {
	return &PlanRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PlanRepository) Create(ctx context.Context, plan *models.ServicePlan) error {
	features := plan.Features
	if features == nil {
		features = []string{}
	}

	query := psql.Insert("service_plans").
		Columns(planColumns...).
		Values(plan.ID, plan.Name, plan.DataLimit, plan.CallLimit, plan.SMSLimit, plan.Price, features, plan.CreatedAt, plan.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "plan")
}

func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServicePlan, error) {
	sql, args, err := psql.Select(planColumns...).From("service_plans").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	plan, err := scanPlan(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "plan")
	}
	return plan, nil
}

// List returns the whole catalog, cheapest first.
func (r *PlanRepository) List(ctx context.Context) ([]models.ServicePlan, error) {
	sql, args, err := psql.Select(planColumns...).From("service_plans").OrderBy("price ASC", "data_limit ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "plans")
	}
	defer rows.Close()

	var plans []models.ServicePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (r *PlanRepository) Update(ctx context.Context, plan *models.ServicePlan) error {
	features := plan.Features
	if features == nil {
		features = []string{}
	}

	query := psql.Update("service_plans").
		Set("name", plan.Name).
		Set("data_limit", plan.DataLimit).
		Set("call_limit", plan.CallLimit).
		Set("sms_limit", plan.SMSLimit).
		Set("price", plan.Price).
		Set("features", features).
		Set("updated_at", plan.UpdatedAt).
		Where(squirrel.Eq{"id": plan.ID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "plan")
	}
	return requireAffected(tag, "plan")
}

// Delete removes the plan; lines on it keep running without a plan.
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("service_plans").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "plan")
	}
	return requireAffected(tag, "plan")
}

func scanPlan(row rowScanner) (*models.ServicePlan, error) {
	var plan models.ServicePlan
	err := row.Scan(
		&plan.ID, &plan.Name, &plan.DataLimit, &plan.CallLimit, &plan.SMSLimit, &plan.Price, &plan.Features, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
