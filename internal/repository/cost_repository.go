package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var costColumns = []string{
	"id", "user_id", "month", "year", "data_cost", "calls_cost", "sms_cost",
	"roaming_cost", "other_cost", "total_cost", "created_at", "updated_at",
}

const costUpsertSuffix = `ON CONFLICT (user_id, month, year) DO UPDATE SET
	data_cost = EXCLUDED.data_cost,
	calls_cost = EXCLUDED.calls_cost,
	sms_cost = EXCLUDED.sms_cost,
	roaming_cost = EXCLUDED.roaming_cost,
	other_cost = EXCLUDED.other_cost,
	total_cost = EXCLUDED.total_cost,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

type CostRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewCostRepository(db postgres.DB, logger *zap.Logger) *CostRepository {
	return &CostRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the breakdown for (user, month, year), replacing any previous one.
// The stored id and created_at are copied back into cost.
func (r *CostRepository) Upsert(ctx context.Context, cost *models.CostBreakdown) error {
	query := psql.Insert("cost_breakdown").
		Columns(costColumns...).
		Values(cost.ID, cost.UserID, cost.Month, cost.Year, cost.DataCost, cost.CallsCost, cost.SMSCost,
			cost.RoamingCost, cost.OtherCost, cost.TotalCost, cost.CreatedAt, cost.UpdatedAt).
		Suffix(costUpsertSuffix)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&cost.ID, &cost.CreatedAt); err != nil {
		return translate(err, "cost breakdown")
	}
	return nil
}

func (r *CostRepository) Get(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error) {
	sql, args, err := psql.Select(costColumns...).
		From("cost_breakdown").
		Where(squirrel.Eq{"user_id": userID, "month": month, "year": year}).
		ToSql()
	if err != nil {
		return nil, err
	}

	cost, err := scanCost(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "cost breakdown")
	}
	return cost, nil
}

// ListByUser returns every stored breakdown, oldest first.
func (r *CostRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CostBreakdown, error) {
	sql, args, err := psql.Select(costColumns...).
		From("cost_breakdown").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("year ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "cost breakdown")
	}
	defer rows.Close()

	var costs []models.CostBreakdown
	for rows.Next() {
		cost, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, *cost)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCosts(costs)
	return costs, nil
}

func scanCost(row rowScanner) (*models.CostBreakdown, error) {
	var c models.CostBreakdown
	err := row.Scan(
		&c.ID, &c.UserID, &c.Month, &c.Year, &c.DataCost, &c.CallsCost, &c.SMSCost,
		&c.RoamingCost, &c.OtherCost, &c.TotalCost, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
