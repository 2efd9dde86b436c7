package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var lineColumns = []string{
	"id", "user_id", "phone_number", "assigned_to", "department", "plan_id",
	"monthly_limit", "current_usage", "status", "created_at", "updated_at",
}

// LineFilter narrows ListByUser. Zero values mean no filter; Limit 0 means no limit.
type LineFilter struct {
	Status     models.LineStatus
	Department string
	Limit      uint64
	Offset     uint64
}

func (f LineFilter) where(userID uuid.UUID) squirrel.And {
	where := squirrel.And{squirrel.Eq{"user_id": userID}}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"status": f.Status})
	}
	if f.Department != "" {
		where = append(where, squirrel.Eq{"department": f.Department})
	}
	return where
}

type LineRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewLineRepository(db postgres.DB, logger *zap.Logger) *LineRepository {
	return &LineRepository{
		db:     db,
		logger: logger,
	}
}

func (r *LineRepository) Create(ctx context.Context, line *models.TelecomLine) error {
	query := psql.Insert("telecom_lines").
		Columns(lineColumns...).
		Values(line.ID, line.UserID, line.PhoneNumber, line.AssignedTo, line.Department, line.PlanID,
			line.MonthlyLimit, line.CurrentUsage, line.Status, line.CreatedAt, line.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "line")
}

func (r *LineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TelecomLine, error) {
	sql, args, err := psql.Select(lineColumns...).From("telecom_lines").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	line, err := scanLine(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "line")
	}
	return line, nil
}

func (r *LineRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter LineFilter) ([]models.TelecomLine, error) {
	query := psql.Select(lineColumns...).
		From("telecom_lines").
		Where(filter.where(userID)).
		OrderBy("created_at ASC", "phone_number ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "lines")
	}
	defer rows.Close()

	var lines []models.TelecomLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, rows.Err()
}

func (r *LineRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter LineFilter) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").From("telecom_lines").Where(filter.where(userID)).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, translate(err, "lines")
	}
	return count, nil
}

// CountByStatus returns the number of the user's lines per status.
func (r *LineRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.LineStatus]int, error) {
	sql, args, err := psql.Select("status", "COUNT(*)").
		From("telecom_lines").
		Where(squirrel.Eq{"user_id": userID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "lines")
	}
	defer rows.Close()

	counts := make(map[models.LineStatus]int)
	for rows.Next() {
		var status models.LineStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *LineRepository) Update(ctx context.Context, line *models.TelecomLine) error {
	query := psql.Update("telecom_lines").
		Set("assigned_to", line.AssignedTo).
		Set("department", line.Department).
		Set("plan_id", line.PlanID).
		Set("monthly_limit", line.MonthlyLimit).
		Set("current_usage", line.CurrentUsage).
		Set("status", line.Status).
		Set("updated_at", line.UpdatedAt).
		Where(squirrel.Eq{"id": line.ID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "line")
	}
	return requireAffected(tag, "line")
}

// Delete removes the line; its usage history goes with it through the foreign key.
func (r *LineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("telecom_lines").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "line")
	}
	return requireAffected(tag, "line")
}

func scanLine(row rowScanner) (*models.TelecomLine, error) {
	var line models.TelecomLine
	err := row.Scan(
		&line.ID, &line.UserID, &line.PhoneNumber, &line.AssignedTo, &line.Department, &line.PlanID,
		&line.MonthlyLimit, &line.CurrentUsage, &line.Status, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &line, nil
}
