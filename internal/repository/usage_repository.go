package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var usageColumns = []string{
	"id", "line_id", "month", "year", "data_used", "calls_used", "sms_used",
	"data_cost", "calls_cost", "sms_cost", "roaming_cost", "other_cost", "created_at",
}

func prefixed(prefix string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = prefix + "." + c
	}
	return out
}

type UsageRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewUsageRepository(db postgres.DB, logger *zap.Logger) *UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a record; a second record for the same line and month is a Conflict.
func (r *UsageRepository) Create(ctx context.Context, rec *models.UsageRecord) error {
	query := psql.Insert("usage_history").
		Columns(usageColumns...).
		Values(rec.ID, rec.LineID, rec.Month, rec.Year, rec.DataUsed, rec.CallsUsed, rec.SMSUsed,
			rec.DataCost, rec.CallsCost, rec.SMSCost, rec.RoamingCost, rec.OtherCost, rec.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "usage record")
}

// Correct overwrites the measured values of an existing record.
func (r *UsageRepository) Correct(ctx context.Context, rec *models.UsageRecord) error {
	query := psql.Update("usage_history").
		Set("data_used", rec.DataUsed).
		Set("calls_used", rec.CallsUsed).
		Set("sms_used", rec.SMSUsed).
		Set("data_cost", rec.DataCost).
		Set("calls_cost", rec.CallsCost).
		Set("sms_cost", rec.SMSCost).
		Set("roaming_cost", rec.RoamingCost).
		Set("other_cost", rec.OtherCost).
		Where(squirrel.Eq{"id": rec.ID})

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "usage record")
	}
	return requireAffected(tag, "usage record")
}

func (r *UsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UsageRecord, error) {
	sql, args, err := psql.Select(usageColumns...).From("usage_history").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanUsage(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "usage record")
	}
	return rec, nil
}

// ListByLine returns the line's history oldest first.
func (r *UsageRepository) ListByLine(ctx context.Context, lineID uuid.UUID) ([]models.UsageRecord, error) {
	query := psql.Select(usageColumns...).
		From("usage_history").
		Where(squirrel.Eq{"line_id": lineID}).
		OrderBy("year ASC")
	return r.list(ctx, query)
}

// ListByLines returns history of lineIDs within [fromYear, toYear], oldest first.
func (r *UsageRepository) ListByLines(ctx context.Context, lineIDs []uuid.UUID, fromYear, toYear int) ([]models.UsageRecord, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}
	query := psql.Select(usageColumns...).
		From("usage_history").
		Where(squirrel.Eq{"line_id": lineIDs}).
		Where(squirrel.GtOrEq{"year": fromYear}).
		Where(squirrel.LtOrEq{"year": toYear}).
		OrderBy("year ASC")
	return r.list(ctx, query)
}

// ListByUser returns the history of every line the user owns, oldest first.
func (r *UsageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.UsageRecord, error) {
	query := psql.Select(prefixed("u", usageColumns)...).
		From("usage_history u").
		Join("telecom_lines l ON l.id = u.line_id").
		Where(squirrel.Eq{"l.user_id": userID}).
		OrderBy("u.year ASC")
	return r.list(ctx, query)
}

// ListByUserForMonth returns one month of the user's history across all lines.
func (r *UsageRepository) ListByUserForMonth(ctx context.Context, userID uuid.UUID, month string, year int) ([]models.UsageRecord, error) {
	query := psql.Select(prefixed("u", usageColumns)...).
		From("usage_history u").
		Join("telecom_lines l ON l.id = u.line_id").
		Where(squirrel.Eq{"l.user_id": userID, "u.month": month, "u.year": year})
	return r.list(ctx, query)
}

func (r *UsageRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.UsageRecord, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "usage history")
	}
	defer rows.Close()

	var records []models.UsageRecord
	for rows.Next() {
		rec, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortUsage(records)
	return records, nil
}

func scanUsage(row rowScanner) (*models.UsageRecord, error) {
	var rec models.UsageRecord
	err := row.Scan(
		&rec.ID, &rec.LineID, &rec.Month, &rec.Year, &rec.DataUsed, &rec.CallsUsed, &rec.SMSUsed,
		&rec.DataCost, &rec.CallsCost, &rec.SMSCost, &rec.RoamingCost, &rec.OtherCost, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
