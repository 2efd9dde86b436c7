package repository

import (
	"context"
	"strings"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var recommendationColumns = []string{
	"id", "user_id", "line_id", "plan_id", "title", "description",
	"savings_amount", "priority", "category", "is_applied", "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type RecommendationRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewRecommendationRepository(db postgres.DB, logger *zap.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *models.Recommendation) error {
	query := psql.Insert("ai_recommendations").
		Columns(recommendationColumns...).
		Values(rec.ID, rec.UserID, rec.LineID, rec.PlanID, rec.Title, rec.Description,
			rec.SavingsAmount, rec.Priority, rec.Category, rec.IsApplied, rec.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "recommendation")
}

func (r *RecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	sql, args, err := psql.Select(recommendationColumns...).From("ai_recommendations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecommendation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "recommendation")
	}
	return rec, nil
}

// ListByUser returns recommendations by savings, largest first. A nil applied lists all.
func (r *RecommendationRepository) ListByUser(ctx context.Context, userID uuid.UUID, applied *bool) ([]models.Recommendation, error) {
	where := squirrel.Eq{"user_id": userID}
	if applied != nil {
		where["is_applied"] = *applied
	}

	sql, args, err := psql.Select(recommendationColumns...).
		From("ai_recommendations").
		Where(where).
		OrderBy("savings_amount DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "recommendations")
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// HasOpenWithTitleFragment reports whether an unapplied recommendation of the user
// has a title containing fragment, case-insensitively.
func (r *RecommendationRepository) HasOpenWithTitleFragment(ctx context.Context, userID uuid.UUID, fragment string) (bool, error) {
	pattern := "%" + likeEscaper.Replace(fragment) + "%"
	sql, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("ai_recommendations").
		Where(squirrel.Eq{"user_id": userID, "is_applied": false}).
		Where(squirrel.ILike{"title": pattern}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, translate(err, "recommendations")
	}
	return exists, nil
}

func (r *RecommendationRepository) MarkApplied(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Update("ai_recommendations").Set("is_applied", true).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "recommendation")
	}
	return requireAffected(tag, "recommendation")
}

func (r *RecommendationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("ai_recommendations").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "recommendation")
	}
	return requireAffected(tag, "recommendation")
}

// OpenSavings sums savings of unapplied recommendations per category.
func (r *RecommendationRepository) OpenSavings(ctx context.Context, userID uuid.UUID) (map[models.RecommendationCategory]decimal.Decimal, error) {
	sql, args, err := psql.Select("category", "COALESCE(SUM(savings_amount), 0)").
		From("ai_recommendations").
		Where(squirrel.Eq{"user_id": userID, "is_applied": false}).
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "recommendations")
	}
	defer rows.Close()

	savings := make(map[models.RecommendationCategory]decimal.Decimal)
	for rows.Next() {
		var category models.RecommendationCategory
		var total decimal.Decimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		savings[category] = total
	}
	return savings, rows.Err()
}

func scanRecommendation(row rowScanner) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.LineID, &rec.PlanID, &rec.Title, &rec.Description,
		&rec.SavingsAmount, &rec.Priority, &rec.Category, &rec.IsApplied, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
