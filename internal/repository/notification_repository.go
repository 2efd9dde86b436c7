package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var notificationColumns = []string{"id", "user_id", "title", "message", "type", "is_read", "created_at"}

type NotificationRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewNotificationRepository(db postgres.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := psql.Insert("notifications").
		Columns(notificationColumns...).
		Values(n.ID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translate(err, "notification")
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	sql, args, err := psql.Select(notificationColumns...).From("notifications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, translate(err, "notification")
	}
	return n, nil
}

// ListByUser returns notifications newest first. limit 0 means no limit.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset uint64) ([]models.Notification, error) {
	where := squirrel.Eq{"user_id": userID}
	if unreadOnly {
		where["is_read"] = false
	}
	query := psql.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "notifications")
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Update("notifications").Set("is_read", true).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "notification")
	}
	return requireAffected(tag, "notification")
}

// MarkAllRead flags every unread notification of the user and reports how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	sql, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, translate(err, "notifications")
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Delete("notifications").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "notification")
	}
	return requireAffected(tag, "notification")
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, translate(err, "notifications")
	}
	return count, nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
