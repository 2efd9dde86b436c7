package repository

import (
	"context"

	"telcodash/internal/models"
	"telcodash/pkg/postgres"

	"go.uber.org/zap"
)

var serviceStatusColumns = []string{"id", "service_name", "status", "message", "updated_at"}

type ServiceStatusRepository struct {
	db     postgres.DB
	logger *zap.Logger
}

func NewServiceStatusRepository(db postgres.DB, logger *zap.Logger) *ServiceStatusRepository {
	return &ServiceStatusRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ServiceStatusRepository) List(ctx context.Context) ([]models.ServiceStatus, error) {
	sql, args, err := psql.Select(serviceStatusColumns...).From("service_status").OrderBy("service_name ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "service status")
	}
	defer rows.Close()

	var statuses []models.ServiceStatus
	for rows.Next() {
		var s models.ServiceStatus
		if err := rows.Scan(&s.ID, &s.ServiceName, &s.Status, &s.Message, &s.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Upsert sets the status of a service by name. The stored id is copied back into status.
func (r *ServiceStatusRepository) Upsert(ctx context.Context, status *models.ServiceStatus) error {
	sql, args, err := psql.Insert("service_status").
		Columns(serviceStatusColumns...).
		Values(status.ID, status.ServiceName, status.Status, status.Message, status.UpdatedAt).
		Suffix(`ON CONFLICT (service_name) DO UPDATE SET
	status = EXCLUDED.status,
	message = EXCLUDED.message,
	updated_at = EXCLUDED.updated_at
RETURNING id`).
		ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&status.ID); err != nil {
		return translate(err, "service status")
	}
	return nil
}
