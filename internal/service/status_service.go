package service

import (
	"context"
	"fmt"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusService struct {
	statuses ServiceStatusRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewStatusService(statuses ServiceStatusRepository, logger *zap.Logger) *StatusService {
	return &StatusService{
		statuses: statuses,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *StatusService) List(ctx context.Context) ([]models.ServiceStatus, error) {
	return s.statuses.List(ctx)
}

// Upsert records the current state of a named network service.
func (s *StatusService) Upsert(ctx context.Context, name string, req *dto.ServiceStatusRequest) (*models.ServiceStatus, error) {
	name = sanitizeText(name)
	if name == "" {
		return nil, apperror.Invalid("service_name", "is required")
	}
	state := models.ServiceState(req.Status)
	if !state.Valid() {
		return nil, apperror.Invalid("status", "must be one of operational, degraded, outage, maintenance")
	}

	status := &models.ServiceStatus{
		ID:          uuid.New(),
		ServiceName: name,
		Status:      state,
		Message:     sanitizeText(req.Message),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.statuses.Upsert(ctx, status); err != nil {
		return nil, fmt.Errorf("upsert service status: %w", err)
	}
	if state != models.StateOperational {
		s.logger.Warn("Service not operational",
			zap.String("service", name),
			zap.String("status", string(state)),
		)
	}
	return status, nil
}
