package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LineService struct {
	lines  LineRepository
	plans  PlanRepository
	usage  UsageRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewLineService(lines LineRepository, plans PlanRepository, usage UsageRepository, logger *zap.Logger) *LineService {
	return &LineService{
		lines:  lines,
		plans:  plans,
		usage:  usage,
		logger: logger,
		now:    time.Now,
	}
}

// Create provisions a new line for userID. A taken phone number is a Conflict.
func (s *LineService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateLineRequest) (*models.TelecomLine, error) {
	status := models.LineStatus(req.Status)
	if status == "" {
		status = models.LineActive
	}

	planID, err := s.resolvePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	line := &models.TelecomLine{
		ID:           uuid.New(),
		UserID:       userID,
		PhoneNumber:  req.PhoneNumber,
		AssignedTo:   sanitizeText(req.AssignedTo),
		Department:   sanitizeText(req.Department),
		PlanID:       planID,
		MonthlyLimit: req.MonthlyLimit,
		CurrentUsage: req.CurrentUsage,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.lines.Create(ctx, line); err != nil {
		return nil, fmt.Errorf("create line: %w", err)
	}

	s.logger.Info("Line provisioned",
		zap.String("user_id", userID.String()),
		zap.String("line_id", line.ID.String()),
	)
	return line, nil
}

func (s *LineService) List(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.TelecomLine, int, error) {
	filter := repository.LineFilter{Status: models.LineStatus(status)}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Invalid("status", "must be one of active, suspended, terminated")
	}

	total, err := s.lines.CountByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	filter.Limit, filter.Offset = pagination(page, limit)
	lines, err := s.lines.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

func (s *LineService) Get(ctx context.Context, userID, lineID uuid.UUID) (*models.TelecomLine, error) {
	return ownedLine(ctx, s.lines, userID, lineID)
}

func (s *LineService) Update(ctx context.Context, userID, lineID uuid.UUID, req *dto.UpdateLineRequest) (*models.TelecomLine, error) {
	line, err := ownedLine(ctx, s.lines, userID, lineID)
	if err != nil {
		return nil, err
	}

	if req.AssignedTo != nil {
		line.AssignedTo = sanitizeText(*req.AssignedTo)
	}
	if req.Department != nil {
		line.Department = sanitizeText(*req.Department)
	}
	if req.PlanID != nil {
		planID, err := s.resolvePlan(ctx, *req.PlanID)
		if err != nil {
			return nil, err
		}
		line.PlanID = planID
	}
	if req.MonthlyLimit != nil {
		line.MonthlyLimit = *req.MonthlyLimit
	}
	if req.Status != nil {
		line.Status = models.LineStatus(*req.Status)
	}
	line.UpdatedAt = s.now().UTC()

	if err := s.lines.Update(ctx, line); err != nil {
		return nil, fmt.Errorf("update line: %w", err)
	}
	return line, nil
}

// Delete removes the line; its usage history goes with it.
func (s *LineService) Delete(ctx context.Context, userID, lineID uuid.UUID) error {
	if _, err := ownedLine(ctx, s.lines, userID, lineID); err != nil {
		return err
	}
	return s.lines.Delete(ctx, lineID)
}

// Usage returns the full history of a line, oldest first.
func (s *LineService) Usage(ctx context.Context, userID, lineID uuid.UUID) ([]models.UsageRecord, error) {
	if _, err := ownedLine(ctx, s.lines, userID, lineID); err != nil {
		return nil, err
	}
	return s.usage.ListByLine(ctx, lineID)
}

// resolvePlan parses an optional plan id and checks the plan exists. Empty detaches.
func (s *LineService) resolvePlan(ctx context.Context, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseID("plan_id", value)
	if err != nil {
		return nil, err
	}
	if _, err := s.plans.GetByID(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Invalid("plan_id", "unknown plan")
		}
		return nil, err
	}
	return &id, nil
}
