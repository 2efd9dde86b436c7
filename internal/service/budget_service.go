package service

import (
	"context"
	"fmt"
	"time"

	"telcodash/internal/dto"
	"telcodash/internal/engine"
	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/pkg/apperror"
	"telcodash/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BudgetService struct {
	budgets       BudgetRepository
	lines         LineRepository
	usage         UsageRepository
	notifications NotificationRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewBudgetService(
	budgets BudgetRepository,
	lines LineRepository,
	usage UsageRepository,
	notifications NotificationRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		budgets:       budgets,
		lines:         lines,
		usage:         usage,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// ThresholdCheck is the outcome of one CheckThresholds run.
type ThresholdCheck struct {
	Checked       int
	Exceeded      []engine.BudgetEvaluation
	Notifications int
}

// Create stores a budget. Only one active budget may cover an entity.
func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error) {
	now := s.now().UTC()
	budget := &models.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
	}
	if err := s.apply(ctx, budget, req); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, budget); err != nil {
		return nil, err
	}

	if err := s.budgets.Create(ctx, budget); err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	s.logger.Info("Budget created",
		zap.String("budget_id", budget.ID.String()),
		zap.String("entity_type", string(budget.EntityType)),
		zap.String("entity_id", budget.EntityID),
	)
	return budget, nil
}

func (s *BudgetService) List(ctx context.Context, userID uuid.UUID) ([]models.Budget, error) {
	return s.budgets.ListByUser(ctx, userID)
}

func (s *BudgetService) Get(ctx context.Context, userID, budgetID uuid.UUID) (*models.Budget, error) {
	budget, err := s.budgets.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.UserID != userID {
		return nil, ErrNotOwner
	}
	return budget, nil
}

func (s *BudgetService) Update(ctx context.Context, userID, budgetID uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error) {
	budget, err := s.Get(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, budget, req); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, budget); err != nil {
		return nil, err
	}

	if err := s.budgets.Update(ctx, budget); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return budget, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, budgetID); err != nil {
		return err
	}
	return s.budgets.Delete(ctx, budgetID)
}

// Status evaluates every active budget against spending in its current period window.
func (s *BudgetService) Status(ctx context.Context, userID uuid.UUID) ([]engine.BudgetEvaluation, error) {
	today := s.now().UTC()

	budgets, err := s.budgets.ListActiveByUser(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return []engine.BudgetEvaluation{}, nil
	}

	lines, err := s.lines.ListByUser(ctx, userID, repository.LineFilter{})
	if err != nil {
		return nil, err
	}
	records, err := s.usage.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byLine := groupByLine(records)

	evals := make([]engine.BudgetEvaluation, 0, len(budgets))
	for _, b := range budgets {
		window := engine.PeriodWindow(b.Period, today)

		var covered []models.UsageRecord
		for _, l := range coveredLines(b, lines) {
			covered = append(covered, byLine[l.ID]...)
		}

		eval := engine.EvaluateBudget(b, engine.Spending(covered, window))
		eval.Window = window
		evals = append(evals, eval)
	}
	return evals, nil
}

// CheckThresholds raises one alert notification per exceeded budget. Repeated
// runs alert again while the budget stays exceeded.
func (s *BudgetService) CheckThresholds(ctx context.Context, userID uuid.UUID) (*ThresholdCheck, error) {
	evals, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ThresholdCheck{Checked: len(evals), Exceeded: []engine.BudgetEvaluation{}}
	for _, eval := range evals {
		if !eval.Exceeded {
			continue
		}
		result.Exceeded = append(result.Exceeded, eval)

		n := &models.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     "Budget threshold exceeded",
			Message:   budgetAlertMessage(eval),
			Type:      models.NotificationAlert,
			CreatedAt: s.now().UTC(),
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("create budget alert: %w", err)
		}
		result.Notifications++
		s.metrics.BudgetAlert(string(eval.Budget.EntityType))
	}

	if result.Notifications > 0 {
		s.logger.Info("Budget alerts raised",
			zap.String("user_id", userID.String()),
			zap.Int("alerts", result.Notifications),
		)
	}
	return result, nil
}

func (s *BudgetService) apply(ctx context.Context, b *models.Budget, req *dto.BudgetRequest) error {
	entityType := models.EntityType(req.EntityType)
	if !entityType.Valid() {
		return apperror.Invalid("entity_type", "must be one of line, department, company")
	}
	period := models.BudgetPeriod(req.Period)
	if !period.Valid() {
		return apperror.Invalid("period", "must be one of monthly, quarterly, yearly")
	}
	if !req.Amount.IsPositive() {
		return apperror.Invalid("amount", "must be positive")
	}
	if req.AlertThreshold <= 0 || req.AlertThreshold > 100 {
		return apperror.Invalid("alert_threshold", "must be between 1 and 100")
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return apperror.Invalid("start_date", "must be YYYY-MM-DD")
	}
	var end *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return apperror.Invalid("end_date", "must be YYYY-MM-DD")
		}
		if parsed.Before(start) {
			return apperror.Invalid("end_date", "must not be before start_date")
		}
		end = &parsed
	}

	entityID := sanitizeText(req.EntityID)
	switch entityType {
	case models.EntityCompany:
		entityID = b.UserID.String()
	case models.EntityLine:
		lineID, err := parseID("entity_id", entityID)
		if err != nil {
			return err
		}
		if _, err := ownedLine(ctx, s.lines, b.UserID, lineID); err != nil {
			return err
		}
		entityID = lineID.String()
	case models.EntityDepartment:
		if entityID == "" {
			return apperror.Invalid("entity_id", "department name is required")
		}
	}

	b.EntityType = entityType
	b.EntityID = entityID
	b.Amount = req.Amount.Round(2)
	b.Period = period
	b.AlertThreshold = req.AlertThreshold
	b.StartDate = start
	b.EndDate = end
	b.UpdatedAt = s.now().UTC()
	return nil
}

func (s *BudgetService) checkOverlap(ctx context.Context, b *models.Budget) error {
	today := s.now().UTC()
	if !b.IsActive(today) {
		return nil
	}
	active, err := s.budgets.FindActiveForEntity(ctx, b.UserID, b.EntityType, b.EntityID, today, b.ID)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return ErrBudgetOverlap
	}
	return nil
}

// coveredLines selects the lines whose spending counts against b.
func coveredLines(b models.Budget, lines []models.TelecomLine) []models.TelecomLine {
	if b.EntityType == models.EntityCompany {
		return lines
	}
	var out []models.TelecomLine
	for _, l := range lines {
		switch b.EntityType {
		case models.EntityLine:
			if l.ID.String() == b.EntityID {
				out = append(out, l)
			}
		case models.EntityDepartment:
			if l.Department == b.EntityID {
				out = append(out, l)
			}
		}
	}
	return out
}

func budgetAlertMessage(e engine.BudgetEvaluation) string {
	return fmt.Sprintf("%s budget for %s %s: spent %s of %s (%.1f%%) between %s and %s, threshold %.0f%%.",
		e.Budget.Period, e.Budget.EntityType, e.Budget.EntityID,
		e.Spending.StringFixed(2), e.Budget.Amount.StringFixed(2), e.SpendingPercentage,
		e.Window.From, e.Window.To, e.Budget.AlertThreshold,
	)
}
