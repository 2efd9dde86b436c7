package service

import (
	"context"
	"fmt"
	"time"

	"telcodash/internal/engine"
	"telcodash/internal/models"
	"telcodash/internal/repository"
	"telcodash/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// dedupPrefixLen is how many leading title characters identify an open recommendation.
const dedupPrefixLen = 10

type RecommendationService struct {
	recs          RecommendationRepository
	lines         LineRepository
	plans         PlanRepository
	usage         UsageRepository
	notifications NotificationRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewRecommendationService(
	recs RecommendationRepository,
	lines LineRepository,
	plans PlanRepository,
	usage UsageRepository,
	notifications NotificationRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RecommendationService {
	return &RecommendationService{
		recs:          recs,
		lines:         lines,
		plans:         plans,
		usage:         usage,
		notifications: notifications,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

type GenerateResult struct {
	Created []models.Recommendation
	Skipped int
}

// Generate runs the plan engine over every active line with a plan and the
// data-sharing finder over all active lines, then stores the suggestions that
// do not repeat an open one.
func (s *RecommendationService) Generate(ctx context.Context, userID uuid.UUID) (*GenerateResult, error) {
	lines, err := s.lines.ListByUser(ctx, userID, repository.LineFilter{Status: models.LineActive})
	if err != nil {
		return nil, err
	}
	catalog, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.usage.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := s.candidates(userID, lines, catalog, groupByLine(records))

	result := &GenerateResult{Created: []models.Recommendation{}}
	for _, rec := range candidates {
		exists, err := s.recs.HasOpenWithTitleFragment(ctx, userID, titlePrefix(rec.Title, dedupPrefixLen))
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			s.metrics.RecommendationDeduplicated()
			continue
		}

		if err := s.recs.Create(ctx, &rec); err != nil {
			return nil, fmt.Errorf("create recommendation: %w", err)
		}
		result.Created = append(result.Created, rec)
		s.metrics.RecommendationCreated(string(rec.Category))
	}

	if len(result.Created) > 0 {
		if err := s.notifySummary(ctx, userID, result.Created); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Recommendations generated",
		zap.String("user_id", userID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *RecommendationService) List(ctx context.Context, userID uuid.UUID, applied *bool) ([]models.Recommendation, error) {
	return s.recs.ListByUser(ctx, userID, applied)
}

// Apply marks a recommendation applied. Plan recommendations also move the line
// to the proposed plan.
func (s *RecommendationService) Apply(ctx context.Context, userID, id uuid.UUID) (*models.Recommendation, error) {
	rec, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rec.IsApplied {
		return nil, ErrAlreadyApplied
	}

	if rec.LineID != nil && rec.PlanID != nil {
		line, err := ownedLine(ctx, s.lines, userID, *rec.LineID)
		if err != nil {
			return nil, err
		}
		planID := *rec.PlanID
		line.PlanID = &planID
		line.UpdatedAt = s.now().UTC()
		if err := s.lines.Update(ctx, line); err != nil {
			return nil, fmt.Errorf("switch line plan: %w", err)
		}
	}

	if err := s.recs.MarkApplied(ctx, id); err != nil {
		return nil, err
	}
	rec.IsApplied = true

	s.logger.Info("Recommendation applied",
		zap.String("recommendation_id", id.String()),
		zap.String("category", string(rec.Category)),
	)
	return rec, nil
}

func (s *RecommendationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.recs.Delete(ctx, id)
}

func (s *RecommendationService) candidates(
	userID uuid.UUID,
	lines []models.TelecomLine,
	catalog []models.ServicePlan,
	history map[uuid.UUID][]models.UsageRecord,
) []models.Recommendation {
	plansByID := make(map[uuid.UUID]models.ServicePlan, len(catalog))
	for _, p := range catalog {
		plansByID[p.ID] = p
	}

	now := s.now().UTC()
	var out []models.Recommendation
	for _, line := range lines {
		if line.PlanID == nil {
			continue
		}
		current, ok := plansByID[*line.PlanID]
		if !ok {
			continue
		}
		plan := engine.RecommendPlan(line, &current, catalog, history[line.ID])
		if plan == nil {
			continue
		}

		lineID, planID := line.ID, plan.ProposedPlan.ID
		out = append(out, models.Recommendation{
			ID:            uuid.New(),
			UserID:        userID,
			LineID:        &lineID,
			PlanID:        &planID,
			Title:         plan.Title(line.PhoneNumber),
			Description:   plan.Description(),
			SavingsAmount: plan.MonthlySaving,
			Priority:      plan.Priority,
			Category:      plan.Category,
			CreatedAt:     now,
		})
	}

	limited := make([]models.TelecomLine, 0, len(lines))
	for _, l := range lines {
		if l.MonthlyLimit > 0 {
			limited = append(limited, l)
		}
	}
	if opp := engine.FindDataSharing(limited); opp != nil {
		out = append(out, models.Recommendation{
			ID:            uuid.New(),
			UserID:        userID,
			Title:         opp.Title(),
			Description:   opp.Description(),
			SavingsAmount: opp.PotentialSaving,
			Priority:      opp.Priority,
			Category:      models.CategoryDataSharing,
			CreatedAt:     now,
		})
	}
	return out
}

func (s *RecommendationService) notifySummary(ctx context.Context, userID uuid.UUID, created []models.Recommendation) error {
	total := decimal.Zero
	for _, r := range created {
		total = total.Add(r.SavingsAmount)
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "New optimization recommendations",
		Message:   fmt.Sprintf("%d new recommendation(s) with potential savings of %s per month.", len(created), total.StringFixed(2)),
		Type:      models.NotificationInfo,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create recommendation summary: %w", err)
	}
	return nil
}

func (s *RecommendationService) owned(ctx context.Context, userID, id uuid.UUID) (*models.Recommendation, error) {
	rec, err := s.recs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrNotOwner
	}
	return rec, nil
}
