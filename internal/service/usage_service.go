package service

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"telcodash/internal/analytics"
	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"
	"telcodash/pkg/config"
	"telcodash/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type UsageService struct {
	lines   LineRepository
	usage   UsageRepository
	metrics *metrics.Metrics
	cfg     config.EngineConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewUsageService(lines LineRepository, usage UsageRepository, cfg config.EngineConfig, m *metrics.Metrics, logger *zap.Logger) *UsageService {
	return &UsageService{
		lines:   lines,
		usage:   usage,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest stores one month of usage for a line. A second record for the same
// month is a Conflict; use Correct to change it.
func (s *UsageService) Ingest(ctx context.Context, userID uuid.UUID, req *dto.IngestUsageRequest) (*models.UsageRecord, error) {
	lineID, err := parseID("line_id", req.LineID)
	if err != nil {
		return nil, err
	}
	line, err := ownedLine(ctx, s.lines, userID, lineID)
	if err != nil {
		return nil, err
	}

	month, err := models.ParseMonth(req.Month)
	if err != nil {
		return nil, apperror.Invalid("month", err.Error())
	}
	if err := validateCosts(req.UsageCosts); err != nil {
		return nil, err
	}

	rec := &models.UsageRecord{
		ID:        uuid.New(),
		LineID:    lineID,
		Month:     month,
		Year:      req.Year,
		DataUsed:  req.DataUsed,
		CallsUsed: req.CallsUsed,
		SMSUsed:   req.SMSUsed,
		CreatedAt: s.now().UTC(),
	}
	applyCosts(rec, req.UsageCosts)

	if err := s.usage.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("ingest usage: %w", err)
	}
	if err := s.syncCurrentUsage(ctx, line); err != nil {
		return nil, err
	}
	return rec, nil
}

// Correct overwrites the measurements of an existing record.
func (s *UsageService) Correct(ctx context.Context, userID, recordID uuid.UUID, req *dto.CorrectUsageRequest) (*models.UsageRecord, error) {
	rec, err := s.usage.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	line, err := ownedLine(ctx, s.lines, userID, rec.LineID)
	if err != nil {
		return nil, err
	}
	if err := validateCosts(req.UsageCosts); err != nil {
		return nil, err
	}

	rec.DataUsed = req.DataUsed
	rec.CallsUsed = req.CallsUsed
	rec.SMSUsed = req.SMSUsed
	applyCosts(rec, req.UsageCosts)

	if err := s.usage.Correct(ctx, rec); err != nil {
		return nil, fmt.Errorf("correct usage: %w", err)
	}
	s.logger.Info("Usage record corrected",
		zap.String("record_id", rec.ID.String()),
		zap.String("period", rec.Period().String()),
	)
	if err := s.syncCurrentUsage(ctx, line); err != nil {
		return nil, err
	}
	return rec, nil
}

// GenerateSample fills the last months of a line's history with synthetic usage.
// Months that already have a record are left alone. The values are derived from
// the line id, so repeated calls produce the same figures.
func (s *UsageService) GenerateSample(ctx context.Context, userID, lineID uuid.UUID, months int) ([]models.UsageRecord, error) {
	if months < 1 || months > 36 {
		return nil, apperror.Invalid("months", "must be between 1 and 36")
	}
	line, err := ownedLine(ctx, s.lines, userID, lineID)
	if err != nil {
		return nil, err
	}

	existing, err := s.usage.ListByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	taken := make(map[models.YearMonth]struct{}, len(existing))
	for _, r := range existing {
		taken[r.Period()] = struct{}{}
	}

	rng := rand.New(rand.NewPCG(binary.BigEndian.Uint64(lineID[:8]), binary.BigEndian.Uint64(lineID[8:])))
	base := line.MonthlyLimit * 0.6
	if base <= 0 {
		base = 5
	}

	now := s.now().UTC()
	current := models.YearMonthOf(now)
	created := make([]models.UsageRecord, 0, months)
	for i := months - 1; i >= 0; i-- {
		period := current.AddMonths(-i)
		rec := sampleRecord(rng, lineID, period, base, now)
		if _, ok := taken[period]; ok {
			continue
		}
		if err := s.usage.Create(ctx, &rec); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("generate sample %s: %w", period, err)
		}
		created = append(created, rec)
	}

	if len(created) > 0 {
		if err := s.syncCurrentUsage(ctx, line); err != nil {
			return nil, err
		}
	}
	s.logger.Info("Sample usage generated",
		zap.String("line_id", lineID.String()),
		zap.Int("created", len(created)),
		zap.Int("skipped", months-len(created)),
	)
	return created, nil
}

// Trends aggregates all of the user's history. start and end are optional "Mon-YYYY" bounds.
func (s *UsageService) Trends(ctx context.Context, userID uuid.UUID, groupBy, start, end string) (analytics.GroupBy, []analytics.UsageGroup, error) {
	group, err := analytics.ParseGroupBy(groupBy)
	if err != nil {
		return "", nil, apperror.Invalid("group_by", "must be one of month, quarter, year")
	}

	var dateRange analytics.DateRange
	if start != "" {
		from, err := models.ParseYearMonth(start)
		if err != nil {
			return "", nil, apperror.Invalid("start", err.Error())
		}
		dateRange.From = &from
	}
	if end != "" {
		to, err := models.ParseYearMonth(end)
		if err != nil {
			return "", nil, apperror.Invalid("end", err.Error())
		}
		dateRange.To = &to
	}
	if dateRange.From != nil && dateRange.To != nil && dateRange.To.Before(*dateRange.From) {
		return "", nil, apperror.Invalid("end", "must not be before start")
	}

	records, err := s.usage.ListByUser(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	return group, analytics.Aggregate(records, group, &dateRange), nil
}

// Anomalies runs the ratio detector per line and returns the merged list, largest ratio first.
func (s *UsageService) Anomalies(ctx context.Context, userID uuid.UUID) ([]analytics.RatioAnomaly, error) {
	records, err := s.usage.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	anomalies := make([]analytics.RatioAnomaly, 0)
	for _, history := range groupByLine(records) {
		anomalies = append(anomalies, analytics.DetectRatioAnomalies(history, s.RatioThreshold())...)
	}
	analytics.SortByRatio(anomalies)

	s.metrics.AnomaliesDetected("ratio", len(anomalies))
	return anomalies, nil
}

// LineAnomalies runs the standard deviation detector over one line.
func (s *UsageService) LineAnomalies(ctx context.Context, userID, lineID uuid.UUID) ([]analytics.StdDevAnomaly, error) {
	history, err := s.lineHistory(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	anomalies := analytics.DetectStdDevAnomalies(history, s.StdDevMultiplier())
	s.metrics.AnomaliesDetected("stddev", len(anomalies))
	return anomalies, nil
}

func (s *UsageService) Patterns(ctx context.Context, userID, lineID uuid.UUID) (analytics.UsagePattern, error) {
	history, err := s.lineHistory(ctx, userID, lineID)
	if err != nil {
		return analytics.UsagePattern{}, err
	}
	return analytics.AnalyzeUsagePatterns(history), nil
}

func (s *UsageService) StdDevMultiplier() float64 {
	if s.cfg.AnomalyStdDevMultiplier <= 0 {
		return analytics.DefaultStdDevMultiplier
	}
	return s.cfg.AnomalyStdDevMultiplier
}

func (s *UsageService) RatioThreshold() float64 {
	if s.cfg.AnomalyRatioThreshold <= 0 {
		return analytics.DefaultRatioThreshold
	}
	return s.cfg.AnomalyRatioThreshold
}

func (s *UsageService) lineHistory(ctx context.Context, userID, lineID uuid.UUID) ([]models.UsageRecord, error) {
	if _, err := ownedLine(ctx, s.lines, userID, lineID); err != nil {
		return nil, err
	}
	return s.usage.ListByLine(ctx, lineID)
}

// syncCurrentUsage copies the data usage of the newest record onto the line.
func (s *UsageService) syncCurrentUsage(ctx context.Context, line *models.TelecomLine) error {
	history, err := s.usage.ListByLine(ctx, line.ID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	latest := history[len(history)-1]
	if line.CurrentUsage == latest.DataUsed {
		return nil
	}
	line.CurrentUsage = latest.DataUsed
	line.UpdatedAt = s.now().UTC()
	if err := s.lines.Update(ctx, line); err != nil {
		return fmt.Errorf("update current usage: %w", err)
	}
	return nil
}

func validateCosts(c dto.UsageCosts) error {
	fields := map[string]decimal.Decimal{
		"data_cost":    c.DataCost,
		"calls_cost":   c.CallsCost,
		"sms_cost":     c.SMSCost,
		"roaming_cost": c.RoamingCost,
		"other_cost":   c.OtherCost,
	}
	invalid := make(map[string]string)
	for name, v := range fields {
		if v.IsNegative() {
			invalid[name] = "must not be negative"
		}
	}
	if len(invalid) > 0 {
		return &apperror.ValidationError{Fields: invalid}
	}
	return nil
}

func applyCosts(rec *models.UsageRecord, c dto.UsageCosts) {
	rec.DataCost = c.DataCost.Round(2)
	rec.CallsCost = c.CallsCost.Round(2)
	rec.SMSCost = c.SMSCost.Round(2)
	rec.RoamingCost = c.RoamingCost.Round(2)
	rec.OtherCost = c.OtherCost.Round(2)
}

func sampleRecord(rng *rand.Rand, lineID uuid.UUID, period models.YearMonth, base float64, now time.Time) models.UsageRecord {
	data := roundTo(base*(0.7+0.6*rng.Float64()), 2)
	calls := float64(100 + rng.IntN(400))
	sms := float64(20 + rng.IntN(180))

	rec := models.UsageRecord{
		ID:        uuid.New(),
		LineID:    lineID,
		Month:     period.MonthName(),
		Year:      period.Year,
		DataUsed:  data,
		CallsUsed: calls,
		SMSUsed:   sms,
		DataCost:  decimal.NewFromFloat(data * 2).Round(2),
		CallsCost: decimal.NewFromFloat(calls * 0.05).Round(2),
		SMSCost:   decimal.NewFromFloat(sms * 0.1).Round(2),
		OtherCost: decimal.NewFromFloat(2.5),
		CreatedAt: now,
	}
	if rng.Float64() < 0.15 {
		rec.RoamingCost = decimal.NewFromFloat(5 + 25*rng.Float64()).Round(2)
	}
	return rec
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
