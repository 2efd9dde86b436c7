// Package engine turns usage figures into plan, sharing and budget decisions.
// All functions are pure; callers load the inputs and persist the results.
package engine

import (
	"fmt"
	"sort"

	"telcodash/internal/analytics"
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

const (
	downgradeUsageRatio = 0.7
	upgradeUsageRatio   = 0.85
	headroomRatio       = 1.2

	ReasonUnderutilization = "underutilization"
	ReasonApproachingLimit = "approaching_limit"
)

// OverageRate is the estimated charge per GB above the plan limit.
var OverageRate = decimal.NewFromInt(10)

type PlanRecommendation struct {
	Category       models.RecommendationCategory `json:"category"`
	CurrentPlan    models.ServicePlan            `json:"current_plan"`
	ProposedPlan   models.ServicePlan            `json:"proposed_plan"`
	CurrentUsage   float64                       `json:"current_usage"`
	EffectiveUsage float64                       `json:"effective_usage"`
	Trend          analytics.Trend               `json:"trend"`
	GrowthRate     float64                       `json:"growth_rate"`
	MonthlySaving  decimal.Decimal               `json:"monthly_saving"`
	Priority       models.Priority               `json:"priority"`
	Reason         string                        `json:"reason"`
}

// EffectiveUsage inflates current usage by half the growth rate when the trend is increasing.
func EffectiveUsage(current float64, pattern analytics.UsagePattern) float64 {
	if pattern.Trend != analytics.TrendIncreasing {
		return current
	}
	return current * (1 + pattern.GrowthRate/200)
}

// RecommendPlan proposes at most one plan change for line. It returns nil when the line
// has no current plan or no candidate yields a saving.
func RecommendPlan(line models.TelecomLine, current *models.ServicePlan, catalog []models.ServicePlan, history []models.UsageRecord) *PlanRecommendation {
	if current == nil {
		return nil
	}

	pattern := analytics.AnalyzeUsagePatterns(history)
	effective := EffectiveUsage(line.CurrentUsage, pattern)

	base := PlanRecommendation{
		CurrentPlan:    *current,
		CurrentUsage:   line.CurrentUsage,
		EffectiveUsage: effective,
		Trend:          pattern.Trend,
		GrowthRate:     pattern.GrowthRate,
	}

	down := downgrade(base, catalog)
	up := upgrade(base, catalog)

	switch {
	case down != nil && up != nil:
		if up.MonthlySaving.GreaterThan(down.MonthlySaving) {
			return up
		}
		return down
	case down != nil:
		return down
	default:
		return up
	}
}

func downgrade(base PlanRecommendation, catalog []models.ServicePlan) *PlanRecommendation {
	current := base.CurrentPlan
	if base.EffectiveUsage >= current.DataLimit*downgradeUsageRatio {
		return nil
	}

	required := base.EffectiveUsage * headroomRatio
	var candidates []models.ServicePlan
	for _, p := range catalog {
		if p.ID == current.ID {
			continue
		}
		if p.Price.LessThan(current.Price) && p.DataLimit >= required {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// most expensive first, then the larger allowance
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Price.Equal(candidates[j].Price) {
			return candidates[i].Price.GreaterThan(candidates[j].Price)
		}
		return candidates[i].DataLimit > candidates[j].DataLimit
	})

	rec := base
	rec.Category = models.CategoryPlanDowngrade
	rec.ProposedPlan = candidates[0]
	rec.MonthlySaving = current.Price.Sub(candidates[0].Price).Round(2)
	rec.Priority = models.PriorityMedium
	rec.Reason = ReasonUnderutilization
	return &rec
}

func upgrade(base PlanRecommendation, catalog []models.ServicePlan) *PlanRecommendation {
	current := base.CurrentPlan
	if base.EffectiveUsage <= current.DataLimit*upgradeUsageRatio {
		return nil
	}

	required := base.EffectiveUsage * headroomRatio
	var candidates []models.ServicePlan
	for _, p := range catalog {
		if p.ID == current.ID {
			continue
		}
		if p.DataLimit > current.DataLimit && p.DataLimit >= required {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// cheapest first, then the larger allowance
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Price.Equal(candidates[j].Price) {
			return candidates[i].Price.LessThan(candidates[j].Price)
		}
		return candidates[i].DataLimit > candidates[j].DataLimit
	})
	chosen := candidates[0]

	over := base.EffectiveUsage - current.DataLimit
	if over < 0 {
		over = 0
	}
	overage := decimal.NewFromFloat(over).Mul(OverageRate)
	saving := overage.Sub(chosen.Price.Sub(current.Price)).Round(2)
	if !saving.IsPositive() {
		return nil
	}

	rec := base
	rec.Category = models.CategoryPlanUpgrade
	rec.ProposedPlan = chosen
	rec.MonthlySaving = saving
	rec.Priority = models.PriorityMedium
	if base.EffectiveUsage > current.DataLimit {
		rec.Priority = models.PriorityHigh
	}
	rec.Reason = ReasonApproachingLimit
	return &rec
}

// Title leads with the phone number so that the first characters identify the line;
// dedup of open recommendations matches on that prefix.
func (r PlanRecommendation) Title(phone string) string {
	if r.Category == models.CategoryPlanDowngrade {
		return fmt.Sprintf("%s: downgrade to %s", phone, r.ProposedPlan.Name)
	}
	return fmt.Sprintf("%s: upgrade to %s", phone, r.ProposedPlan.Name)
}

func (r PlanRecommendation) Description() string {
	if r.Category == models.CategoryPlanDowngrade {
		return fmt.Sprintf(
			"Line uses %.1f GB of %.0f GB on %s. Switching to %s (%.0f GB) saves %s per month.",
			r.EffectiveUsage, r.CurrentPlan.DataLimit, r.CurrentPlan.Name,
			r.ProposedPlan.Name, r.ProposedPlan.DataLimit, r.MonthlySaving.StringFixed(2),
		)
	}
	return fmt.Sprintf(
		"Line is expected to use %.1f GB against a %.0f GB limit on %s (trend %s). Moving to %s (%.0f GB) avoids overage and saves %s per month.",
		r.EffectiveUsage, r.CurrentPlan.DataLimit, r.CurrentPlan.Name, r.Trend,
		r.ProposedPlan.Name, r.ProposedPlan.DataLimit, r.MonthlySaving.StringFixed(2),
	)
}
