package engine

import (
	"fmt"
	"math"

	"telcodash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	highUsageRatio = 0.85
	lowUsageRatio  = 0.4
)

var (
	minSharingSaving  = decimal.NewFromInt(5)
	highSharingSaving = decimal.NewFromInt(20)
)

type DataSharingOpportunity struct {
	HighUsageLines  []uuid.UUID     `json:"high_usage_lines"`
	LowUsageLines   []uuid.UUID     `json:"low_usage_lines"`
	Excess          float64         `json:"excess"`
	Available       float64         `json:"available"`
	UsableSurplus   float64         `json:"usable_surplus"`
	PotentialSaving decimal.Decimal `json:"potential_saving"`
	Priority        models.Priority `json:"priority"`
}

// FindDataSharing pairs lines running over their monthly limit with lines leaving most of it unused.
// Excess only counts usage above the raw limit. It returns nil below the minimum saving.
func FindDataSharing(lines []models.TelecomLine) *DataSharingOpportunity {
	var opp DataSharingOpportunity
	for _, l := range lines {
		switch {
		case l.CurrentUsage > l.MonthlyLimit*highUsageRatio:
			opp.HighUsageLines = append(opp.HighUsageLines, l.ID)
			opp.Excess += math.Max(0, l.CurrentUsage-l.MonthlyLimit)
		case l.CurrentUsage < l.MonthlyLimit*lowUsageRatio:
			opp.LowUsageLines = append(opp.LowUsageLines, l.ID)
			opp.Available += math.Max(0, l.MonthlyLimit-l.CurrentUsage)
		}
	}
	if len(opp.HighUsageLines) == 0 || len(opp.LowUsageLines) == 0 {
		return nil
	}

	opp.UsableSurplus = math.Min(opp.Excess, opp.Available)
	opp.PotentialSaving = decimal.NewFromFloat(opp.UsableSurplus).Mul(OverageRate).Round(2)
	if !opp.PotentialSaving.GreaterThan(minSharingSaving) {
		return nil
	}

	opp.Priority = models.PriorityMedium
	if opp.PotentialSaving.GreaterThan(highSharingSaving) {
		opp.Priority = models.PriorityHigh
	}
	return &opp
}

func (o DataSharingOpportunity) Title() string {
	return "Data sharing across lines"
}

func (o DataSharingOpportunity) Description() string {
	return fmt.Sprintf(
		"%d line(s) exceed their limit by %.1f GB while %d line(s) leave %.1f GB unused. Pooling %.1f GB saves about %s per month.",
		len(o.HighUsageLines), o.Excess, len(o.LowUsageLines), o.Available, o.UsableSurplus, o.PotentialSaving.StringFixed(2),
	)
}
