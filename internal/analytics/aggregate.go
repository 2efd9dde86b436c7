// Package analytics holds the pure usage computations: grouping, statistics,
// trend analysis and anomaly detection. Nothing here touches storage.
package analytics

import (
	"fmt"
	"sort"

	"telcodash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GroupBy string

const (
	GroupByMonth   GroupBy = "month"
	GroupByQuarter GroupBy = "quarter"
	GroupByYear    GroupBy = "year"
)

func ParseGroupBy(value string) (GroupBy, error) {
	switch GroupBy(value) {
	case "", GroupByMonth:
		return GroupByMonth, nil
	case GroupByQuarter, GroupByYear:
		return GroupBy(value), nil
	}
	return "", fmt.Errorf("invalid group_by %q", value)
}

// DateRange bounds are inclusive. A nil bound is open.
type DateRange struct {
	From *models.YearMonth
	To   *models.YearMonth
}

func (r *DateRange) Contains(ym models.YearMonth) bool {
	if r == nil {
		return true
	}
	if r.From != nil && ym.Before(*r.From) {
		return false
	}
	if r.To != nil && r.To.Before(ym) {
		return false
	}
	return true
}

// UsageGroup is one bucket of Aggregate. Month is set for month grouping,
// Quarter for quarter grouping; both are 0 for year grouping.
type UsageGroup struct {
	Period    string          `json:"period"`
	Year      int             `json:"year"`
	Quarter   int             `json:"quarter,omitempty"`
	Month     int             `json:"month,omitempty"`
	DataUsed  float64         `json:"data_used"`
	CallsUsed float64         `json:"calls_used"`
	SMSUsed   float64         `json:"sms_used"`
	TotalCost decimal.Decimal `json:"total_cost"`
	LineCount int             `json:"line_count"`
}

type groupKey struct {
	year, quarter, month int
}

// Aggregate sums usage per group and counts distinct contributing lines.
// Records outside dateRange or with an unknown month are skipped.
// Groups are returned oldest first.
func Aggregate(records []models.UsageRecord, groupBy GroupBy, dateRange *DateRange) []UsageGroup {
	groups := make(map[groupKey]*UsageGroup)
	lines := make(map[groupKey]map[uuid.UUID]struct{})

	for _, r := range records {
		ym := r.Period()
		if ym.Month == 0 || !dateRange.Contains(ym) {
			continue
		}

		key := groupKey{year: ym.Year}
		switch groupBy {
		case GroupByQuarter:
			key.quarter = models.Quarter(ym.Month)
		case GroupByYear:
		default:
			key.month = ym.Month
		}

		g, ok := groups[key]
		if !ok {
			g = &UsageGroup{
				Period:  periodLabel(key),
				Year:    key.year,
				Quarter: key.quarter,
				Month:   key.month,
			}
			groups[key] = g
			lines[key] = make(map[uuid.UUID]struct{})
		}
		g.DataUsed += r.DataUsed
		g.CallsUsed += r.CallsUsed
		g.SMSUsed += r.SMSUsed
		g.TotalCost = g.TotalCost.Add(r.TotalCost())
		lines[key][r.LineID] = struct{}{}
	}

	out := make([]UsageGroup, 0, len(groups))
	for key, g := range groups {
		g.LineCount = len(lines[key])
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		return a.Month < b.Month
	})
	return out
}

func periodLabel(key groupKey) string {
	switch {
	case key.month > 0:
		return fmt.Sprintf("%s-%d", models.MonthName(key.month), key.year)
	case key.quarter > 0:
		return fmt.Sprintf("Q%d-%d", key.quarter, key.year)
	default:
		return fmt.Sprintf("%d", key.year)
	}
}

// SortChronologically returns a copy of records ordered by (year, month ordinal).
func SortChronologically(records []models.UsageRecord) []models.UsageRecord {
	sorted := make([]models.UsageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period().Before(sorted[j].Period())
	})
	return sorted
}
