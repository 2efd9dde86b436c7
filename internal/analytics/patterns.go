package analytics

import "telcodash/internal/models"

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

const (
	minTrendRecords = 3
	trendThreshold  = 10.0
)

// UsagePattern describes how a line's data usage moved over its history.
// GrowthRate is in percent.
type UsagePattern struct {
	RecordCount   int     `json:"record_count"`
	FirstHalfAvg  float64 `json:"first_half_avg"`
	SecondHalfAvg float64 `json:"second_half_avg"`
	GrowthRate    float64 `json:"growth_rate"`
	Trend         Trend   `json:"trend"`
	Summary       Summary `json:"summary"`
	PeakPeriod    string  `json:"peak_period,omitempty"`
}

// AnalyzeUsagePatterns splits the chronologically sorted history in halves and compares
// their average data usage. Odd lengths put the extra record in the second half.
// Fewer than three records, or a zero first-half average, give a stable zero-growth pattern.
func AnalyzeUsagePatterns(records []models.UsageRecord) UsagePattern {
	sorted := SortChronologically(records)
	values := dataValues(sorted)

	p := UsagePattern{
		RecordCount: len(sorted),
		Trend:       TrendStable,
		Summary:     Summarize(values),
	}
	if len(sorted) == 0 {
		return p
	}

	peak := 0
	for i, v := range values {
		if v > values[peak] {
			peak = i
		}
	}
	p.PeakPeriod = sorted[peak].Period().String()

	if len(sorted) < minTrendRecords {
		return p
	}

	mid := len(values) / 2
	p.FirstHalfAvg = mean(values[:mid])
	p.SecondHalfAvg = mean(values[mid:])
	if p.FirstHalfAvg <= 0 {
		return p
	}

	p.GrowthRate = (p.SecondHalfAvg - p.FirstHalfAvg) / p.FirstHalfAvg * 100
	switch {
	case p.GrowthRate > trendThreshold:
		p.Trend = TrendIncreasing
	case p.GrowthRate < -trendThreshold:
		p.Trend = TrendDecreasing
	}
	return p
}

func dataValues(records []models.UsageRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.DataUsed
	}
	return values
}
