package analytics

import (
	"math"
	"sort"

	"telcodash/internal/models"
)

const (
	DefaultStdDevMultiplier = 2.0
	DefaultRatioThreshold   = 1.5

	minAnomalyRecords = 3
)

type Severity string

const (
	SeverityHigh Severity = "high"
	SeverityLow  Severity = "low"
)

type StdDevAnomaly struct {
	Record    models.UsageRecord `json:"record"`
	Period    string             `json:"period"`
	Mean      float64            `json:"mean"`
	StdDev    float64            `json:"std_dev"`
	Deviation float64            `json:"deviation"`
	Severity  Severity           `json:"severity"`
}

// DetectStdDevAnomalies flags records of one line whose data usage is more than
// multiplier population standard deviations away from the mean.
// Results keep chronological order. A non-positive multiplier uses the default.
func DetectStdDevAnomalies(records []models.UsageRecord, multiplier float64) []StdDevAnomaly {
	if len(records) < minAnomalyRecords {
		return nil
	}
	if multiplier <= 0 {
		multiplier = DefaultStdDevMultiplier
	}

	sorted := SortChronologically(records)
	stats := Summarize(dataValues(sorted))
	limit := multiplier * stats.StdDev

	var out []StdDevAnomaly
	for _, r := range sorted {
		deviation := r.DataUsed - stats.Mean
		if math.Abs(deviation) <= limit {
			continue
		}
		severity := SeverityHigh
		if deviation < 0 {
			severity = SeverityLow
		}
		out = append(out, StdDevAnomaly{
			Record:    r,
			Period:    r.Period().String(),
			Mean:      stats.Mean,
			StdDev:    stats.StdDev,
			Deviation: deviation,
			Severity:  severity,
		})
	}
	return out
}

type RatioAnomaly struct {
	Record   models.UsageRecord `json:"record"`
	Period   string             `json:"period"`
	Average  float64            `json:"average"`
	Ratio    float64            `json:"deviation_ratio"`
	Severity Severity           `json:"severity"`
}

// DetectRatioAnomalies flags records of one line whose data usage exceeds
// average × threshold, highest ratio first. A non-positive threshold uses the default.
func DetectRatioAnomalies(records []models.UsageRecord, threshold float64) []RatioAnomaly {
	if len(records) < minAnomalyRecords {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultRatioThreshold
	}

	avg := mean(dataValues(records))
	if avg <= 0 {
		return nil
	}

	var out []RatioAnomaly
	for _, r := range SortChronologically(records) {
		if r.DataUsed <= avg*threshold {
			continue
		}
		out = append(out, RatioAnomaly{
			Record:   r,
			Period:   r.Period().String(),
			Average:  avg,
			Ratio:    r.DataUsed / avg,
			Severity: SeverityHigh,
		})
	}
	SortByRatio(out)
	return out
}

// SortByRatio orders anomalies by deviation ratio, highest first.
func SortByRatio(anomalies []RatioAnomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Ratio > anomalies[j].Ratio
	})
}
