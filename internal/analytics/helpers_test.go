package analytics

import (
	"telcodash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func usage(line uuid.UUID, month string, year int, data float64) models.UsageRecord {
	return models.UsageRecord{
		ID:        uuid.New(),
		LineID:    line,
		Month:     month,
		Year:      year,
		DataUsed:  data,
		CallsUsed: data * 10,
		SMSUsed:   data * 2,
		DataCost:  decimal.NewFromFloat(data),
	}
}

func history(line uuid.UUID, year int, data ...float64) []models.UsageRecord {
	out := make([]models.UsageRecord, 0, len(data))
	for i, d := range data {
		ym := models.YearMonth{Year: year, Month: 1}.AddMonths(i)
		out = append(out, usage(line, ym.MonthName(), ym.Year, d))
	}
	return out
}
