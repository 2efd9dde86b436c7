package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageRecord is one line's usage for a calendar month.
// Month is always the three-letter form, see ParseMonth.
type UsageRecord struct {
	ID          uuid.UUID       `db:"id"`
	LineID      uuid.UUID       `db:"line_id"`
	Month       string          `db:"month"`
	Year        int             `db:"year"`
	DataUsed    float64         `db:"data_used"`
	CallsUsed   float64         `db:"calls_used"`
	SMSUsed     float64         `db:"sms_used"`
	DataCost    decimal.Decimal `db:"data_cost"`
	CallsCost   decimal.Decimal `db:"calls_cost"`
	SMSCost     decimal.Decimal `db:"sms_cost"`
	RoamingCost decimal.Decimal `db:"roaming_cost"`
	OtherCost   decimal.Decimal `db:"other_cost"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r UsageRecord) TotalCost() decimal.Decimal {
	return r.DataCost.Add(r.CallsCost).Add(r.SMSCost).Add(r.RoamingCost).Add(r.OtherCost)
}

func (r UsageRecord) Period() YearMonth {
	return YearMonth{Year: r.Year, Month: MonthOrdinal(r.Month)}
}
