package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CostBreakdown struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	Month       string          `db:"month"`
	Year        int             `db:"year"`
	DataCost    decimal.Decimal `db:"data_cost"`
	CallsCost   decimal.Decimal `db:"calls_cost"`
	SMSCost     decimal.Decimal `db:"sms_cost"`
	RoamingCost decimal.Decimal `db:"roaming_cost"`
	OtherCost   decimal.Decimal `db:"other_cost"`
	TotalCost   decimal.Decimal `db:"total_cost"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// Add accumulates the cost columns of r and refreshes TotalCost.
func (c *CostBreakdown) Add(r UsageRecord) {
	c.DataCost = c.DataCost.Add(r.DataCost)
	c.CallsCost = c.CallsCost.Add(r.CallsCost)
	c.SMSCost = c.SMSCost.Add(r.SMSCost)
	c.RoamingCost = c.RoamingCost.Add(r.RoamingCost)
	c.OtherCost = c.OtherCost.Add(r.OtherCost)
	c.TotalCost = c.DataCost.Add(c.CallsCost).Add(c.SMSCost).Add(c.RoamingCost).Add(c.OtherCost)
}
