package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntityType string

const (
	EntityLine       EntityType = "line"
	EntityDepartment EntityType = "department"
	EntityCompany    EntityType = "company"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityLine, EntityDepartment, EntityCompany:
		return true
	}
	return false
}

type BudgetPeriod string

const (
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
	PeriodYearly    BudgetPeriod = "yearly"
)

func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// Budget caps spending of one entity. EntityID is a line id, a department name,
// or the owning user id for company budgets. AlertThreshold is a percentage.
type Budget struct {
	ID             uuid.UUID       `db:"id"`
	UserID         uuid.UUID       `db:"user_id"`
	EntityType     EntityType      `db:"entity_type"`
	EntityID       string          `db:"entity_id"`
	Amount         decimal.Decimal `db:"amount"`
	Period         BudgetPeriod    `db:"period"`
	AlertThreshold float64         `db:"alert_threshold"`
	StartDate      time.Time       `db:"start_date"`
	EndDate        *time.Time      `db:"end_date"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// IsActive reports whether the budget has no end date or ends today or later.
func (b Budget) IsActive(today time.Time) bool {
	if b.EndDate == nil {
		return true
	}
	end := truncateDay(*b.EndDate)
	return !end.Before(truncateDay(today))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
