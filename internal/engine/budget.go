package engine

import (
	"time"

	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

// Window is an inclusive range of calendar months.
type Window struct {
	From models.YearMonth `json:"from"`
	To   models.YearMonth `json:"to"`
}

func (w Window) Contains(ym models.YearMonth) bool {
	return !ym.Before(w.From) && !w.To.Before(ym)
}

// PeriodWindow returns the months of period that contain today: the current month,
// the current calendar quarter, or the current calendar year.
func PeriodWindow(period models.BudgetPeriod, today time.Time) Window {
	now := models.YearMonthOf(today)
	switch period {
	case models.PeriodQuarterly:
		first := (models.Quarter(now.Month)-1)*3 + 1
		return Window{
			From: models.YearMonth{Year: now.Year, Month: first},
			To:   models.YearMonth{Year: now.Year, Month: first + 2},
		}
	case models.PeriodYearly:
		return Window{
			From: models.YearMonth{Year: now.Year, Month: 1},
			To:   models.YearMonth{Year: now.Year, Month: 12},
		}
	default:
		return Window{From: now, To: now}
	}
}

// Spending sums the cost columns of records inside window.
func Spending(records []models.UsageRecord, window Window) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if window.Contains(r.Period()) {
			total = total.Add(r.TotalCost())
		}
	}
	return total
}

type BudgetEvaluation struct {
	Budget             models.Budget   `json:"budget"`
	Window             Window          `json:"window"`
	Spending           decimal.Decimal `json:"spending"`
	Remaining          decimal.Decimal `json:"remaining"`
	SpendingPercentage float64         `json:"spending_percentage"`
	Exceeded           bool            `json:"exceeded"`
}

var hundred = decimal.NewFromInt(100)

// EvaluateBudget reports spending as a percentage of the budget amount; the budget is
// exceeded once spending × 100 reaches threshold × amount. Only the reported
// percentage is rounded.
func EvaluateBudget(budget models.Budget, spending decimal.Decimal) BudgetEvaluation {
	eval := BudgetEvaluation{
		Budget:    budget,
		Spending:  spending,
		Remaining: budget.Amount.Sub(spending),
	}
	if budget.Amount.IsPositive() {
		pct, _ := spending.Div(budget.Amount).Mul(hundred).Round(2).Float64()
		eval.SpendingPercentage = pct
		limit := decimal.NewFromFloat(budget.AlertThreshold).Mul(budget.Amount)
		eval.Exceeded = spending.Mul(hundred).GreaterThanOrEqual(limit)
		return eval
	}
	if spending.IsPositive() {
		// no allowance at all: any spend is a full breach
		eval.SpendingPercentage = 100
	}
	eval.Exceeded = eval.SpendingPercentage >= budget.AlertThreshold
	return eval
}
