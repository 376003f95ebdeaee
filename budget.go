package kasa

import "github.com/kasaledger/kasa/date"

// Budget is a monthly spending limit for one category.
type Budget struct {
	Category string `json:"category"`
	Limit    Money  `json:"limit"`
}

// BudgetStats holds budget tracking and forecast data for one category and month.
type BudgetStats struct {
	Budget
	Spent         Money
	Remaining     Money
	UsedPercent   float64
	DailyBurnRate Money // average spend per elapsed day
	Projected     Money // burn rate extrapolated to the full month
	DaysRemaining int
}

// Stats computes the burn statistics for the budget over the month of 'on',
// counting days elapsed up to and including 'on'.
func (b Budget) Stats(entries []Entry, on Date) BudgetStats {
	r := date.NewRange(on, date.Monthly)
	spent := M(0, b.Limit.Currency())
	for _, e := range entries {
		if e.Kind != Expense || e.Category != b.Category || !r.Contains(e.Date) {
			continue
		}
		spent = spent.Add(e.Amount)
	}

	elapsed := on.Day()
	total := on.DaysIn()
	rate := spent.DivInt(elapsed)
	return BudgetStats{
		Budget:        b,
		Spent:         spent,
		Remaining:     b.Limit.Sub(spent),
		UsedPercent:   100 * spent.Ratio(b.Limit),
		DailyBurnRate: rate,
		Projected:     rate.MulInt(total),
		DaysRemaining: total - elapsed,
	}
}
