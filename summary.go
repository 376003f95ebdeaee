package kasa

import (
	"sort"

	"github.com/kasaledger/kasa/date"
)

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact overview of a month of ledger activity,
// expressed in a single currency.
type MonthSummary struct {
	Month      Date // first day of the month
	Currency   string
	Income     Money
	Expense    Money
	Net        Money
	ByCategory []CategoryAmount // expenses only, largest first
}

// Summarize aggregates the entries falling in the month of 'on' into a
// MonthSummary. Transfers move money between accounts and are ignored.
// Entries in another currency than 'currency' are skipped; a tracker is
// expected to keep one currency per book.
func Summarize(entries []Entry, on Date, currency string) MonthSummary {
	r := date.NewRange(on, date.Monthly)
	s := MonthSummary{
		Month:    on.StartOf(date.Monthly),
		Currency: currency,
		Income:   M(0, currency),
		Expense:  M(0, currency),
	}
	byCat := make(map[string]Money)
	for _, e := range entries {
		if !r.Contains(e.Date) || e.Kind == Transfer {
			continue
		}
		if e.Amount.Currency() != "" && e.Amount.Currency() != currency {
			continue
		}
		switch e.Kind {
		case Income:
			s.Income = s.Income.Add(e.Amount)
		case Expense:
			s.Expense = s.Expense.Add(e.Amount)
			cat := e.Category
			if cat == "" {
				cat = "uncategorized"
			}
			if prev, ok := byCat[cat]; ok {
				byCat[cat] = prev.Add(e.Amount)
			} else {
				byCat[cat] = e.Amount
			}
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	for name, amount := range byCat {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Amount.Equal(b.Amount) {
			return a.Name < b.Name
		}
		return a.Amount.GreaterThan(b.Amount)
	})
	return s
}
