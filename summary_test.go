package kasa

import "testing"

func augustEntries() []Entry {
	return []Entry{
		NewIncome(MustParseDate("2026-08-01"), M(2500, "EUR"), "salary", "checking"),
		NewExpense(MustParseDate("2026-08-03"), M(120, "EUR"), "groceries", "checking"),
		NewExpense(MustParseDate("2026-08-10"), M(80, "EUR"), "groceries", "card"),
		NewExpense(MustParseDate("2026-08-12"), M(60, "EUR"), "transport", "card"),
		NewExpense(MustParseDate("2026-08-15"), M(15, "EUR"), "", "card"),
		NewTransfer(MustParseDate("2026-08-20"), M(500, "EUR"), "checking", "savings"),
		NewExpense(MustParseDate("2026-07-28"), M(999, "EUR"), "groceries", "card"),
		NewExpense(MustParseDate("2026-08-05"), M(40, "USD"), "travel", "card"),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(augustEntries(), MustParseDate("2026-08-18"), "EUR")

	if s.Month != MustParseDate("2026-08-01") {
		t.Errorf("Month = %v, want 2026-08-01", s.Month)
	}
	if !s.Income.Equal(M(2500, "EUR")) {
		t.Errorf("Income = %v, want 2500", s.Income)
	}
	// 120+80+60+15, ignoring the transfer, July, and the USD entry.
	if !s.Expense.Equal(M(275, "EUR")) {
		t.Errorf("Expense = %v, want 275", s.Expense)
	}
	if !s.Net.Equal(M(2225, "EUR")) {
		t.Errorf("Net = %v, want 2225", s.Net)
	}

	want := []CategoryAmount{
		{"groceries", M(200, "EUR")},
		{"transport", M(60, "EUR")},
		{"uncategorized", M(15, "EUR")},
	}
	if len(s.ByCategory) != len(want) {
		t.Fatalf("ByCategory = %v, want %v", s.ByCategory, want)
	}
	for i := range want {
		got := s.ByCategory[i]
		if got.Name != want[i].Name || !got.Amount.Equal(want[i].Amount) {
			t.Errorf("ByCategory[%d] = %v %v, want %v %v", i, got.Name, got.Amount, want[i].Name, want[i].Amount)
		}
	}
}

func TestSummarize_EmptyMonth(t *testing.T) {
	s := Summarize(augustEntries(), MustParseDate("2026-01-15"), "EUR")
	if !s.Income.IsZero() || !s.Expense.IsZero() || !s.Net.IsZero() {
		t.Errorf("expected a zero summary, got %+v", s)
	}
	if len(s.ByCategory) != 0 {
		t.Errorf("ByCategory = %v, want empty", s.ByCategory)
	}
}
