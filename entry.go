package kasa

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/kasaledger/kasa/date"
	"github.com/shopspring/decimal"
)

// Date is the day-granularity date used throughout the ledger.
type Date = date.Date

// Today returns the current date.
func Today() Date { return date.Today() }

// ParseDate parses a Date from a string, accepting permissive forms like "2025-7-1".
func ParseDate(s string) (Date, error) { return date.Parse(s) }

// MustParseDate parses a Date and panics on error.
func MustParseDate(s string) Date { return date.MustParse(s) }

// Kind is a typed string identifying the nature of a ledger entry.
type Kind string

// Entry kinds recorded in the ledger.
const (
	Expense  Kind = "expense"
	Income   Kind = "income"
	Transfer Kind = "transfer"
)

// ParseKind parses a string into an entry Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	case Transfer:
		return Transfer, nil
	default:
		return "", fmt.Errorf("unknown entry kind: %q", s)
	}
}

// Entry is one row of the ledger: an expense, an income, or a transfer
// between two accounts. Entries carry a stable ID assigned by the backing
// store; the mutation engine only ever relies on that ID.
type Entry struct {
	ID        string
	Kind      Kind
	Date      Date
	Amount    Money
	Category  string
	Account   string
	ToAccount string // set for transfers only
	Payee     string
	Memo      string
}

// NewExpense creates a new expense entry.
func NewExpense(day Date, amount Money, category, account string) Entry {
	return Entry{Kind: Expense, Date: day, Amount: amount, Category: category, Account: account}
}

// NewIncome creates a new income entry.
func NewIncome(day Date, amount Money, category, account string) Entry {
	return Entry{Kind: Income, Date: day, Amount: amount, Category: category, Account: account}
}

// NewTransfer creates a new transfer entry between two accounts.
func NewTransfer(day Date, amount Money, from, to string) Entry {
	return Entry{Kind: Transfer, Date: day, Amount: amount, Account: from, ToAccount: to}
}

// Equal reports whether two entries are identical.
func (e Entry) Equal(o Entry) bool {
	return e.ID == o.ID &&
		e.Kind == o.Kind &&
		e.Date == o.Date &&
		e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Account == o.Account &&
		e.ToAccount == o.ToAccount &&
		e.Payee == o.Payee &&
		e.Memo == o.Memo
}

// MarshalJSON implements the json.Marshaler interface for Entry.
// Fields are written in a canonical order so the JSONL ledger diffs cleanly.
func (e Entry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", e.Kind)
	w.Optional("id", e.ID)
	w.Append("date", e.Date)
	w.EmbedFrom(e.Amount)
	w.Optional("category", e.Category)
	w.Optional("account", e.Account)
	w.Optional("toAccount", e.ToAccount)
	w.Optional("payee", e.Payee)
	w.Optional("memo", e.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Entry.
// It handles the structure where amount and currency are separate fields.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var temp struct {
		Kind      Kind            `json:"kind"`
		ID        string          `json:"id"`
		Date      Date            `json:"date"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Category  string          `json:"category"`
		Account   string          `json:"account"`
		ToAccount string          `json:"toAccount"`
		Payee     string          `json:"payee"`
		Memo      string          `json:"memo"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*e = Entry{
		ID:        temp.ID,
		Kind:      temp.Kind,
		Date:      temp.Date,
		Amount:    M(temp.Amount, temp.Currency),
		Category:  temp.Category,
		Account:   temp.Account,
		ToAccount: temp.ToAccount,
		Payee:     temp.Payee,
		Memo:      temp.Memo,
	}
	return nil
}

// SortEntries sorts entries chronologically, with the ID as a tie breaker so
// the order is stable across encode/decode round trips.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
}

// Account is a place money lives: a bank account, a wallet, a card.
type Account struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Category labels entries for reporting and budgeting.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"` // expense or income
}
