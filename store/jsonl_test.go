package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/fault"
	"github.com/kasaledger/kasa/mutate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(id, day string, amount float64, category string) kasa.Entry {
	e := kasa.NewExpense(kasa.MustParseDate(day), kasa.M(amount, "EUR"), category, "checking")
	e.ID = id
	return e
}

func TestJSONL_CreateAssignsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)

	tmp := mutate.TempID()
	e := testEntry(tmp, "2026-08-01", 12.50, "groceries")
	created, err := s.Create(context.Background(), e)
	require.NoError(t, err)
	assert.NotEqual(t, tmp, created.ID, "placeholder must be replaced")
	assert.False(t, mutate.IsTempID(created.ID))
}

func TestJSONL_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Create(ctx, testEntry("", "2026-08-02", 30, "transport"))
	require.NoError(t, err)
	b, err := s.Create(ctx, testEntry("", "2026-08-01", 12.50, "groceries"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenJSONL(path)
	require.NoError(t, err)
	list, err := reopened.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "listing is chronological")
	assert.Equal(t, a.ID, list[1].ID)
}

func TestJSONL_DuplicateCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)
	ctx := context.Background()

	e, err := s.Create(ctx, testEntry("", "2026-08-01", 5, "coffee"))
	require.NoError(t, err)
	_, err = s.Create(ctx, e)
	require.Error(t, err)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, fault.Storage, serr.FaultKind())
	assert.False(t, serr.FaultRetryable())
}

func TestJSONL_UpdateDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)
	ctx := context.Background()

	e, err := s.Create(ctx, testEntry("", "2026-08-01", 5, "coffee"))
	require.NoError(t, err)

	e.Memo = "flat white"
	updated, err := s.Update(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "flat white", updated.Memo)

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "flat white", got.Memo)

	require.NoError(t, s.Delete(ctx, e.ID))
	_, err = s.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONL_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, testEntry("missing", "2026-08-01", 1, ""))
	assert.ErrorIs(t, err, ErrNotFound)
	err = s.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.False(t, serr.FaultRetryable(), "retrying cannot make a missing entry appear")
}

func TestFilter_Matches(t *testing.T) {
	groceries := testEntry("a", "2026-08-10", 42, "groceries")
	transport := testEntry("b", "2026-07-01", 30, "transport")
	transfer := kasa.NewTransfer(kasa.MustParseDate("2026-08-15"), kasa.M(100, "EUR"), "checking", "savings")
	transfer.ID = "c"

	tests := []struct {
		name   string
		filter Filter
		entry  kasa.Entry
		want   bool
	}{
		{"empty matches everything", Filter{}, groceries, true},
		{"category hit", Filter{Category: "groceries"}, groceries, true},
		{"category miss", Filter{Category: "groceries"}, transport, false},
		{"from bound inclusive", Filter{From: kasa.MustParseDate("2026-08-10")}, groceries, true},
		{"from bound excludes earlier", Filter{From: kasa.MustParseDate("2026-08-01")}, transport, false},
		{"to bound excludes later", Filter{To: kasa.MustParseDate("2026-07-31")}, groceries, false},
		{"kind", Filter{Kind: kasa.Transfer}, transfer, true},
		{"account matches destination", Filter{Account: "savings"}, transfer, true},
		{"jsonpath hit", Filter{Expr: "$.category"}, groceries, true},
		{"jsonpath empty value", Filter{Expr: "$.memo"}, groceries, false},
		{"jsonpath unresolvable path", Filter{Expr: "$.nosuchfield"}, groceries, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.filter.Matches(tc.entry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJSONL_ListFiltered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.jsonl")
	s, err := OpenJSONL(path)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Create(ctx, testEntry("", "2026-08-01", 12.50, "groceries"))
	require.NoError(t, err)
	_, err = s.Create(ctx, testEntry("", "2026-08-02", 30, "transport"))
	require.NoError(t, err)
	_, err = s.Create(ctx, testEntry("", "2026-08-03", 7, "groceries"))
	require.NoError(t, err)

	list, err := s.List(ctx, Filter{Category: "groceries"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.List(ctx, Filter{From: kasa.MustParseDate("2026-08-02"), To: kasa.MustParseDate("2026-08-02")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "transport", list[0].Category)
}

func TestJSONL_ClassifierInheritsVerdict(t *testing.T) {
	class := fault.Classify(notFoundErr("x"))
	assert.Equal(t, fault.Storage, class.Kind)
	assert.False(t, class.Retryable)

	class = fault.Classify(storageErr("disk broke", errors.New("io error")))
	assert.Equal(t, fault.Storage, class.Kind)
	assert.True(t, class.Retryable)
}
