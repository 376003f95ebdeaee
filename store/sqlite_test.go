package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kasaledger/kasa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "kasa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	e := kasa.NewExpense(kasa.MustParseDate("2026-08-10"), kasa.M(12.50, "EUR"), "groceries", "checking")
	e.Payee = "corner shop"
	created, err := s.Create(ctx, e)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, created.Equal(got), "entry must survive the round trip intact")
	assert.True(t, got.Amount.Equal(kasa.M(12.50, "EUR")))
}

func TestSQLite_UpdateDelete(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	created, err := s.Create(ctx, kasa.NewIncome(kasa.MustParseDate("2026-08-01"), kasa.M(2500, "EUR"), "salary", "checking"))
	require.NoError(t, err)

	created.Memo = "august pay"
	updated, err := s.Update(ctx, created)
	require.NoError(t, err)
	got, err := s.Get(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, "august pay", got.Memo)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_NotFound(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, kasa.Entry{ID: "missing", Kind: kasa.Expense})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestSQLite_List(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	seed := []kasa.Entry{
		kasa.NewExpense(kasa.MustParseDate("2026-08-01"), kasa.M(12.50, "EUR"), "groceries", "checking"),
		kasa.NewExpense(kasa.MustParseDate("2026-08-02"), kasa.M(30, "EUR"), "transport", "checking"),
		kasa.NewTransfer(kasa.MustParseDate("2026-08-03"), kasa.M(100, "EUR"), "checking", "savings"),
		kasa.NewExpense(kasa.MustParseDate("2026-07-20"), kasa.M(7, "EUR"), "groceries", "card"),
	}
	for _, e := range seed {
		_, err := s.Create(ctx, e)
		require.NoError(t, err)
	}

	list, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, kasa.MustParseDate("2026-07-20"), list[0].Date, "chronological order")

	list, err = s.List(ctx, Filter{Category: "groceries"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.List(ctx, Filter{From: kasa.MustParseDate("2026-08-01"), To: kasa.MustParseDate("2026-08-02")})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.List(ctx, Filter{Account: "savings"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kasa.Transfer, list[0].Kind, "transfers match on destination account too")

	list, err = s.List(ctx, Filter{Expr: "$.payee"})
	require.NoError(t, err)
	assert.Empty(t, list, "no entry has a payee")
}

func TestSQLite_SchemaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kasa.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	ctx := context.Background()
	created, err := s.Create(ctx, kasa.NewExpense(kasa.MustParseDate("2026-08-10"), kasa.M(5, "EUR"), "coffee", "card"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, created.Equal(got))
}
