package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kasaledger/kasa"
	"github.com/kasaledger/kasa/mutate"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// SQLite is a Repository over a local SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite creates a new SQLite store at the given path. The schema is
// automatically created if it doesn't exist, and parent directories are
// created if needed.
func OpenSQLite(path string) (*SQLite, error) {
	logger := slog.Default().With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, storageErr("creating database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("opening database", err)
	}

	// WAL mode for better concurrent performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storageErr("enabling WAL mode", err)
	}

	s := &SQLite{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("database ready", "path", path)
	return s, nil
}

func (s *SQLite) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		date       TEXT NOT NULL,
		amount     TEXT NOT NULL,
		currency   TEXT NOT NULL DEFAULT '',
		category   TEXT NOT NULL DEFAULT '',
		account    TEXT NOT NULL DEFAULT '',
		to_account TEXT NOT NULL DEFAULT '',
		payee      TEXT NOT NULL DEFAULT '',
		memo       TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
	CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return storageErr("creating schema", err)
	}
	return nil
}

func (s *SQLite) Create(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	if e.ID == "" || mutate.IsTempID(e.ID) {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, kind, date, amount, currency, category, account, to_account, payee, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Date.String(), e.Amount.Decimal().String(), e.Amount.Currency(),
		e.Category, e.Account, e.ToAccount, e.Payee, e.Memo)
	if err != nil {
		return kasa.Entry{}, storageErr(fmt.Sprintf("creating entry %q", e.ID), err)
	}
	return e, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (kasa.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, date, amount, currency, category, account, to_account, payee, memo
		FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return kasa.Entry{}, notFoundErr(id)
	}
	if err != nil {
		return kasa.Entry{}, storageErr(fmt.Sprintf("reading entry %q", id), err)
	}
	return e, nil
}

func (s *SQLite) Update(ctx context.Context, e kasa.Entry) (kasa.Entry, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET kind=?, date=?, amount=?, currency=?, category=?, account=?, to_account=?, payee=?, memo=?
		WHERE id=?`,
		string(e.Kind), e.Date.String(), e.Amount.Decimal().String(), e.Amount.Currency(),
		e.Category, e.Account, e.ToAccount, e.Payee, e.Memo, e.ID)
	if err != nil {
		return kasa.Entry{}, storageErr(fmt.Sprintf("updating entry %q", e.ID), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return kasa.Entry{}, notFoundErr(e.ID)
	}
	return e, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return storageErr(fmt.Sprintf("deleting entry %q", id), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFoundErr(id)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, f Filter) ([]kasa.Entry, error) {
	var conds []string
	var args []any
	if f.Account != "" {
		conds = append(conds, "(account = ? OR to_account = ?)")
		args = append(args, f.Account, f.Account)
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	query := `SELECT id, kind, date, amount, currency, category, account, to_account, payee, memo FROM entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("listing entries", err)
	}
	defer rows.Close()

	var out []kasa.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, storageErr("scanning entry", err)
		}
		// the JSONPath expression cannot be pushed down to SQL.
		if f.Expr != "" {
			ok, err := f.Matches(e)
			if err != nil {
				return nil, storageErr("could not apply filter", err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("listing entries", err)
	}
	return out, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func scanEntry(scan func(dest ...any) error) (kasa.Entry, error) {
	var id, kind, day, amount, currency, category, account, toAccount, payee, memo string
	if err := scan(&id, &kind, &day, &amount, &currency, &category, &account, &toAccount, &payee, &memo); err != nil {
		return kasa.Entry{}, err
	}
	d, err := kasa.ParseDate(day)
	if err != nil {
		return kasa.Entry{}, err
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return kasa.Entry{}, fmt.Errorf("invalid amount %q for entry %q: %w", amount, id, err)
	}
	return kasa.Entry{
		ID:        id,
		Kind:      kasa.Kind(kind),
		Date:      d,
		Amount:    kasa.M(dec, currency),
		Category:  category,
		Account:   account,
		ToAccount: toAccount,
		Payee:     payee,
		Memo:      memo,
	}, nil
}
