// Package postgres implements the ledger store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	ledger "github.com/kitchenops/ledger"
	"github.com/kitchenops/ledger/account"
	"github.com/kitchenops/ledger/entry"
	ledgerstore "github.com/kitchenops/ledger/store"
	"github.com/kitchenops/ledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("ledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("ledger/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts the entry guarded by the account's current last id.
// The insert and the predecessor check run as one statement, so a
// racing append from another process makes this one insert zero rows
// instead of committing on a stale balance.
func (s *Store) Append(ctx context.Context, e *entry.Entry, expectedPrev int64) (int64, error) {
	m := toEntryModel(e)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.pg.NewRaw(`
		INSERT INTO ledger_entries
			(account_id, kind, amount, currency, balance_after, reference_type, reference_id, note, created_by, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE COALESCE((SELECT MAX(id) FROM ledger_entries WHERE account_id = $1), 0) = $11
		RETURNING id
	`, m.AccountID, m.Kind, m.Amount, m.Currency, m.BalanceAfter,
		m.ReferenceType, m.ReferenceID, m.Note, m.CreatedBy, m.CreatedAt,
		expectedPrev).Scan(ctx, &id)
	if err != nil {
		if isNoRows(err) {
			return 0, ledger.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

func (s *Store) Last(ctx context.Context, accountID string) (*entry.Entry, error) {
	m := new(entryModel)
	err := s.pg.NewSelect(m).
		Where("account_id = $1", accountID).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return fromEntryModel(m), nil
}

func (s *Store) Get(ctx context.Context, entryID int64) (*entry.Entry, error) {
	m := new(entryModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", entryID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return fromEntryModel(m), nil
}

func (s *Store) List(ctx context.Context, accountID string, opts entry.ListOpts) ([]*entry.Entry, error) {
	var models []entryModel
	q := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID).
		OrderExpr("id DESC")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromEntryModels(models), nil
}

func (s *Store) ListAscending(ctx context.Context, accountID string) ([]*entry.Entry, error) {
	var models []entryModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromEntryModels(models), nil
}

func (s *Store) ListBetween(ctx context.Context, accountID string, start, end time.Time) ([]*entry.Entry, error) {
	var models []entryModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID).
		Where("created_at >= $2", start).
		Where("created_at <= $3", end).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return fromEntryModels(models), nil
}

func (s *Store) Summary(ctx context.Context, accountID string) (*account.Summary, error) {
	var (
		count    int64
		charges  int64
		payments int64
	)
	err := s.pg.NewRaw(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN kind = 'charge' THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'payment' THEN amount ELSE 0 END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID).Scan(ctx, &count, &charges, &payments)
	if err != nil {
		return nil, err
	}

	sum := &account.Summary{EntryCount: count}
	if count == 0 {
		return sum, nil
	}

	last, err := s.Last(ctx, accountID)
	if err != nil {
		return nil, err
	}
	currency := last.BalanceAfter.Currency

	sum.CurrentBalance = last.BalanceAfter
	sum.TotalCharges = types.Money{Amount: charges, Currency: currency}
	sum.TotalPayments = types.Money{Amount: payments, Currency: currency}
	return sum, nil
}

func (s *Store) LatestBalances(ctx context.Context) ([]account.Balance, error) {
	var models []entryModel
	err := s.pg.NewSelect(&models).
		Where("id IN (SELECT MAX(id) FROM ledger_entries GROUP BY account_id)").
		OrderExpr("balance_after DESC, account_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]account.Balance, len(models))
	for i := range models {
		m := &models[i]
		result[i] = account.Balance{
			AccountID: m.AccountID,
			Balance:   types.Money{Amount: m.BalanceAfter, Currency: m.Currency},
		}
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, entryID int64) error {
	res, err := s.pg.NewDelete((*entryModel)(nil)).
		Where("id = $1", entryID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateBalance(ctx context.Context, entryID int64, balanceAfter types.Money) error {
	res, err := s.pg.NewUpdate((*entryModel)(nil)).
		Set("balance_after = $1", balanceAfter.Amount).
		Where("id = $2", entryID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func fromEntryModels(models []entryModel) []*entry.Entry {
	result := make([]*entry.Entry, len(models))
	for i := range models {
		result[i] = fromEntryModel(&models[i])
	}
	return result
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
