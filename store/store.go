// Package store defines the storage contract for the ledger engine.
package store

import (
	"context"
	"time"

	"github.com/kitchenops/ledger/account"
	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/types"
)

// Store is the persistence interface for the append-only entry log.
//
// Implementations must treat every method as a single atomic unit: an
// entry is either fully durable with its balance, or not written at
// all. Cross-method atomicity (read balance, validate, append) is the
// engine's job; Append's expected-predecessor guard is what lets the
// engine detect that it lost that race to another writer.
type Store interface {
	// Append inserts e and assigns its id. expectedPrev is the id of
	// the account's current last entry (0 for an empty account); if
	// another entry was appended in between, the store must reject the
	// insert with an error matching ledger.ErrConflict and write
	// nothing. Returns the assigned id.
	Append(ctx context.Context, e *entry.Entry, expectedPrev int64) (int64, error)

	// Last returns the most recent entry for the account (highest id),
	// or an error matching ledger.ErrNotFound when the account has no
	// entries.
	Last(ctx context.Context, accountID string) (*entry.Entry, error)

	// Get returns the entry with the given id, or an error matching
	// ledger.ErrNotFound.
	Get(ctx context.Context, entryID int64) (*entry.Entry, error)

	// List returns the account's entries ordered by id descending
	// (most recent first), bounded by opts.
	List(ctx context.Context, accountID string, opts entry.ListOpts) ([]*entry.Entry, error)

	// ListAscending returns the account's full log ordered by id
	// ascending. Used by the recalculation path.
	ListAscending(ctx context.Context, accountID string) ([]*entry.Entry, error)

	// ListBetween returns the account's entries created within
	// [start, end], ordered by id ascending.
	ListBetween(ctx context.Context, accountID string, start, end time.Time) ([]*entry.Entry, error)

	// Summary aggregates the account's log: current balance, total
	// charges, total payments, entry count. A zero Summary for an
	// account with no entries.
	Summary(ctx context.Context, accountID string) (*account.Summary, error)

	// LatestBalances returns each account's most recent balance_after,
	// ordered by balance descending. Status is left for the engine.
	LatestBalances(ctx context.Context) ([]account.Balance, error)

	// Delete removes the entry with the given id, or returns an error
	// matching ledger.ErrNotFound. Balances of later entries are NOT
	// touched; the engine rewrites them.
	Delete(ctx context.Context, entryID int64) error

	// UpdateBalance overwrites balance_after for one entry. Only the
	// recalculation path may call this; amount and kind are immutable.
	UpdateBalance(ctx context.Context, entryID int64, balanceAfter types.Money) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
