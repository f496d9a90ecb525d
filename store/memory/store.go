// Package memory provides an in-memory Store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kitchenops/ledger"
	"github.com/kitchenops/ledger/account"
	"github.com/kitchenops/ledger/entry"
	ledgerstore "github.com/kitchenops/ledger/store"
	"github.com/kitchenops/ledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store keeps the entry log in a single ascending slice guarded by a
// mutex. Ids are assigned from a process-local counter.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	entries []entry.Entry // ascending id order
}

func New() *Store {
	return &Store{
		entries: make([]entry.Entry, 0),
	}
}

func (s *Store) Append(_ context.Context, e *entry.Entry, expectedPrev int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last int64
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == e.AccountID {
			last = s.entries[i].ID
			break
		}
	}
	if last != expectedPrev {
		return 0, ledger.ErrConflict
	}

	s.nextID++
	stored := *e
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Reference != nil {
		ref := *stored.Reference
		stored.Reference = &ref
	}
	s.entries = append(s.entries, stored)

	return stored.ID, nil
}

func (s *Store) Last(_ context.Context, accountID string) (*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			return copyEntry(&s.entries[i]), nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) Get(_ context.Context, entryID int64) (*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(entryID); i >= 0 {
		return copyEntry(&s.entries[i]), nil
	}
	return nil, ledger.ErrNotFound
}

func (s *Store) List(_ context.Context, accountID string, opts entry.ListOpts) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entry.Entry, 0)
	skipped := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID != accountID {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
		result = append(result, copyEntry(&s.entries[i]))
	}
	return result, nil
}

func (s *Store) ListAscending(_ context.Context, accountID string) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entry.Entry, 0)
	for i := range s.entries {
		if s.entries[i].AccountID == accountID {
			result = append(result, copyEntry(&s.entries[i]))
		}
	}
	return result, nil
}

func (s *Store) ListBetween(_ context.Context, accountID string, start, end time.Time) ([]*entry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entry.Entry, 0)
	for i := range s.entries {
		e := &s.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if e.CreatedAt.Before(start) || e.CreatedAt.After(end) {
			continue
		}
		result = append(result, copyEntry(e))
	}
	return result, nil
}

func (s *Store) Summary(_ context.Context, accountID string) (*account.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &account.Summary{}
	for i := range s.entries {
		e := &s.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if sum.EntryCount == 0 {
			cur := types.Zero(e.Amount.Currency)
			sum.TotalCharges = cur
			sum.TotalPayments = cur
		}
		switch e.Kind {
		case entry.KindCharge:
			sum.TotalCharges = sum.TotalCharges.Add(e.Amount)
		case entry.KindPayment:
			sum.TotalPayments = sum.TotalPayments.Add(e.Amount)
		}
		sum.CurrentBalance = e.BalanceAfter
		sum.EntryCount++
	}
	return sum, nil
}

func (s *Store) LatestBalances(_ context.Context) ([]account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]types.Money)
	for i := range s.entries {
		latest[s.entries[i].AccountID] = s.entries[i].BalanceAfter
	}

	result := make([]account.Balance, 0, len(latest))
	for accountID, balance := range latest {
		result = append(result, account.Balance{AccountID: accountID, Balance: balance})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Balance.Amount != result[j].Balance.Amount {
			return result[i].Balance.Amount > result[j].Balance.Amount
		}
		return result[i].AccountID < result[j].AccountID
	})
	return result, nil
}

func (s *Store) Delete(_ context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(entryID)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

func (s *Store) UpdateBalance(_ context.Context, entryID int64, balanceAfter types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(entryID)
	if i < 0 {
		return ledger.ErrNotFound
	}
	s.entries[i].BalanceAfter = balanceAfter
	return nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// indexOf returns the slice index of entryID, or -1. Entries are kept
// in ascending id order so a binary search suffices.
func (s *Store) indexOf(entryID int64) int {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].ID >= entryID
	})
	if i < len(s.entries) && s.entries[i].ID == entryID {
		return i
	}
	return -1
}

func copyEntry(e *entry.Entry) *entry.Entry {
	c := *e
	if e.Reference != nil {
		ref := *e.Reference
		c.Reference = &ref
	}
	return &c
}
