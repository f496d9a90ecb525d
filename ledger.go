package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kitchenops/ledger/account"
	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/plugin"
	"github.com/kitchenops/ledger/store"
	"github.com/kitchenops/ledger/types"
)

// OverpaymentPolicy controls what happens when a payment exceeds the
// outstanding balance.
type OverpaymentPolicy string

const (
	// OverpaymentClamp records the payment reduced to the outstanding
	// balance, so the balance lands exactly on zero. The default.
	OverpaymentClamp OverpaymentPolicy = "clamp"
	// OverpaymentReject refuses the payment outright.
	OverpaymentReject OverpaymentPolicy = "reject"
	// OverpaymentAllowNegative records the full payment and lets the
	// balance go negative (an advance held on the account).
	OverpaymentAllowNegative OverpaymentPolicy = "allow_negative"
)

// Ledger is the credit ledger engine. All postings for one account are
// serialized through a per-account lock, so balance reads inside the
// posting pipeline are never stale.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Per-account posting locks
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Background event dispatch
	events   chan func()
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	currency        string
	creditLimit     types.Money
	warnFraction    float64
	overpayment     OverpaymentPolicy
	lockWait        time.Duration
	eventBufferSize int
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		locks:           make(map[string]*sync.Mutex),
		stopChan:        make(chan struct{}),
		currency:        "bdt",
		creditLimit:     types.BDT(500000), // ৳5000.00
		warnFraction:    0.7,
		overpayment:     OverpaymentClamp,
		lockWait:        5 * time.Second,
		eventBufferSize: 1024,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.events = make(chan func(), l.eventBufferSize)

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCurrency sets the ledger currency. Every posted amount must
// carry this currency.
func WithCurrency(currency string) Option {
	return func(l *Ledger) {
		m := types.Zero(currency)
		l.currency = m.Currency
		if l.creditLimit.Currency != l.currency {
			l.creditLimit = types.Money{Amount: l.creditLimit.Amount, Currency: l.currency}
		}
	}
}

// WithCreditLimit sets the ceiling a balance may reach through charges.
func WithCreditLimit(limit types.Money) Option {
	return func(l *Ledger) {
		l.creditLimit = limit
		l.currency = limit.Currency
	}
}

// WithWarningThreshold sets the fraction of the credit limit at which
// a balance classifies as critical instead of warning.
func WithWarningThreshold(fraction float64) Option {
	return func(l *Ledger) {
		if fraction > 0 && fraction <= 1 {
			l.warnFraction = fraction
		}
	}
}

// WithOverpaymentPolicy sets the overpayment handling policy.
func WithOverpaymentPolicy(p OverpaymentPolicy) Option {
	return func(l *Ledger) {
		l.overpayment = p
	}
}

// WithLockWait bounds how long a posting waits out store-level append
// conflicts before giving up with ErrConflict.
func WithLockWait(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.lockWait = d
		}
	}
}

// WithEventBufferSize sizes the post-commit event queue. When the
// queue is full, events are dispatched synchronously instead of dropped.
func WithEventBufferSize(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.eventBufferSize = n
		}
	}
}

// Start migrates the store, initializes plugins and begins the event
// dispatch worker.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.wg.Add(1)
	go l.eventDispatchWorker()

	l.logger.Info("ledger started",
		"currency", l.currency,
		"credit_limit", l.creditLimit.FormatMajor(),
		"overpayment_policy", l.overpayment,
	)

	return nil
}

// Stop drains the event queue and shuts down the Ledger.
func (l *Ledger) Stop() error {
	close(l.stopChan)
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Currency returns the ledger's configured currency code.
func (l *Ledger) Currency() string { return l.currency }

// CreditLimit returns the configured credit limit.
func (l *Ledger) CreditLimit() types.Money { return l.creditLimit }

// ──────────────────────────────────────────────────
// Posting
// ──────────────────────────────────────────────────

// PostOption attaches optional metadata to a posting.
type PostOption func(*entry.Entry)

// WithReference links the entry to the external record that caused it.
func WithReference(refType, refID string) PostOption {
	return func(e *entry.Entry) {
		e.Reference = &entry.Reference{Type: refType, ID: refID}
	}
}

// WithNote attaches a free-form note to the entry.
func WithNote(note string) PostOption {
	return func(e *entry.Entry) {
		e.Note = note
	}
}

// WithActor records who posted the entry.
func WithActor(actor string) PostOption {
	return func(e *entry.Entry) {
		e.CreatedBy = actor
	}
}

// PostCharge appends a charge to the account's log and returns the
// committed entry with its assigned id and running balance.
//
// The charge is rejected with a *CreditLimitError when it would push
// the balance over the configured credit limit; nothing is written in
// that case.
func (l *Ledger) PostCharge(ctx context.Context, accountID string, amount types.Money, opts ...PostOption) (*entry.Entry, error) {
	if err := l.validatePosting(accountID, amount); err != nil {
		return nil, err
	}

	unlock := l.lockAccount(accountID)
	defer unlock()

	e := l.newEntry(accountID, entry.KindCharge, amount, opts)

	committed, err := l.appendWithRetry(ctx, e, func(current types.Money) (types.Money, error) {
		next := current.Add(amount)
		if next.GreaterThan(l.creditLimit) {
			cle := &CreditLimitError{
				AccountID:  accountID,
				Current:    current,
				Attempted:  amount,
				NewBalance: next,
				Limit:      l.creditLimit,
			}
			l.dispatch(ctx, func(evctx context.Context) {
				l.plugins.EmitCreditLimitExceeded(evctx, accountID, cle.Current, cle.Attempted, cle.Limit)
			})
			return types.Money{}, cle
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("charge posted",
		"account_id", accountID,
		"entry_id", committed.ID,
		"amount", amount.FormatMajor(),
		"balance", committed.BalanceAfter.FormatMajor(),
	)

	snapshot := *committed
	l.dispatch(ctx, func(evctx context.Context) {
		l.plugins.EmitChargePosted(evctx, &snapshot)
		l.plugins.EmitBalanceChanged(evctx, accountID, string(entry.KindCharge), snapshot.Amount, snapshot.BalanceAfter)
	})

	return committed, nil
}

// PostPayment appends a payment to the account's log.
//
// Overpayment handling follows the configured policy. Under the
// default clamp policy a payment larger than the outstanding balance
// is recorded at the outstanding balance, landing exactly on zero; a
// payment against an account that owes nothing is rejected with
// ErrNothingOwed because there is nothing to clamp to.
func (l *Ledger) PostPayment(ctx context.Context, accountID string, amount types.Money, opts ...PostOption) (*entry.Entry, error) {
	if err := l.validatePosting(accountID, amount); err != nil {
		return nil, err
	}

	unlock := l.lockAccount(accountID)
	defer unlock()

	e := l.newEntry(accountID, entry.KindPayment, amount, opts)
	requested := amount
	clamped := false

	committed, err := l.appendWithRetry(ctx, e, func(current types.Money) (types.Money, error) {
		recorded := requested
		clamped = false

		switch l.overpayment {
		case OverpaymentReject:
			if requested.GreaterThan(current) {
				return types.Money{}, &OverpaymentError{
					AccountID: accountID,
					Current:   current,
					Attempted: requested,
				}
			}
		case OverpaymentAllowNegative:
			// record the full payment
		default: // OverpaymentClamp
			if !current.IsPositive() {
				return types.Money{}, ErrNothingOwed
			}
			if requested.GreaterThan(current) {
				recorded = current
				clamped = true
			}
		}

		e.Amount = recorded
		return current.Subtract(recorded), nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("payment posted",
		"account_id", accountID,
		"entry_id", committed.ID,
		"amount", committed.Amount.FormatMajor(),
		"clamped", clamped,
		"balance", committed.BalanceAfter.FormatMajor(),
	)

	snapshot := *committed
	wasClamped := clamped
	l.dispatch(ctx, func(evctx context.Context) {
		l.plugins.EmitPaymentPosted(evctx, &snapshot)
		if wasClamped {
			l.plugins.EmitPaymentClamped(evctx, accountID, requested, snapshot.Amount)
		}
		l.plugins.EmitBalanceChanged(evctx, accountID, string(entry.KindPayment), snapshot.Amount, snapshot.BalanceAfter)
	})

	return committed, nil
}

// validatePosting applies the input rules shared by both posting kinds.
func (l *Ledger) validatePosting(accountID string, amount types.Money) error {
	if accountID == "" {
		return ValidationError{Field: "account_id", Message: "must not be empty"}
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Currency != l.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func (l *Ledger) newEntry(accountID string, kind entry.Kind, amount types.Money, opts []PostOption) *entry.Entry {
	e := &entry.Entry{
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// appendWithRetry runs the read-validate-append cycle until the store
// accepts the entry or the lock wait expires. decide receives the
// account's current balance and returns the balance the entry lands
// on, or the rejection error.
//
// The in-process account lock already serializes postings within this
// engine; the retry loop covers appends racing with other processes
// sharing the store.
func (l *Ledger) appendWithRetry(ctx context.Context, e *entry.Entry, decide func(current types.Money) (types.Money, error)) (*entry.Entry, error) {
	deadline := time.Now().Add(l.lockWait)

	for {
		var prev int64
		current := types.Zero(l.currency)

		last, err := l.store.Last(ctx, e.AccountID)
		switch {
		case err == nil:
			prev = last.ID
			current = last.BalanceAfter
		case errors.Is(err, ErrNotFound):
			// first entry for the account
		default:
			return nil, err
		}

		next, err := decide(current)
		if err != nil {
			return nil, err
		}
		e.BalanceAfter = next

		id, err := l.store.Append(ctx, e, prev)
		if err == nil {
			e.ID = id
			return e, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrConflict
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Balance returns the account's current balance. An account with no
// entries owes zero.
func (l *Ledger) Balance(ctx context.Context, accountID string) (types.Money, error) {
	last, err := l.store.Last(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.Zero(l.currency), nil
		}
		return types.Money{}, err
	}
	return last.BalanceAfter, nil
}

// History returns the account's entries, most recent first.
func (l *Ledger) History(ctx context.Context, accountID string, opts entry.ListOpts) ([]*entry.Entry, error) {
	return l.store.List(ctx, accountID, opts)
}

// GetEntry returns a single entry by id.
func (l *Ledger) GetEntry(ctx context.Context, entryID int64) (*entry.Entry, error) {
	return l.store.Get(ctx, entryID)
}

// Summary aggregates the account's full log.
func (l *Ledger) Summary(ctx context.Context, accountID string) (*account.Summary, error) {
	sum, err := l.store.Summary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sum.EntryCount == 0 {
		zero := types.Zero(l.currency)
		sum.CurrentBalance = zero
		sum.TotalCharges = zero
		sum.TotalPayments = zero
	}
	return sum, nil
}

// BalanceStatus classifies a balance against the configured credit
// limit and warning threshold.
func (l *Ledger) BalanceStatus(balance types.Money) account.Status {
	return account.StatusOf(balance, l.creditLimit, l.warnFraction)
}

// AccountsWithBalance returns every account's latest balance with its
// status, highest balance first. With statuses given, only accounts in
// one of those statuses are returned.
func (l *Ledger) AccountsWithBalance(ctx context.Context, statuses ...account.Status) ([]account.Balance, error) {
	balances, err := l.store.LatestBalances(ctx)
	if err != nil {
		return nil, err
	}

	result := balances[:0]
	for _, b := range balances {
		b.Status = l.BalanceStatus(b.Balance)
		if len(statuses) > 0 && !containsStatus(statuses, b.Status) {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func containsStatus(statuses []account.Status, s account.Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Statement is one account's activity within a calendar month.
type Statement struct {
	AccountID      string         `json:"account_id"`
	Year           int            `json:"year"`
	Month          time.Month     `json:"month"`
	OpeningBalance types.Money    `json:"opening_balance"`
	ClosingBalance types.Money    `json:"closing_balance"`
	TotalCharges   types.Money    `json:"total_charges"`
	TotalPayments  types.Money    `json:"total_payments"`
	Entries        []*entry.Entry `json:"entries"`
}

// MonthlyStatement returns the account's entries for one calendar
// month with opening and closing balances. Months are evaluated in UTC.
func (l *Ledger) MonthlyStatement(ctx context.Context, accountID string, year int, month time.Month) (*Statement, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	entries, err := l.store.ListBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}

	st := &Statement{
		AccountID:      accountID,
		Year:           year,
		Month:          month,
		OpeningBalance: types.Zero(l.currency),
		ClosingBalance: types.Zero(l.currency),
		TotalCharges:   types.Zero(l.currency),
		TotalPayments:  types.Zero(l.currency),
		Entries:        entries,
	}

	for _, e := range entries {
		switch e.Kind {
		case entry.KindCharge:
			st.TotalCharges = st.TotalCharges.Add(e.Amount)
		case entry.KindPayment:
			st.TotalPayments = st.TotalPayments.Add(e.Amount)
		}
	}

	if len(entries) > 0 {
		first := entries[0]
		st.OpeningBalance = first.BalanceAfter.Subtract(first.Signed())
		st.ClosingBalance = entries[len(entries)-1].BalanceAfter
	}

	return st, nil
}

// ──────────────────────────────────────────────────
// Corrections
// ──────────────────────────────────────────────────

// DeleteEntry removes an entry and replays the account's remaining log
// in order, rewriting every running balance the deletion invalidated.
// The account's posting lock is held for the whole delete-and-replay,
// so no posting ever observes a partially rewritten log.
func (l *Ledger) DeleteEntry(ctx context.Context, entryID int64, actor string) error {
	e, err := l.store.Get(ctx, entryID)
	if err != nil {
		return err
	}

	unlock := l.lockAccount(e.AccountID)
	defer unlock()

	// Re-read under the lock; the entry may have been deleted already.
	e, err = l.store.Get(ctx, entryID)
	if err != nil {
		return err
	}

	if err := l.store.Delete(ctx, entryID); err != nil {
		return err
	}

	count, elapsed, err := l.recalculateLocked(ctx, e.AccountID)
	if err != nil {
		return err
	}

	l.logger.Info("entry deleted",
		"account_id", e.AccountID,
		"entry_id", entryID,
		"actor", actor,
		"rewritten", count,
	)

	snapshot := *e
	accountID := e.AccountID
	l.dispatch(ctx, func(evctx context.Context) {
		l.plugins.EmitEntryDeleted(evctx, &snapshot, actor)
		l.plugins.EmitBalancesRecalculated(evctx, accountID, count, elapsed)
	})

	return nil
}

// Recalculate replays the account's full log and rewrites any running
// balance that disagrees with the replay. It is a repair path for logs
// damaged outside the engine; a healthy log is a no-op. Returns the
// number of entries replayed.
func (l *Ledger) Recalculate(ctx context.Context, accountID string) (int, error) {
	unlock := l.lockAccount(accountID)
	defer unlock()

	count, elapsed, err := l.recalculateLocked(ctx, accountID)
	if err != nil {
		return 0, err
	}

	l.dispatch(ctx, func(evctx context.Context) {
		l.plugins.EmitBalancesRecalculated(evctx, accountID, count, elapsed)
	})

	return count, nil
}

// recalculateLocked replays the log ascending and rewrites stale
// balances row by row. Caller must hold the account lock.
func (l *Ledger) recalculateLocked(ctx context.Context, accountID string) (int, time.Duration, error) {
	start := time.Now()

	entries, err := l.store.ListAscending(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}

	running := types.Zero(l.currency)
	for _, e := range entries {
		running = running.Add(e.Signed())
		if !e.BalanceAfter.Equal(running) {
			if err := l.store.UpdateBalance(ctx, e.ID, running); err != nil {
				return 0, 0, err
			}
		}
	}

	return len(entries), time.Since(start), nil
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// lockAccount acquires the account's posting lock, creating it on
// first use. Locks are never removed; the map grows with the set of
// accounts ever touched, which stays small in practice.
func (l *Ledger) lockAccount(accountID string) (unlock func()) {
	l.locksMu.Lock()
	mu, ok := l.locks[accountID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[accountID] = mu
	}
	l.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// dispatch queues a post-commit event for the background worker. When
// the queue is full or the worker is stopped, the event runs inline so
// it is never dropped.
func (l *Ledger) dispatch(ctx context.Context, fn func(context.Context)) {
	evctx := context.WithoutCancel(ctx)
	wrapped := func() { fn(evctx) }

	select {
	case l.events <- wrapped:
	default:
		wrapped()
	}
}

// eventDispatchWorker runs queued post-commit events in order. On
// shutdown the queue is drained before the worker exits.
func (l *Ledger) eventDispatchWorker() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case fn := <-l.events:
					fn()
				default:
					return
				}
			}
		case fn := <-l.events:
			fn()
		}
	}
}
