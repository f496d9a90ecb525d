package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kitchenops/ledger"
	"github.com/kitchenops/ledger/account"
	"github.com/kitchenops/ledger/entry"
	"github.com/kitchenops/ledger/store/memory"
	"github.com/kitchenops/ledger/types"
)

func newTestLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()

	l := ledger.New(memory.New(), opts...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := l.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return l
}

func TestPostCharge(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	e, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(50000),
		ledger.WithReference(entry.RefOrder, "pos-1881"),
		ledger.WithNote("lunch"),
		ledger.WithActor("cashier-3"),
	)
	if err != nil {
		t.Fatalf("PostCharge: %v", err)
	}

	if e.ID != 1 {
		t.Errorf("ID: got %d, want 1", e.ID)
	}
	if !e.BalanceAfter.Equal(ledger.BDT(50000)) {
		t.Errorf("BalanceAfter: got %v, want %v", e.BalanceAfter, ledger.BDT(50000))
	}
	if e.Reference == nil || e.Reference.Type != entry.RefOrder || e.Reference.ID != "pos-1881" {
		t.Errorf("Reference: got %+v", e.Reference)
	}
	if e.CreatedBy != "cashier-3" {
		t.Errorf("CreatedBy: got %q", e.CreatedBy)
	}

	balance, err := l.Balance(ctx, "trainee-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.Equal(ledger.BDT(50000)) {
		t.Errorf("Balance: got %v, want %v", balance, ledger.BDT(50000))
	}
}

func TestPostPayment(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(50000)); err != nil {
		t.Fatalf("PostCharge: %v", err)
	}

	e, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(20000))
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	if !e.BalanceAfter.Equal(ledger.BDT(30000)) {
		t.Errorf("BalanceAfter: got %v, want %v", e.BalanceAfter, ledger.BDT(30000))
	}
}

func TestPostPaymentClampsOverpayment(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(30000)); err != nil {
		t.Fatalf("PostCharge: %v", err)
	}

	// Pay 1000.00 against an outstanding 300.00; only 300.00 is recorded.
	e, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(100000))
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	if !e.Amount.Equal(ledger.BDT(30000)) {
		t.Errorf("recorded amount: got %v, want %v", e.Amount, ledger.BDT(30000))
	}
	if !e.BalanceAfter.IsZero() {
		t.Errorf("BalanceAfter: got %v, want zero", e.BalanceAfter)
	}
}

func TestPostPaymentNothingOwed(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	// Fresh account owes nothing; a clamp would record a zero amount.
	_, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(10000))
	if !errors.Is(err, ledger.ErrNothingOwed) {
		t.Fatalf("expected ErrNothingOwed, got %v", err)
	}

	// Same after paying down to exactly zero.
	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(10000)); err != nil {
		t.Fatalf("PostCharge: %v", err)
	}
	if _, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(10000)); err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	_, err = l.PostPayment(ctx, "trainee-1", ledger.BDT(1))
	if !errors.Is(err, ledger.ErrNothingOwed) {
		t.Fatalf("expected ErrNothingOwed, got %v", err)
	}
}

func TestOverpaymentReject(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, ledger.WithOverpaymentPolicy(ledger.OverpaymentReject))

	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(30000)); err != nil {
		t.Fatalf("PostCharge: %v", err)
	}

	_, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(100000))
	if !errors.Is(err, ledger.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	var ope *ledger.OverpaymentError
	if !errors.As(err, &ope) {
		t.Fatalf("expected *OverpaymentError, got %T", err)
	}
	if !ope.Current.Equal(ledger.BDT(30000)) || !ope.Attempted.Equal(ledger.BDT(100000)) {
		t.Errorf("error figures: %+v", ope)
	}

	// An exact payment still goes through.
	e, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(30000))
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	if !e.BalanceAfter.IsZero() {
		t.Errorf("BalanceAfter: got %v, want zero", e.BalanceAfter)
	}
}

func TestOverpaymentAllowNegative(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, ledger.WithOverpaymentPolicy(ledger.OverpaymentAllowNegative))

	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(30000)); err != nil {
		t.Fatalf("PostCharge: %v", err)
	}

	e, err := l.PostPayment(ctx, "trainee-1", ledger.BDT(100000))
	if err != nil {
		t.Fatalf("PostPayment: %v", err)
	}
	if !e.Amount.Equal(ledger.BDT(100000)) {
		t.Errorf("recorded amount: got %v, want full payment", e.Amount)
	}
	if !e.BalanceAfter.Equal(ledger.BDT(-70000)) {
		t.Errorf("BalanceAfter: got %v, want %v", e.BalanceAfter, ledger.BDT(-70000))
	}

	// The advance classifies as ok.
	if got := l.BalanceStatus(e.BalanceAfter); got != account.StatusOk {
		t.Errorf("status: got %v, want ok", got)
	}
}

func TestCreditLimitRejection(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t) // default limit ৳5000.00

	// One poisha over the limit on a fresh account.
	_, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(500001))
	if !errors.Is(err, ledger.ErrCreditLimitExceeded) {
		t.Fatalf("expected ErrCreditLimitExceeded, got %v", err)
	}

	var cle *ledger.CreditLimitError
	if !errors.As(err, &cle) {
		t.Fatalf("expected *CreditLimitError, got %T", err)
	}
	if !cle.Current.IsZero() {
		t.Errorf("Current: got %v, want zero", cle.Current)
	}
	if !cle.Attempted.Equal(ledger.BDT(500001)) {
		t.Errorf("Attempted: got %v", cle.Attempted)
	}
	if !cle.NewBalance.Equal(ledger.BDT(500001)) {
		t.Errorf("NewBalance: got %v", cle.NewBalance)
	}
	if !cle.Limit.Equal(ledger.BDT(500000)) {
		t.Errorf("Limit: got %v", cle.Limit)
	}

	// Nothing was written.
	hist, err := l.History(ctx, "trainee-1", entry.ListOpts{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 0 {
		t.Errorf("expected empty history after rejection, got %d entries", len(hist))
	}

	// Landing exactly on the limit is allowed.
	e, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(500000))
	if err != nil {
		t.Fatalf("PostCharge at limit: %v", err)
	}
	if !e.BalanceAfter.Equal(ledger.BDT(500000)) {
		t.Errorf("BalanceAfter: got %v", e.BalanceAfter)
	}

	// And the next poisha is rejected.
	if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(1)); !errors.Is(err, ledger.ErrCreditLimitExceeded) {
		t.Fatalf("expected ErrCreditLimitExceeded, got %v", err)
	}
}

func TestPostingValidation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tests := []struct {
		name      string
		accountID string
		amount    types.Money
		wantErr   error
	}{
		{"zero amount", "trainee-1", ledger.BDT(0), ledger.ErrInvalidAmount},
		{"negative amount", "trainee-1", ledger.BDT(-100), ledger.ErrInvalidAmount},
		{"wrong currency", "trainee-1", ledger.USD(100), ledger.ErrCurrencyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.PostCharge(ctx, tt.accountID, tt.amount); !errors.Is(err, tt.wantErr) {
				t.Errorf("PostCharge: got %v, want %v", err, tt.wantErr)
			}
			if _, err := l.PostPayment(ctx, tt.accountID, tt.amount); !errors.Is(err, tt.wantErr) {
				t.Errorf("PostPayment: got %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("empty account id", func(t *testing.T) {
		_, err := l.PostCharge(ctx, "", ledger.BDT(100))
		var ve ledger.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})
}

func TestDeleteEntryRecalculates(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	// charge 500 -> 500, payment 200 -> 300, charge 300 -> 600
	c1, _ := l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
	p1, _ := l.PostPayment(ctx, "trainee-1", ledger.BDT(20000))
	c2, _ := l.PostCharge(ctx, "trainee-1", ledger.BDT(30000))
	if c1 == nil || p1 == nil || c2 == nil {
		t.Fatal("setup postings failed")
	}
	if !c2.BalanceAfter.Equal(ledger.BDT(60000)) {
		t.Fatalf("setup balance: got %v", c2.BalanceAfter)
	}

	// Remove the middle payment; later balances must be rewritten.
	if err := l.DeleteEntry(ctx, p1.ID, "manager-1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	hist, err := l.History(ctx, "trainee-1", entry.ListOpts{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hist))
	}

	// History is most recent first.
	if !hist[0].BalanceAfter.Equal(ledger.BDT(80000)) {
		t.Errorf("rewritten balance: got %v, want %v", hist[0].BalanceAfter, ledger.BDT(80000))
	}
	if !hist[1].BalanceAfter.Equal(ledger.BDT(50000)) {
		t.Errorf("untouched balance: got %v, want %v", hist[1].BalanceAfter, ledger.BDT(50000))
	}

	balance, err := l.Balance(ctx, "trainee-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.Equal(ledger.BDT(80000)) {
		t.Errorf("Balance: got %v, want %v", balance, ledger.BDT(80000))
	}

	// Deleting again reports not found.
	if err := l.DeleteEntry(ctx, p1.ID, "manager-1"); !ledger.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteLastEntry(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	c1, _ := l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
	if err := l.DeleteEntry(ctx, c1.ID, "manager-1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	balance, err := l.Balance(ctx, "trainee-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("Balance: got %v, want zero", balance)
	}
}

func TestRecalculateRepairsCorruptedBalances(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	l := ledger.New(st)
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
	e2, _ := l.PostCharge(ctx, "trainee-1", ledger.BDT(10000))

	// Corrupt a running balance behind the engine's back.
	if err := st.UpdateBalance(ctx, e2.ID, ledger.BDT(99999)); err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}

	n, err := l.Recalculate(ctx, "trainee-1")
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if n != 2 {
		t.Errorf("replayed entries: got %d, want 2", n)
	}

	balance, _ := l.Balance(ctx, "trainee-1")
	if !balance.Equal(ledger.BDT(60000)) {
		t.Errorf("Balance after repair: got %v, want %v", balance, ledger.BDT(60000))
	}
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	for i := 1; i <= 5; i++ {
		if _, err := l.PostCharge(ctx, "trainee-1", ledger.BDT(int64(i*100))); err != nil {
			t.Fatalf("PostCharge %d: %v", i, err)
		}
	}

	page, err := l.History(ctx, "trainee-1", entry.ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	// Most recent first, offset skips the newest.
	if page[0].ID != 4 || page[1].ID != 3 {
		t.Errorf("page ids: got [%d %d], want [4 3]", page[0].ID, page[1].ID)
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	t.Run("empty account", func(t *testing.T) {
		sum, err := l.Summary(ctx, "nobody")
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if sum.EntryCount != 0 {
			t.Errorf("EntryCount: got %d", sum.EntryCount)
		}
		if !sum.CurrentBalance.Equal(ledger.Zero("bdt")) {
			t.Errorf("CurrentBalance: got %v", sum.CurrentBalance)
		}
	})

	t.Run("active account", func(t *testing.T) {
		l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
		l.PostCharge(ctx, "trainee-1", ledger.BDT(30000))
		l.PostPayment(ctx, "trainee-1", ledger.BDT(20000))

		sum, err := l.Summary(ctx, "trainee-1")
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if sum.EntryCount != 3 {
			t.Errorf("EntryCount: got %d, want 3", sum.EntryCount)
		}
		if !sum.TotalCharges.Equal(ledger.BDT(80000)) {
			t.Errorf("TotalCharges: got %v", sum.TotalCharges)
		}
		if !sum.TotalPayments.Equal(ledger.BDT(20000)) {
			t.Errorf("TotalPayments: got %v", sum.TotalPayments)
		}
		if !sum.CurrentBalance.Equal(ledger.BDT(60000)) {
			t.Errorf("CurrentBalance: got %v", sum.CurrentBalance)
		}
	})
}

func TestMonthlyStatement(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
	l.PostPayment(ctx, "trainee-1", ledger.BDT(20000))

	now := time.Now().UTC()
	st, err := l.MonthlyStatement(ctx, "trainee-1", now.Year(), now.Month())
	if err != nil {
		t.Fatalf("MonthlyStatement: %v", err)
	}

	if len(st.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(st.Entries))
	}
	if !st.OpeningBalance.IsZero() {
		t.Errorf("OpeningBalance: got %v, want zero", st.OpeningBalance)
	}
	if !st.ClosingBalance.Equal(ledger.BDT(30000)) {
		t.Errorf("ClosingBalance: got %v", st.ClosingBalance)
	}
	if !st.TotalCharges.Equal(ledger.BDT(50000)) {
		t.Errorf("TotalCharges: got %v", st.TotalCharges)
	}
	if !st.TotalPayments.Equal(ledger.BDT(20000)) {
		t.Errorf("TotalPayments: got %v", st.TotalPayments)
	}

	// A month with no activity is an empty statement, not an error.
	empty, err := l.MonthlyStatement(ctx, "trainee-1", 2020, time.January)
	if err != nil {
		t.Fatalf("MonthlyStatement: %v", err)
	}
	if len(empty.Entries) != 0 {
		t.Errorf("expected empty statement, got %d entries", len(empty.Entries))
	}
}

func TestBalanceStatus(t *testing.T) {
	l := newTestLedger(t) // limit ৳5000.00, warning at 70%

	tests := []struct {
		name    string
		balance types.Money
		want    account.Status
	}{
		{"zero", ledger.BDT(0), account.StatusOk},
		{"negative advance", ledger.BDT(-10000), account.StatusOk},
		{"small balance", ledger.BDT(10000), account.StatusWarning},
		{"just under threshold", ledger.BDT(349999), account.StatusWarning},
		{"at threshold", ledger.BDT(350000), account.StatusCritical},
		{"at limit", ledger.BDT(500000), account.StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.BalanceStatus(tt.balance); got != tt.want {
				t.Errorf("BalanceStatus(%v): got %v, want %v", tt.balance, got, tt.want)
			}
		})
	}
}

func TestAccountsWithBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	l.PostCharge(ctx, "trainee-a", ledger.BDT(400000)) // critical
	l.PostCharge(ctx, "trainee-b", ledger.BDT(10000))  // warning
	l.PostCharge(ctx, "trainee-c", ledger.BDT(10000))
	l.PostPayment(ctx, "trainee-c", ledger.BDT(10000)) // ok, zero

	all, err := l.AccountsWithBalance(ctx)
	if err != nil {
		t.Fatalf("AccountsWithBalance: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(all))
	}
	// Highest balance first.
	if all[0].AccountID != "trainee-a" || all[0].Status != account.StatusCritical {
		t.Errorf("first: %+v", all[0])
	}

	critical, err := l.AccountsWithBalance(ctx, account.StatusCritical)
	if err != nil {
		t.Fatalf("AccountsWithBalance filtered: %v", err)
	}
	if len(critical) != 1 || critical[0].AccountID != "trainee-a" {
		t.Errorf("critical filter: %+v", critical)
	}

	owing, err := l.AccountsWithBalance(ctx, account.StatusWarning, account.StatusCritical)
	if err != nil {
		t.Fatalf("AccountsWithBalance filtered: %v", err)
	}
	if len(owing) != 2 {
		t.Errorf("owing filter: got %d accounts", len(owing))
	}
}

func TestConcurrentPostings(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, ledger.WithCreditLimit(ledger.BDT(100000000)))

	const (
		accounts = 4
		perAcct  = 25
	)

	var wg sync.WaitGroup
	for a := 0; a < accounts; a++ {
		accountID := fmt.Sprintf("trainee-%d", a)
		for i := 0; i < perAcct; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := l.PostCharge(ctx, accountID, ledger.BDT(100)); err != nil {
					t.Errorf("PostCharge(%s): %v", accountID, err)
				}
			}()
		}
	}
	wg.Wait()

	for a := 0; a < accounts; a++ {
		accountID := fmt.Sprintf("trainee-%d", a)
		balance, err := l.Balance(ctx, accountID)
		if err != nil {
			t.Fatalf("Balance(%s): %v", accountID, err)
		}
		if !balance.Equal(ledger.BDT(perAcct * 100)) {
			t.Errorf("Balance(%s): got %v, want %v", accountID, balance, ledger.BDT(perAcct*100))
		}

		// Replaying the log reproduces every stored balance.
		hist, err := l.History(ctx, accountID, entry.ListOpts{})
		if err != nil {
			t.Fatalf("History(%s): %v", accountID, err)
		}
		running := ledger.Zero("bdt")
		for i := len(hist) - 1; i >= 0; i-- {
			running = running.Add(hist[i].Signed())
			if !hist[i].BalanceAfter.Equal(running) {
				t.Fatalf("entry %d: stored balance %v, replay %v", hist[i].ID, hist[i].BalanceAfter, running)
			}
		}
	}
}

// capturingPlugin records the hooks it sees.
type capturingPlugin struct {
	mu       sync.Mutex
	charges  int
	payments int
	clamps   int
	rejects  int
	deletes  int
	recalcs  int
	notified []string
}

func (p *capturingPlugin) Name() string { return "capturing" }

func (p *capturingPlugin) OnChargePosted(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges++
	return nil
}

func (p *capturingPlugin) OnPaymentPosted(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments++
	return nil
}

func (p *capturingPlugin) OnPaymentClamped(_ context.Context, _ string, _, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clamps++
	return nil
}

func (p *capturingPlugin) OnCreditLimitExceeded(_ context.Context, _ string, _, _, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejects++
	return nil
}

func (p *capturingPlugin) OnEntryDeleted(_ context.Context, _ interface{}, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes++
	return nil
}

func (p *capturingPlugin) OnBalancesRecalculated(_ context.Context, _ string, _ int, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recalcs++
	return nil
}

func (p *capturingPlugin) NotifyBalanceChanged(_ context.Context, accountID, kind string, _, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notified = append(p.notified, accountID+":"+kind)
	return nil
}

func TestPluginEvents(t *testing.T) {
	ctx := context.Background()
	cp := &capturingPlugin{}

	st := memory.New()
	l := ledger.New(st, ledger.WithPlugin(cp))
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))
	l.PostPayment(ctx, "trainee-1", ledger.BDT(100000)) // clamped to 500.00
	l.PostCharge(ctx, "trainee-1", ledger.BDT(600000))  // rejected
	l.PostCharge(ctx, "trainee-1", ledger.BDT(10000))

	last, _ := st.Last(ctx, "trainee-1")
	if err := l.DeleteEntry(ctx, last.ID, "manager-1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	// Stop drains the event queue before returning.
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.charges != 2 {
		t.Errorf("charges: got %d, want 2", cp.charges)
	}
	if cp.payments != 1 {
		t.Errorf("payments: got %d, want 1", cp.payments)
	}
	if cp.clamps != 1 {
		t.Errorf("clamps: got %d, want 1", cp.clamps)
	}
	if cp.rejects != 1 {
		t.Errorf("rejects: got %d, want 1", cp.rejects)
	}
	if cp.deletes != 1 {
		t.Errorf("deletes: got %d, want 1", cp.deletes)
	}
	if cp.recalcs != 1 {
		t.Errorf("recalcs: got %d, want 1", cp.recalcs)
	}
	if len(cp.notified) != 3 {
		t.Errorf("balance notifications: got %d, want 3", len(cp.notified))
	}
}

func TestAccountIsolation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	l.PostCharge(ctx, "trainee-a", ledger.BDT(50000))
	l.PostCharge(ctx, "trainee-b", ledger.BDT(20000))

	a, _ := l.Balance(ctx, "trainee-a")
	b, _ := l.Balance(ctx, "trainee-b")

	if !a.Equal(ledger.BDT(50000)) {
		t.Errorf("trainee-a: got %v", a)
	}
	if !b.Equal(ledger.BDT(20000)) {
		t.Errorf("trainee-b: got %v", b)
	}

	histA, _ := l.History(ctx, "trainee-a", entry.ListOpts{})
	if len(histA) != 1 {
		t.Errorf("trainee-a history: got %d entries", len(histA))
	}
}

func TestGetEntry(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	c1, _ := l.PostCharge(ctx, "trainee-1", ledger.BDT(50000))

	got, err := l.GetEntry(ctx, c1.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.ID != c1.ID || !got.Amount.Equal(c1.Amount) {
		t.Errorf("GetEntry: got %+v", got)
	}

	if _, err := l.GetEntry(ctx, 9999); !ledger.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		rejection bool
		retryable bool
	}{
		{"invalid amount", ledger.ErrInvalidAmount, true, false},
		{"currency mismatch", ledger.ErrCurrencyMismatch, true, false},
		{"credit limit", &ledger.CreditLimitError{}, true, false},
		{"overpayment", &ledger.OverpaymentError{}, true, false},
		{"nothing owed", ledger.ErrNothingOwed, true, false},
		{"conflict", ledger.ErrConflict, false, true},
		{"not found", ledger.ErrNotFound, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.IsRejection(tt.err); got != tt.rejection {
				t.Errorf("IsRejection: got %v, want %v", got, tt.rejection)
			}
			if got := ledger.IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable: got %v, want %v", got, tt.retryable)
			}
		})
	}
}
