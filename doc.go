// Package ledger provides an embeddable credit ledger engine for Go applications.
//
// Ledger is designed as a library, not a service. Import it directly into
// your application (a canteen POS, an academy management backend) and post
// charges and payments against opaque account ids. It provides:
//
//   - An append-only entry log with a materialized running balance per entry
//   - O(1) balance reads from the latest entry, no replay on the hot path
//   - Credit-limit enforcement that rejects charges before anything is written
//   - Overpayment clamping so a payment never drives a balance negative
//   - Delete-and-recalculate correction that replays the log in order
//   - Per-account serialization so concurrent postings never lose an update
//   - Pluggable hooks for notifications, audit trails and metrics
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/kitchenops/ledger"
//	    "github.com/kitchenops/ledger/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create ledger
//	l := ledger.New(store,
//	    ledger.WithCreditLimit(ledger.BDT(500000)), // ৳5000.00
//	)
//
//	// Start the ledger (runs migrations, begins background workers)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Charges increase what an account owes, payments decrease it:
//
//	e, err := l.PostCharge(ctx, "trainee-42", ledger.BDT(50000),
//	    ledger.WithReference("order", "pos-1881"),
//	    ledger.WithActor("cashier-3"),
//	)
//
//	e, err = l.PostPayment(ctx, "trainee-42", ledger.BDT(20000))
//
// Balances read from the latest entry, never by summing the log:
//
//	balance, err := l.Balance(ctx, "trainee-42")
//	status := l.BalanceStatus(balance) // ok, warning or critical
//
// Corrections delete the entry and replay everything after it:
//
//	err := l.DeleteEntry(ctx, e.ID, "manager-1")
//
// # Correctness
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (poisha for BDT, cents for USD).
//
// An account's balance history is fully determined by its entries in id
// order: replaying the log always reproduces every stored running balance.
// Postings for one account are serialized through an in-process lock, and
// the store's append guard catches writers in other processes, so two
// concurrent postings can never both read the same balance and both commit.
package ledger
