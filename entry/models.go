// Package entry defines the ledger entry domain model.
//
// An Entry is the fundamental, immutable unit of an account's log.
// Entries are only ever appended; correction happens by posting a
// compensating entry or by the engine's delete-and-recalculate path,
// never by editing an entry in place.
package entry

import (
	"time"

	"github.com/kitchenops/ledger/types"
)

// Kind classifies an entry as increasing or decreasing the owed balance.
type Kind string

const (
	// KindCharge increases the amount the account owes.
	KindCharge Kind = "charge"
	// KindPayment decreases the amount the account owes.
	KindPayment Kind = "payment"
)

// Reference type constants for the external cause of an entry.
const (
	RefOrder        = "order"
	RefInvoice      = "invoice"
	RefSubscription = "subscription"
	RefManual       = "manual"
)

// Entry is a single row of an account's append-only log.
//
// ID is assigned by the store at insertion time and is monotonically
// increasing per store; for a fixed account it totally orders the log.
// BalanceAfter is the running balance immediately after this entry is
// applied, materialized so balance reads never replay the log.
type Entry struct {
	ID           int64       `json:"id"`
	AccountID    string      `json:"account_id"`
	Kind         Kind        `json:"kind"`
	Amount       types.Money `json:"amount"`
	BalanceAfter types.Money `json:"balance_after"`
	Reference    *Reference  `json:"reference,omitempty"`
	Note         string      `json:"note,omitempty"`
	CreatedBy    string      `json:"created_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Reference links an entry to the external record that caused it
// (a POS order, an invoice, a subscription cycle, a manual adjustment).
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Signed returns the entry's contribution to the running balance:
// positive for a charge, negative for a payment.
func (e *Entry) Signed() types.Money {
	if e.Kind == KindPayment {
		return e.Amount.Negate()
	}
	return e.Amount
}

// ListOpts controls pagination of history reads.
type ListOpts struct {
	Limit  int
	Offset int
}
