// Package account provides account-level views over the ledger:
// balance classification and per-account aggregates.
//
// The ledger does not own account lifecycle. Accounts are opaque
// external identifiers (trainee/user ids). This package only describes
// what the log says about them.
package account

import "github.com/kitchenops/ledger/types"

// Status classifies a balance against the configured credit limit.
type Status string

const (
	// StatusOk means nothing is owed (zero balance, or an advance held).
	StatusOk Status = "ok"
	// StatusWarning means a balance is owed but below the warning threshold.
	StatusWarning Status = "warning"
	// StatusCritical means the balance is at or above the warning threshold.
	StatusCritical Status = "critical"
)

// StatusOf classifies balance against limit using the given warning
// fraction (e.g. 0.7 flags balances at 70% of the limit or above).
// Negative balances are advances held on the account and classify as ok.
func StatusOf(balance, limit types.Money, warnFraction float64) Status {
	if balance.Amount <= 0 {
		return StatusOk
	}

	threshold := int64(float64(limit.Amount) * warnFraction)
	if balance.Amount < threshold {
		return StatusWarning
	}
	return StatusCritical
}

// Balance is one account's latest running balance, with its status as
// classified by the engine's configured policy.
type Balance struct {
	AccountID string      `json:"account_id"`
	Balance   types.Money `json:"balance"`
	Status    Status      `json:"status"`
}

// Summary aggregates an account's full log. It is derived on demand,
// so there is no stored aggregate to drift from the entries.
type Summary struct {
	CurrentBalance types.Money `json:"current_balance"`
	TotalCharges   types.Money `json:"total_charges"`
	TotalPayments  types.Money `json:"total_payments"`
	EntryCount     int64       `json:"entry_count"`
}
