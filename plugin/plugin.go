// Package plugin provides an extensible plugin system for the ledger.
// Plugins hook into posting lifecycle events to extend functionality
// (audit trails, notification triggers) without the engine knowing
// about any of them.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Posting hooks
// ──────────────────────────────────────────────────

// OnChargePosted is called after a charge entry is durably committed.
type OnChargePosted interface {
	Plugin
	OnChargePosted(ctx context.Context, e interface{}) error
}

// OnPaymentPosted is called after a payment entry is durably committed.
type OnPaymentPosted interface {
	Plugin
	OnPaymentPosted(ctx context.Context, e interface{}) error
}

// OnPaymentClamped is called when an overpayment was reduced to the
// outstanding balance before being recorded.
type OnPaymentClamped interface {
	Plugin
	OnPaymentClamped(ctx context.Context, accountID string, requested, recorded interface{}) error
}

// OnCreditLimitExceeded is called when a charge is rejected by the
// credit-limit ceiling. No entry was written.
type OnCreditLimitExceeded interface {
	Plugin
	OnCreditLimitExceeded(ctx context.Context, accountID string, current, attempted, limit interface{}) error
}

// ──────────────────────────────────────────────────
// Correction hooks
// ──────────────────────────────────────────────────

// OnEntryDeleted is called after an entry has been removed and the
// account's balances recalculated.
type OnEntryDeleted interface {
	Plugin
	OnEntryDeleted(ctx context.Context, e interface{}, actor string) error
}

// OnBalancesRecalculated is called after a replay rewrote an account's
// running balances.
type OnBalancesRecalculated interface {
	Plugin
	OnBalancesRecalculated(ctx context.Context, accountID string, entries int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Notification triggers
// ──────────────────────────────────────────────────

// BalanceNotifier is the trigger point external messaging integrations
// hang off. It fires after any committed posting with the account's new
// balance; delivery is entirely the plugin's concern.
type BalanceNotifier interface {
	Plugin
	NotifyBalanceChanged(ctx context.Context, accountID string, kind string, amount, balance interface{}) error
}
