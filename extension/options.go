package extension

import (
	"time"

	ledger "github.com/kitchenops/ledger"
	"github.com/kitchenops/ledger/plugin"
	"github.com/kitchenops/ledger/store"
)

// Option configures the Ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying engine.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the ledger currency code.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithCreditLimit sets the balance ceiling in major units, e.g. "5000.00".
func WithCreditLimit(limit string) Option {
	return func(e *Extension) { e.config.CreditLimit = limit }
}

// WithWarningThreshold sets the critical-balance fraction of the credit limit.
func WithWarningThreshold(fraction float64) Option {
	return func(e *Extension) { e.config.WarningThreshold = fraction }
}

// WithOverpaymentPolicy sets the overpayment handling policy.
func WithOverpaymentPolicy(policy string) Option {
	return func(e *Extension) { e.config.OverpaymentPolicy = policy }
}

// WithLockWait bounds how long a posting waits out append conflicts.
func WithLockWait(d time.Duration) Option {
	return func(e *Extension) { e.config.LockWait = d }
}

// WithEventBufferSize sizes the post-commit event queue.
func WithEventBufferSize(n int) Option {
	return func(e *Extension) { e.config.EventBufferSize = n }
}
