package extension

import "time"

// Config holds the Ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.ledger" or "ledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the ledger currency code (default: "bdt").
	// Every posted amount must carry this currency.
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// CreditLimit is the balance ceiling in major units, e.g. "5000.00"
	// (default: "5000.00").
	CreditLimit string `json:"credit_limit" mapstructure:"credit_limit" yaml:"credit_limit"`

	// WarningThreshold is the fraction of the credit limit at which a
	// balance classifies as critical instead of warning (default: 0.7).
	WarningThreshold float64 `json:"warning_threshold" mapstructure:"warning_threshold" yaml:"warning_threshold"`

	// OverpaymentPolicy controls payments exceeding the outstanding
	// balance: "clamp", "reject" or "allow_negative" (default: "clamp").
	OverpaymentPolicy string `json:"overpayment_policy" mapstructure:"overpayment_policy" yaml:"overpayment_policy"`

	// LockWait bounds how long a posting waits out append conflicts
	// before giving up (default: 5s).
	LockWait time.Duration `json:"lock_wait" mapstructure:"lock_wait" yaml:"lock_wait"`

	// EventBufferSize sizes the post-commit event queue (default: 1024).
	EventBufferSize int `json:"event_buffer_size" mapstructure:"event_buffer_size" yaml:"event_buffer_size"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:          "bdt",
		CreditLimit:       "5000.00",
		WarningThreshold:  0.7,
		OverpaymentPolicy: "clamp",
		LockWait:          5 * time.Second,
		EventBufferSize:   1024,
	}
}
