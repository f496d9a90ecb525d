package audithook

// Action constants for audit events.
const (
	// Posting actions
	ActionChargePosted  = "charge.posted"
	ActionPaymentPosted = "payment.posted"

	// Policy actions
	ActionPaymentClamped      = "payment.clamped"
	ActionCreditLimitRejected = "credit_limit.rejected"

	// Correction actions
	ActionEntryDeleted         = "entry.deleted"
	ActionBalancesRecalculated = "balances.recalculated"
)

// Resource constants for audit events.
const (
	ResourceEntry   = "entry"
	ResourceAccount = "account"
)

// Category constants for audit events.
const (
	CategoryPosting    = "posting"
	CategoryPolicy     = "policy"
	CategoryCorrection = "correction"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
