package ledger

import (
	"errors"
	"fmt"

	"github.com/kitchenops/ledger/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("ledger: entry not found")
	ErrInvalidInput = errors.New("ledger: invalid input")

	// Posting errors
	ErrInvalidAmount       = errors.New("ledger: amount must be greater than zero")
	ErrCurrencyMismatch    = errors.New("ledger: amount currency does not match ledger currency")
	ErrCreditLimitExceeded = errors.New("ledger: credit limit exceeded")
	ErrOverpayment         = errors.New("ledger: payment exceeds outstanding balance")
	ErrNothingOwed         = errors.New("ledger: account has no outstanding balance")

	// Concurrency errors
	ErrConflict = errors.New("ledger: concurrent posting conflict")

	// Store errors
	ErrStoreClosed     = errors.New("ledger: store is closed")
	ErrMigrationFailed = errors.New("ledger: migration failed")
)

// CreditLimitError reports a charge rejected by the credit-limit
// ceiling. The caller gets the exact figures needed to render a
// precise message (e.g. the shortfall blocking a POS sale).
type CreditLimitError struct {
	AccountID  string
	Current    types.Money
	Attempted  types.Money
	NewBalance types.Money
	Limit      types.Money
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("ledger: credit limit exceeded for account %s: balance %s + charge %s = %s over limit %s",
		e.AccountID, e.Current.FormatMajor(), e.Attempted.FormatMajor(),
		e.NewBalance.FormatMajor(), e.Limit.FormatMajor())
}

// Is makes the typed error match the ErrCreditLimitExceeded sentinel.
func (e *CreditLimitError) Is(target error) bool {
	return target == ErrCreditLimitExceeded
}

// OverpaymentError reports a payment rejected under OverpaymentReject.
type OverpaymentError struct {
	AccountID string
	Current   types.Money
	Attempted types.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("ledger: payment %s exceeds outstanding balance %s for account %s",
		e.Attempted.FormatMajor(), e.Current.FormatMajor(), e.AccountID)
}

// Is makes the typed error match the ErrOverpayment sentinel.
func (e *OverpaymentError) Is(target error) bool {
	return target == ErrOverpayment
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejection returns true if the error is a domain rejection: the
// posting was refused by a business rule and no entry was written.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrCreditLimitExceeded) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrNothingOwed)
}

// IsRetryable returns true if the error is temporary and the whole
// posting can be retried. A retryable error never has partial effect.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
