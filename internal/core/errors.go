package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers classify failures with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrRetrieval       = errors.New("data retrieval failed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError describes a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Well-known validation failures.
var (
	ErrInvalidAmount         = &ValidationError{Field: "amount", Reason: "must be a non-negative decimal with at most 2 places"}
	ErrInvalidDate           = &ValidationError{Field: "date", Reason: "must be a calendar date (YYYY-MM-DD)"}
	ErrInvalidMonth          = &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	ErrInvalidYear           = &ValidationError{Field: "year", Reason: "must be between 1900 and 9999"}
	ErrInvalidHorizon        = &ValidationError{Field: "months", Reason: "must be between 1 and 60"}
	ErrEmptyDescription      = &ValidationError{Field: "description", Reason: "cannot be empty"}
	ErrDescriptionTooLong    = &ValidationError{Field: "description", Reason: "too long (max 200 characters)"}
	ErrEmptyCategory         = &ValidationError{Field: "category", Reason: "cannot be empty"}
	ErrInvalidKind           = &ValidationError{Field: "type", Reason: "must be income or expense"}
	ErrInvalidPaymentMethod  = &ValidationError{Field: "paymentMethod", Reason: "must be one of credit, debit, cash, pix, other"}
	ErrInvalidInstallment    = &ValidationError{Field: "installment", Reason: "requires 1 <= current <= total"}
	ErrInvalidRecurrence     = &ValidationError{Field: "recurrenceType", Reason: "must be monthly or biweekly and is required only for recurring transactions"}
	ErrIncomeHasExpenseField = &ValidationError{Field: "type", Reason: "income cannot carry payment method or installment"}
	ErrInvalidBudget         = &ValidationError{Field: "budget", Reason: "must be non-negative and only set on expense categories"}
	ErrInvalidTheme          = &ValidationError{Field: "theme", Reason: "must be light, dark or system"}
	ErrInvalidBackupFreq     = &ValidationError{Field: "backupFrequency", Reason: "must be daily, weekly, monthly or never"}
	ErrEmptyUserID           = &ValidationError{Field: "userId", Reason: "cannot be empty"}
)

// RetrievalError reports that a data source could not be read. It matches
// both ErrRetrieval and the underlying cause under errors.Is.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrieval, e.Err}
}

// NewRetrievalError wraps err unless it is nil.
func NewRetrievalError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RetrievalError{Op: op, Err: err}
}
