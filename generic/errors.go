/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The api package maps them to HTTP status codes with the helpers below.

ERROR CATEGORIES:
  1. Ledger errors - Usage persistence failures
  2. Validation errors - Business rule violations
  3. Lookup errors - Missing employees or transactions

USAGE:
  if errors.Is(err, generic.ErrInsufficientLeave) {
      var detail *generic.InsufficientLeaveError
      errors.As(err, &detail)
  }

SEE ALSO:
  - ledger.go: Uses these errors
  - leave/service.go: Returns InsufficientLeaveError
  - api/handlers.go: Maps errors to status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInsufficientLeave is returned when usage exceeds the remaining balance.
	ErrInsufficientLeave = errors.New("insufficient annual leave")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyReversed is returned when reversing a transaction twice.
	ErrAlreadyReversed = errors.New("transaction already reversed")

	// ErrNotReversible is returned when reversing a reversal.
	ErrNotReversible = errors.New("transaction type cannot be reversed")

	// ErrAsOfBeforeHire is returned when a calculation date precedes the hire date.
	ErrAsOfBeforeHire = errors.New("calculation date is before hire date")

	// ErrInvalidAmount is returned for zero, negative or malformed day counts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientLeaveError provides details about a balance shortage.
type InsufficientLeaveError struct {
	EntityID  EntityID
	Remaining Amount
	Requested Amount
	Shortfall Amount
}

func (e *InsufficientLeaveError) Error() string {
	return fmt.Sprintf("insufficient annual leave: remaining %v, requested %v, shortfall %v",
		e.Remaining.Value, e.Requested.Value, e.Shortfall.Value)
}

func (e *InsufficientLeaveError) Unwrap() error {
	return ErrInsufficientLeave
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAsOfBeforeHire) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNotReversible)
}

// IsConflict returns true if the request conflicts with recorded state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientLeave) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrAlreadyReversed)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
