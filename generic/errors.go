/*
errors.go - Error taxonomy shared by the ledger and payroll engines

PURPOSE:
  Every failure a caller can act on falls into one of four categories.
  Domain packages declare their own sentinels on top of these so that the
  HTTP layer and the CLI can map any error to a status without knowing
  which package produced it.

ERROR CATEGORIES:
  1. Validation    - Malformed or unbalanced input, nothing was written
  2. Conflict      - State forbids the operation (closed period, duplicate)
  3. NotFound      - A referenced account, entry or employee is missing
  4. Configuration - A control account or payroll mapping is missing

USAGE:
  Domain packages wrap a category:

    var ErrPeriodClosed = generic.Conflict("period is already closed")

    if generic.IsConflict(err) { ... }

SEE ALSO:
  - ledger/errors.go: Ledger sentinels and UnbalancedError
  - payroll/errors.go: Payroll sentinels
  - api/handlers.go: Category to HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// CATEGORY SENTINELS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation marks input that was rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks an operation the current state does not allow.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a missing referenced record.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration marks a deployment problem such as an unresolved
	// control account.
	ErrConfiguration = errors.New("configuration error")

	// ErrDuplicateIdempotencyKey is returned when an append-only record with
	// the same idempotency key already exists. Expected on retries.
	ErrDuplicateIdempotencyKey = Conflict("duplicate idempotency key")

	// ErrInvalidPeriod is returned when a month or date range is malformed.
	ErrInvalidPeriod = Validation("invalid period")
)

// =============================================================================
// CATEGORIZED ERRORS
// =============================================================================

// CategoryError is a sentinel that belongs to one category.
type CategoryError struct {
	Category error
	Message  string
}

func (e *CategoryError) Error() string { return e.Message }

func (e *CategoryError) Unwrap() error { return e.Category }

// Validation returns a new validation sentinel.
func Validation(msg string) error { return &CategoryError{Category: ErrValidation, Message: msg} }

// Conflict returns a new conflict sentinel.
func Conflict(msg string) error { return &CategoryError{Category: ErrConflict, Message: msg} }

// NotFound returns a new not-found sentinel.
func NotFound(msg string) error { return &CategoryError{Category: ErrNotFound, Message: msg} }

// Configuration returns a new configuration sentinel.
func Configuration(msg string) error {
	return &CategoryError{Category: ErrConfiguration, Message: msg}
}

// FieldError reports a single invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Field is shorthand for a *FieldError.
func Field(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConflict returns true if the operation is not allowed in the current state.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConfiguration returns true if the error is a deployment problem.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsClientError returns true if the caller can fix the request.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsNotFound(err)
}
