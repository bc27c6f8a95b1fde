/*
errors.go - Centralized error types for the site-cost engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Other packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - invalid client input (missing amount, no workers, ...)
  2. Not-found errors  - referenced site/worker/charge does not exist
  3. Store errors      - persistence layer unreachable or schema mismatch
  4. Conflicts         - uniqueness constraints (duplicate allocated charge)

USAGE:
  if charging.IsClientError(err) {
      // 400 to the caller
  }

SEE ALSO:
  - store.go: Store contracts returning these errors
  - api/handlers.go: HTTP status mapping
*/
package charging

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for invalid client input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned when the persistence collaborator is
	// unreachable or its schema does not match expectations. The engine never
	// persists a record with an unverified total under this condition.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateAllocatedFee is returned when an allocated charge of the
	// same kind already exists for a (site, date) pair. Expected during
	// re-invocation; callers count it as a skip, not a failure.
	ErrDuplicateAllocatedFee = errors.New("allocated charge already exists for site and date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field of the input was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError identifies the missing record kind and identifier.
type NotFoundError struct {
	Kind string // "job site", "charge", "worker"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true for uniqueness-constraint violations.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAllocatedFee)
}
