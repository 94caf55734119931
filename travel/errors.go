/*
errors.go - Centralized error types for the travel engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps them to HTTP statuses through the Is* helpers.

ERROR CATEGORIES:
  1. Not found - Missing shift, staff or record references
  2. Client errors - Invalid requests, unassigned shifts, sequence misses
  3. Provider errors - Routing provider failures (retryable or permanent)

SILENT DEGRADE:
  A missing rate configuration is NOT an error. The lookup falls back to
  DefaultRateConfiguration().

SEE ALSO:
  - service.go: Raises these errors
  - api/handlers.go: statusFor() maps them to HTTP
*/
package travel

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrShiftNotFound is returned when the requested shift does not exist.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrNoStaffAssigned is returned when the shift has no staff member.
	ErrNoStaffAssigned = errors.New("no staff assigned to this shift")

	// ErrShiftNotInDay is returned when the target shift is missing from its
	// own staff member's shifts for the travel date (edited or deleted
	// concurrently, or travel date does not match the shift start).
	ErrShiftNotInDay = errors.New("shift not found in staff member's shifts for the travel date")

	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidRateConfiguration is returned when a new rate configuration
	// fails validation.
	ErrInvalidRateConfiguration = errors.New("invalid rate configuration")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrProviderFailure is returned when the routing provider fails.
	ErrProviderFailure = errors.New("routing provider failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// ProviderError wraps a routing provider failure.
type ProviderError struct {
	Provider    string
	Origin      string
	Destination string
	Retryable   bool
	Err         error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: route %q -> %q: %v", e.Provider, e.Origin, e.Destination, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{ErrProviderFailure, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidRateConfiguration)
}

// IsUnprocessable returns true when the request is well formed but the
// referenced data cannot be calculated.
func IsUnprocessable(err error) bool {
	return errors.Is(err, ErrNoStaffAssigned) ||
		errors.Is(err, ErrShiftNotInDay)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrNotFound)
}
