/*
errors.go - Centralized error types for the POS core

PURPOSE:
  All error types in one place. Handlers map these to HTTP responses with
  errors.Is/As; raw storage errors are never surfaced to callers.

ERROR CATEGORIES:
  1. Request errors - malformed input, rejected before any store access
  2. Business-rule errors - stock validation failures, whole sale aborted
  3. Store errors - persistence-level failures

SEE ALSO:
  - service.go: produces these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package pos

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned for malformed input, e.g. a missing sale
	// id or a non-positive line item quantity. Nothing is persisted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDuplicateSale is returned by stores when a sale id already exists.
	// The service translates it into the duplicate outcome; it is the
	// at-most-once guarantee under concurrent retries.
	ErrDuplicateSale = errors.New("duplicate sale")

	// ErrProductNotFound is returned when a line item references an unknown
	// product. The whole sale attempt is aborted.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a line item requests more than
	// the available quantity. The whole sale attempt is aborted.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStoreUnavailable is returned when the persistence layer fails.
	// Fatal for the request; never retried internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ProductNotFoundError names the offending line item.
type ProductNotFoundError struct {
	Name string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.Name)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}

// InsufficientStockError reports the shortfall for the offending product.
type InsufficientStockError struct {
	Name      string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s (available %d, requested %d)",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock)
}
