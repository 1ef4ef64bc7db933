/*
service.go - Sale ingestion orchestration

PURPOSE:
  Implements the idempotency boundary for external "record a sale" calls:
  validate, deduplicate, then hand the atomic apply to the Store.

REQUEST FLOW:
  1. Reject empty sale id (ErrInvalidRequest).
  2. Drop economically void requests (zero/negative total, no items) as
     OutcomeIgnored - accepted, signaled, no side effect.
  3. Look up the sale id; if present, OutcomeDuplicate without touching stock.
  4. ApplySale: guard + deduction + insert in one store transaction. A lost
     race on the same sale id surfaces from the store as ErrDuplicateSale and
     is still reported as OutcomeDuplicate, so retries are safe end to end.

SEE ALSO:
  - guard.go: validation invoked inside the store transaction
  - store.go: the atomic unit of work contract
*/
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service ingests sale requests against a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a sale ingestion service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the acceptance-time clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordSale processes one sale submission end to end. On a non-nil error the
// outcome is meaningless and no state has changed; business-rule failures are
// returned as structured errors, never raw storage errors.
func (s *Service) RecordSale(ctx context.Context, req SaleRequest) (Outcome, error) {
	if req.SaleID == "" {
		return 0, ErrInvalidRequest
	}
	if req.Total <= 0 || len(req.Items) == 0 {
		return OutcomeIgnored, nil
	}

	// Fast-path duplicate check. The authoritative guard is the sale id
	// primary key inside ApplySale's transaction.
	existing, err := s.store.FindSale(ctx, req.SaleID)
	if err != nil {
		return 0, storeFailure(err)
	}
	if existing != nil {
		return OutcomeDuplicate, nil
	}

	sale := SaleRecord{
		ID:    req.SaleID,
		Date:  dayOf(s.now()),
		Total: req.Total,
	}
	if err := s.store.ApplySale(ctx, sale, req.Items); err != nil {
		if errors.Is(err, ErrDuplicateSale) {
			return OutcomeDuplicate, nil
		}
		return 0, storeFailure(err)
	}
	return OutcomeSaved, nil
}

// storeFailure passes business-rule errors through untouched and classifies
// everything else as a storage failure, so raw driver errors never reach
// callers as anything but ErrStoreUnavailable.
func storeFailure(err error) error {
	if IsClientError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// dayOf truncates a timestamp to day granularity in its own location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
