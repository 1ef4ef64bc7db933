/*
Package pos implements the point-of-sale ledger core: sale ingestion with
exactly-once semantics, stock validation, and revenue aggregation.

DESIGN:
  The package is storage-agnostic. All persistence goes through the Store
  interface (store.go); durable and in-memory implementations live in
  store/sqlite and pos/store respectively.

KEY INVARIANTS:
  - At most one SaleRecord per sale id (the idempotency token).
  - Product quantities never go negative.
  - A sale either applies completely (all deductions + the record) or not
    at all.

SEE ALSO:
  - guard.go: stock validation and delta computation
  - service.go: the sale ingestion orchestration
  - aggregate.go: read-only revenue queries
*/
package pos

import "time"

// DateFormat is the day-granularity format used for persisted sale dates.
// Monthly grouping relies on the first 7 characters being YYYY-MM.
const DateFormat = "2006-01-02"

// Product is a catalog entry. Name is the primary key; price and qty are
// non-negative integers in the smallest currency unit.
type Product struct {
	Name  string
	Price int64
	Qty   int64
}

// SaleRecord is one accepted sale. Immutable once written.
type SaleRecord struct {
	ID    string // externally supplied idempotency token
	Date  time.Time
	Total int64
}

// DateString returns the persisted day-granularity form of the sale date.
func (s SaleRecord) DateString() string {
	return s.Date.Format(DateFormat)
}

// LineItem is a (product, quantity) pair within an incoming sale request.
// It is transient: line items are applied as stock deductions, not stored.
type LineItem struct {
	Name string
	Qty  int64
}

// SaleRequest is one external "record a sale" call.
type SaleRequest struct {
	SaleID string
	Total  int64
	Items  []LineItem
}

// Outcome classifies the result of a sale submission that did not fail.
type Outcome int

const (
	// OutcomeSaved means the sale was applied and persisted.
	OutcomeSaved Outcome = iota
	// OutcomeDuplicate means the sale id was already recorded; nothing changed.
	OutcomeDuplicate
	// OutcomeIgnored means the request was economically void (zero total or
	// no items) and was deliberately dropped without error.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// PeriodTotal is one aggregation row: a day (YYYY-MM-DD) or month (YYYY-MM)
// with the summed sale totals for that period.
type PeriodTotal struct {
	Period string
	Total  int64
}
