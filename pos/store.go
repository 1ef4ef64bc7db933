package pos

import "context"

// Store is the persistence boundary for the POS ledger. Implementations own
// the transactional unit of work: ApplySale must run the stock re-check, the
// deductions, and the sale insert as one atomic unit that commits or rolls
// back on every exit path, and must serialize concurrent invocations that
// touch overlapping products.
//
// Implementations: store/sqlite (durable), pos/store (in-memory).
type Store interface {
	// GetProduct returns the product by name, or nil if it does not exist.
	GetProduct(ctx context.Context, name string) (*Product, error)

	// ListProducts returns the full catalog ordered by name.
	ListProducts(ctx context.Context) ([]Product, error)

	// ReplaceProducts atomically clears and repopulates the catalog.
	// This is the administrative bulk-update path; it bypasses the
	// inventory guard and sale idempotency entirely.
	ReplaceProducts(ctx context.Context, products []Product) error

	// FindSale returns the sale record for the id, or nil if absent.
	FindSale(ctx context.Context, saleID string) (*SaleRecord, error)

	// ApplySale validates the line items against a fresh product snapshot,
	// deducts stock, and inserts the sale record as one atomic unit.
	// It returns ErrDuplicateSale if the sale id is already recorded, or a
	// guard error (ErrProductNotFound, ErrInsufficientStock) if validation
	// fails; in every failure case no row is altered.
	ApplySale(ctx context.Context, sale SaleRecord, items []LineItem) error

	// ListSales returns all sale records ordered by date descending.
	ListSales(ctx context.Context) ([]SaleRecord, error)

	// DailyTotals returns summed totals grouped by date, descending.
	DailyTotals(ctx context.Context) ([]PeriodTotal, error)

	// MonthlyTotals returns summed totals grouped by YYYY-MM, descending.
	MonthlyTotals(ctx context.Context) ([]PeriodTotal, error)
}
