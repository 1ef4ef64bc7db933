/*
aggregate.go - Read-only revenue queries over the sale ledger

PURPOSE:
  Derives daily/monthly revenue summaries, the CSV export, and diagnostic
  views from committed SaleRecord rows. Never mutates state and never
  interacts with the inventory guard.

CSV CONTRACT:
  Exactly "month,total\n" followed by one "YYYY-MM,<int>\n" line per group,
  in query order. Totals are integers in the smallest currency unit, no
  currency formatting. Consumers parse this verbatim; do not add quoting.
*/
package pos

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Aggregator answers read-only revenue queries.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// DailyTotals returns per-date revenue sums, newest date first.
func (a *Aggregator) DailyTotals(ctx context.Context) ([]PeriodTotal, error) {
	return a.store.DailyTotals(ctx)
}

// MonthlyTotals returns per-month (YYYY-MM) revenue sums, newest month first.
func (a *Aggregator) MonthlyTotals(ctx context.Context) ([]PeriodTotal, error) {
	return a.store.MonthlyTotals(ctx)
}

// MonthlyCSV renders the monthly totals as the fixed-format CSV export.
func (a *Aggregator) MonthlyCSV(ctx context.Context) (string, error) {
	rows, err := a.MonthlyTotals(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("month,total\n")
	for _, r := range rows {
		b.WriteString(r.Period)
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(r.Total, 10))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// LatestSales returns the n most recent sale records by date, for the debug
// endpoint. n <= 0 returns an empty slice.
func (a *Aggregator) LatestSales(ctx context.Context, n int) ([]SaleRecord, error) {
	if n <= 0 {
		return []SaleRecord{}, nil
	}
	sales, err := a.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	if len(sales) > n {
		sales = sales[:n]
	}
	return sales, nil
}

// RevenueStats summarizes the whole ledger. AverageTicket is exact decimal
// division of gross revenue by sale count, rounded to 2 places.
type RevenueStats struct {
	Sales         int64
	GrossRevenue  int64
	AverageTicket decimal.Decimal
}

// Stats computes ledger-wide revenue statistics.
func (a *Aggregator) Stats(ctx context.Context) (RevenueStats, error) {
	sales, err := a.store.ListSales(ctx)
	if err != nil {
		return RevenueStats{}, err
	}

	stats := RevenueStats{AverageTicket: decimal.Zero}
	for _, s := range sales {
		stats.Sales++
		stats.GrossRevenue += s.Total
	}
	if stats.Sales > 0 {
		stats.AverageTicket = decimal.NewFromInt(stats.GrossRevenue).
			DivRound(decimal.NewFromInt(stats.Sales), 2)
	}
	return stats, nil
}
