// Package store provides an in-memory pos.Store implementation for tests
// and development. Semantics mirror the SQLite store: ApplySale is a single
// atomic unit under the store mutex, with the guard run against the live
// state it will mutate.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ministore/pos-engine/pos"
)

type Memory struct {
	mu       sync.RWMutex
	products map[string]pos.Product
	sales    map[string]pos.SaleRecord
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]pos.Product),
		sales:    make(map[string]pos.SaleRecord),
	}
}

func (m *Memory) GetProduct(_ context.Context, name string) (*pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]pos.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (m *Memory) ReplaceProducts(_ context.Context, products []pos.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]pos.Product, len(products))
	for _, p := range products {
		next[p.Name] = p
	}
	m.products = next
	return nil
}

func (m *Memory) FindSale(_ context.Context, saleID string) (*pos.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sales[saleID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// ApplySale validates and applies the sale under the write lock. The guard
// runs against the same state the deductions mutate, so a failed validation
// leaves everything untouched.
func (m *Memory) ApplySale(_ context.Context, sale pos.SaleRecord, items []pos.LineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sales[sale.ID]; ok {
		return pos.ErrDuplicateSale
	}

	deltas, err := pos.Deductions(m.products, items)
	if err != nil {
		return err
	}

	for name, qty := range deltas {
		p := m.products[name]
		p.Qty -= qty
		m.products[name] = p
	}
	m.sales[sale.ID] = sale
	return nil
}

func (m *Memory) ListSales(_ context.Context) ([]pos.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sales := make([]pos.SaleRecord, 0, len(m.sales))
	for _, s := range m.sales {
		sales = append(sales, s)
	}
	// Date descending; ties break on id for a stable listing.
	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].Date.Equal(sales[j].Date) {
			return sales[i].Date.After(sales[j].Date)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

func (m *Memory) DailyTotals(_ context.Context) ([]pos.PeriodTotal, error) {
	return m.groupTotals(len(pos.DateFormat))
}

func (m *Memory) MonthlyTotals(_ context.Context) ([]pos.PeriodTotal, error) {
	return m.groupTotals(len("2006-01"))
}

func (m *Memory) groupTotals(prefixLen int) ([]pos.PeriodTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sums := make(map[string]int64)
	for _, s := range m.sales {
		sums[s.DateString()[:prefixLen]] += s.Total
	}

	totals := make([]pos.PeriodTotal, 0, len(sums))
	for period, total := range sums {
		totals = append(totals, pos.PeriodTotal{Period: period, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Period > totals[j].Period
	})
	return totals, nil
}
