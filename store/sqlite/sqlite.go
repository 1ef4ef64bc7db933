/*
Package sqlite provides the SQLite-backed implementation of pos.Store.

PURPOSE:
  Durable persistence and the atomic transaction boundary for Product and
  SaleRecord mutations. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  products: name PRIMARY KEY, price, qty (smallest currency unit, integers)
  sales:    sale_id PRIMARY KEY, date (YYYY-MM-DD text), total
  meta:     key/value pairs, holds schema_version for migrations

ATOMIC APPLY:
  ApplySale runs entirely inside one database transaction:
  1. SELECT the referenced product rows (fresh snapshot inside the tx)
  2. pos.Deductions validates and computes per-product deltas
  3. UPDATE products SET qty = qty - ? WHERE name = ? AND qty >= ?
     (guarded deduction; zero rows affected means a concurrent writer got
     there first, and the whole tx rolls back)
  4. INSERT the sale row; the sale_id primary key rejects duplicates
  The deferred Rollback covers every error path; Commit only on full success.

CONCURRENCY:
  Uses sync.RWMutex around write transactions, so overlapping applies
  serialize in-process. The guarded UPDATE re-validates under the same
  transaction regardless, so a plain read-then-write race cannot drive
  qty negative even across separate connections.

WAL MODE:
  SQLite is opened with WAL so readers (aggregation queries) don't block
  behind the single writer.

USAGE:
  store, err := sqlite.New("./data/ministore.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - migrate.go: versioned schema migrations over the meta table
  - pos/store.go: interface definition
  - pos/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ministore/pos-engine/pos"
)

// Store implements pos.Store using SQLite.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// New opens (or creates) the database at dbPath, runs pending migrations,
// and seeds the default catalog if the product table is empty.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent across the
	// pool and matches the one-writer model anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: dbPath}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.seedIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, for the backup download.
func (s *Store) Path() string {
	return s.path
}

// seedIfEmpty installs the default catalog on a fresh store.
func (s *Store) seedIfEmpty(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.ReplaceProducts(ctx, []pos.Product{
		{Name: "bia", Price: 10000, Qty: 0},
		{Name: "nuoc ngot", Price: 8000, Qty: 0},
		{Name: "banh mi", Price: 15000, Qty: 0},
	})
}

// =============================================================================
// PRODUCTS
// =============================================================================

// GetProduct returns the product by name, or nil if absent.
func (s *Store) GetProduct(ctx context.Context, name string) (*pos.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p pos.Product
	err := s.db.QueryRowContext(ctx,
		"SELECT name, price, qty FROM products WHERE name = ?", name,
	).Scan(&p.Name, &p.Price, &p.Qty)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

// ListProducts returns the full catalog ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]pos.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, price, qty FROM products ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []pos.Product
	for rows.Next() {
		var p pos.Product
		if err := rows.Scan(&p.Name, &p.Price, &p.Qty); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ReplaceProducts atomically clears and repopulates the catalog.
func (s *Store) ReplaceProducts(ctx context.Context, products []pos.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	for _, p := range products {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products (name, price, qty) VALUES (?, ?, ?)",
			p.Name, p.Price, p.Qty,
		); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// =============================================================================
// SALES
// =============================================================================

// FindSale returns the sale record for the id, or nil if absent.
func (s *Store) FindSale(ctx context.Context, saleID string) (*pos.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec  pos.SaleRecord
		date string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT sale_id, date, total FROM sales WHERE sale_id = ?", saleID,
	).Scan(&rec.ID, &date, &rec.Total)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sale: %w", err)
	}
	rec.Date = parseDate(date)
	return &rec, nil
}

// ApplySale deducts stock and inserts the sale record as one transaction.
func (s *Store) ApplySale(ctx context.Context, sale pos.SaleRecord, items []pos.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Fresh snapshot of the referenced products, inside the transaction.
	snapshot := make(map[string]pos.Product, len(items))
	for _, item := range items {
		if _, ok := snapshot[item.Name]; ok {
			continue
		}
		var p pos.Product
		err := tx.QueryRowContext(ctx,
			"SELECT name, price, qty FROM products WHERE name = ?", item.Name,
		).Scan(&p.Name, &p.Price, &p.Qty)
		if err == sql.ErrNoRows {
			continue // the guard reports the missing product
		}
		if err != nil {
			return fmt.Errorf("failed to snapshot product %q: %w", item.Name, err)
		}
		snapshot[p.Name] = p
	}

	deltas, err := pos.Deductions(snapshot, items)
	if err != nil {
		return err
	}

	for name, qty := range deltas {
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET qty = qty - ? WHERE name = ? AND qty >= ?",
			qty, name, qty,
		)
		if err != nil {
			return fmt.Errorf("failed to deduct stock for %q: %w", name, err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			// A concurrent writer consumed the stock between snapshot
			// and update; report it as the guard would have.
			return &pos.InsufficientStockError{Name: name, Requested: qty}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sales (sale_id, date, total) VALUES (?, ?, ?)",
		sale.ID, sale.DateString(), sale.Total,
	); err != nil {
		if isUniqueConstraintError(err) {
			return pos.ErrDuplicateSale
		}
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	return tx.Commit()
}

// ListSales returns all sale records, newest first.
func (s *Store) ListSales(ctx context.Context) ([]pos.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT sale_id, date, total FROM sales ORDER BY date DESC, sale_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []pos.SaleRecord
	for rows.Next() {
		var (
			rec  pos.SaleRecord
			date string
		)
		if err := rows.Scan(&rec.ID, &date, &rec.Total); err != nil {
			return nil, err
		}
		rec.Date = parseDate(date)
		sales = append(sales, rec)
	}
	return sales, rows.Err()
}

// =============================================================================
// AGGREGATION QUERIES
// =============================================================================

// DailyTotals returns per-date revenue sums, newest date first.
func (s *Store) DailyTotals(ctx context.Context) ([]pos.PeriodTotal, error) {
	return s.queryTotals(ctx, `
		SELECT date, SUM(total)
		FROM sales GROUP BY date ORDER BY date DESC
	`)
}

// MonthlyTotals returns per-month revenue sums, newest month first.
// The month is the first 7 characters of the stored date (YYYY-MM).
func (s *Store) MonthlyTotals(ctx context.Context) ([]pos.PeriodTotal, error) {
	return s.queryTotals(ctx, `
		SELECT substr(date, 1, 7) AS month, SUM(total)
		FROM sales GROUP BY month ORDER BY month DESC
	`)
}

func (s *Store) queryTotals(ctx context.Context, query string) ([]pos.PeriodTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	var totals []pos.PeriodTotal
	for rows.Next() {
		var t pos.PeriodTotal
		if err := rows.Scan(&t.Period, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(pos.DateFormat, s)
	return t
}
