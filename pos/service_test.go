package pos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ministore/pos-engine/pos"
	memstore "github.com/ministore/pos-engine/pos/store"
	"github.com/ministore/pos-engine/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// eachStore runs the test against both Store implementations; the ingestion
// semantics must be identical.
func eachStore(t *testing.T, fn func(t *testing.T, store pos.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, memstore.NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		store, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})
}

func stockProducts(t *testing.T, store pos.Store, products ...pos.Product) {
	t.Helper()
	require.NoError(t, store.ReplaceProducts(context.Background(), products))
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 13, 37, 0, 0, time.UTC)
	}
}

func productQty(t *testing.T, store pos.Store, name string) int64 {
	t.Helper()
	p, err := store.GetProduct(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Qty
}

// =============================================================================
// INGESTION OUTCOMES
// =============================================================================

func TestRecordSale_Saved(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 10})
		svc := pos.NewService(store).WithClock(fixedClock(2024, time.May, 20))

		outcome, err := svc.RecordSale(context.Background(), pos.SaleRequest{
			SaleID: "s1",
			Total:  30000,
			Items:  []pos.LineItem{{Name: "bia", Qty: 3}},
		})

		require.NoError(t, err)
		assert.Equal(t, pos.OutcomeSaved, outcome)
		assert.Equal(t, int64(7), productQty(t, store, "bia"))

		rec, err := store.FindSale(context.Background(), "s1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "2024-05-20", rec.DateString())
		assert.Equal(t, int64(30000), rec.Total)
	})
}

func TestRecordSale_DuplicateIsNoOp(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 10})
		svc := pos.NewService(store)
		ctx := context.Background()

		req := pos.SaleRequest{
			SaleID: "s1",
			Total:  30000,
			Items:  []pos.LineItem{{Name: "bia", Qty: 3}},
		}

		outcome, err := svc.RecordSale(ctx, req)
		require.NoError(t, err)
		require.Equal(t, pos.OutcomeSaved, outcome)

		// Resubmitting the identical request deducts nothing.
		outcome, err = svc.RecordSale(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, pos.OutcomeDuplicate, outcome)
		assert.Equal(t, int64(7), productQty(t, store, "bia"))

		// A different payload under the same id is still a duplicate.
		outcome, err = svc.RecordSale(ctx, pos.SaleRequest{
			SaleID: "s1",
			Total:  99999,
			Items:  []pos.LineItem{{Name: "bia", Qty: 7}},
		})
		require.NoError(t, err)
		assert.Equal(t, pos.OutcomeDuplicate, outcome)
		assert.Equal(t, int64(7), productQty(t, store, "bia"))

		sales, err := store.ListSales(ctx)
		require.NoError(t, err)
		assert.Len(t, sales, 1)
	})
}

func TestRecordSale_IgnoredRequests(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 10})
		svc := pos.NewService(store)
		ctx := context.Background()

		cases := []pos.SaleRequest{
			{SaleID: "s3", Total: 0, Items: []pos.LineItem{}},
			{SaleID: "s4", Total: -5, Items: []pos.LineItem{{Name: "bia", Qty: 1}}},
			{SaleID: "s5", Total: 1000, Items: nil},
		}
		for _, req := range cases {
			outcome, err := svc.RecordSale(ctx, req)
			require.NoError(t, err, "sale %s", req.SaleID)
			assert.Equal(t, pos.OutcomeIgnored, outcome, "sale %s", req.SaleID)
		}

		// No state change at all.
		assert.Equal(t, int64(10), productQty(t, store, "bia"))
		sales, err := store.ListSales(ctx)
		require.NoError(t, err)
		assert.Empty(t, sales)
	})
}

func TestRecordSale_MissingSaleID(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		svc := pos.NewService(store)

		_, err := svc.RecordSale(context.Background(), pos.SaleRequest{
			Total: 1000,
			Items: []pos.LineItem{{Name: "bia", Qty: 1}},
		})

		assert.ErrorIs(t, err, pos.ErrInvalidRequest)
	})
}

// =============================================================================
// ATOMICITY / ROLLBACK
// =============================================================================

func TestRecordSale_InsufficientStockRejectsWholeSale(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 7})
		svc := pos.NewService(store)
		ctx := context.Background()

		_, err := svc.RecordSale(ctx, pos.SaleRequest{
			SaleID: "s2",
			Total:  1000000,
			Items:  []pos.LineItem{{Name: "bia", Qty: 100}},
		})

		require.ErrorIs(t, err, pos.ErrInsufficientStock)
		assert.Equal(t, int64(7), productQty(t, store, "bia"))

		rec, err := store.FindSale(ctx, "s2")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestRecordSale_PartialFailureRollsBackEverything(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store,
			pos.Product{Name: "bia", Price: 10000, Qty: 10},
			pos.Product{Name: "banh mi", Price: 15000, Qty: 1},
		)
		svc := pos.NewService(store)
		ctx := context.Background()

		// First item fits, second does not: neither may apply.
		_, err := svc.RecordSale(ctx, pos.SaleRequest{
			SaleID: "s-partial",
			Total:  50000,
			Items: []pos.LineItem{
				{Name: "bia", Qty: 2},
				{Name: "banh mi", Qty: 5},
			},
		})

		require.ErrorIs(t, err, pos.ErrInsufficientStock)
		assert.Equal(t, int64(10), productQty(t, store, "bia"))
		assert.Equal(t, int64(1), productQty(t, store, "banh mi"))

		rec, err := store.FindSale(ctx, "s-partial")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestRecordSale_UnknownProductRejected(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 10})
		svc := pos.NewService(store)

		_, err := svc.RecordSale(context.Background(), pos.SaleRequest{
			SaleID: "s-ghost",
			Total:  1000,
			Items:  []pos.LineItem{{Name: "pho", Qty: 1}},
		})

		require.ErrorIs(t, err, pos.ErrProductNotFound)
		var notFound *pos.ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "pho", notFound.Name)
	})
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestRecordSale_ConcurrentSalesNeverOversell(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		// 10 on hand, 6 concurrent attempts of 3 each: at most 3 can win.
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 10})
		svc := pos.NewService(store)
		ctx := context.Background()

		const attempts = 6
		outcomes := make([]pos.Outcome, attempts)
		errs := make([]error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i], errs[i] = svc.RecordSale(ctx, pos.SaleRequest{
					SaleID: "concurrent-" + string(rune('a'+i)),
					Total:  30000,
					Items:  []pos.LineItem{{Name: "bia", Qty: 3}},
				})
			}(i)
		}
		wg.Wait()

		var saved int64
		for i := 0; i < attempts; i++ {
			if errs[i] == nil {
				require.Equal(t, pos.OutcomeSaved, outcomes[i])
				saved++
			} else {
				require.ErrorIs(t, errs[i], pos.ErrInsufficientStock)
			}
		}

		assert.Equal(t, int64(3), saved)
		assert.Equal(t, int64(10-3*saved), productQty(t, store, "bia"))
	})
}

func TestRecordSale_ConcurrentSameSaleIDAppliesOnce(t *testing.T) {
	eachStore(t, func(t *testing.T, store pos.Store) {
		stockProducts(t, store, pos.Product{Name: "bia", Price: 10000, Qty: 100})
		svc := pos.NewService(store)
		ctx := context.Background()

		const attempts = 8
		outcomes := make([]pos.Outcome, attempts)
		errs := make([]error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i], errs[i] = svc.RecordSale(ctx, pos.SaleRequest{
					SaleID: "retry-storm",
					Total:  30000,
					Items:  []pos.LineItem{{Name: "bia", Qty: 3}},
				})
			}(i)
		}
		wg.Wait()

		saved, duplicates := 0, 0
		for i := 0; i < attempts; i++ {
			require.NoError(t, errs[i])
			switch outcomes[i] {
			case pos.OutcomeSaved:
				saved++
			case pos.OutcomeDuplicate:
				duplicates++
			}
		}

		// Exactly one round of deduction regardless of interleaving.
		assert.Equal(t, 1, saved)
		assert.Equal(t, attempts-1, duplicates)
		assert.Equal(t, int64(97), productQty(t, store, "bia"))

		sales, err := store.ListSales(ctx)
		require.NoError(t, err)
		assert.Len(t, sales, 1)
	})
}
