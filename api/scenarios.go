/*
scenarios.go - Demo data seeding

PURPOSE:
  Loads a realistic demo dataset for local development and frontend work:
  restocks the catalog and backfills two months of sales with generated
  sale ids. Applied through the same ApplySale path as real sales, so the
  seeded ledger satisfies every invariant the real one does.
*/
package api

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ministore/pos-engine/pos"
)

const seedDays = 60

// SeedDemo restocks the catalog and generates demo sales over the past
// two months. POST /api/admin/seed
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.store.ListProducts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read catalog", err)
		return
	}
	if len(products) == 0 {
		writeError(w, http.StatusConflict, "Catalog is empty; replace products first", nil)
		return
	}

	// Restock generously so the generated sales always validate.
	for i := range products {
		products[i].Qty += seedDays * 10
	}
	if err := h.store.ReplaceProducts(ctx, products); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to restock catalog", err)
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	today := time.Now()
	seeded := 0

	for day := 0; day < seedDays; day++ {
		date := today.AddDate(0, 0, -day)
		for n := rng.Intn(4); n > 0; n-- {
			p := products[rng.Intn(len(products))]
			qty := int64(rng.Intn(3) + 1)

			sale := pos.SaleRecord{
				ID:    uuid.NewString(),
				Date:  date,
				Total: p.Price * qty,
			}
			items := []pos.LineItem{{Name: p.Name, Qty: qty}}
			if err := h.store.ApplySale(ctx, sale, items); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to seed sale", err)
				return
			}
			seeded++
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"seeded": seeded})
}
