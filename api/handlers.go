/*
handlers.go - HTTP API handlers for the POS engine

PURPOSE:
  Exposes sale ingestion, the product catalog, and revenue aggregation via
  REST. Handles HTTP request/response and JSON serialization; all business
  rules live in the pos package.

ENDPOINTS:
  GET    /api/health            Liveness check
  POST   /api/unlock            PIN check for the client lock screen
  GET    /api/products          Full catalog
  POST   /api/products          Atomic catalog replace
  POST   /api/sales             Record a sale (idempotent per sale_id)
  GET    /api/sales/daily       Per-day revenue sums
  GET    /api/sales/monthly     Per-month revenue sums
  GET    /api/sales/monthly.csv CSV export of the monthly summary
  GET    /api/sales/latest      Most recent sales (debug)
  GET    /api/sales/stats       Ledger-wide revenue statistics
  GET    /api/backup            Raw database file download
  POST   /api/admin/seed        Demo data loader

ERROR HANDLING:
  Business-rule failures surface as JSON with appropriate status:
  - 400: malformed input (missing sale_id, bad body)
  - 409: rejected sale (unknown product, insufficient stock)
  - 500: storage failures (never leaked raw)
  Duplicate and ignored sales are NOT errors; they return 200 with their
  outcome flag so retrying POS clients can distinguish the cases.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scenarios.go: Demo data seeding
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ministore/pos-engine/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Config carries the injected collaborator settings.
type Config struct {
	// PIN is the shared client secret compared at the boundary.
	PIN string
	// BackupPath is the database file served by /api/backup. Empty
	// disables the endpoint (e.g. in-memory stores).
	BackupPath string
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store      pos.Store
	service    *pos.Service
	aggregator *pos.Aggregator
	pin        string
	backupPath string
}

// NewHandler creates a handler over the given store.
func NewHandler(store pos.Store, cfg Config) *Handler {
	return &Handler{
		store:      store,
		service:    pos.NewService(store),
		aggregator: pos.NewAggregator(store),
		pin:        cfg.PIN,
		backupPath: cfg.BackupPath,
	}
}

// =============================================================================
// HEALTH / UNLOCK
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Unlock checks the PIN supplied by the client lock screen.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PIN != h.pin {
		writeJSON(w, http.StatusUnauthorized, UnlockResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, UnlockResponse{OK: true})
}

// =============================================================================
// PRODUCTS
// =============================================================================

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ProductDTO{Name: p.Name, Price: p.Price, Qty: p.Qty}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReplaceProducts atomically swaps the entire catalog. This administrative
// path bypasses the inventory guard and sale idempotency.
func (h *Handler) ReplaceProducts(w http.ResponseWriter, r *http.Request) {
	var dtos []ProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	products := make([]pos.Product, len(dtos))
	for i, d := range dtos {
		if d.Name == "" || d.Price < 0 || d.Qty < 0 {
			writeError(w, http.StatusBadRequest, "Invalid product entry", nil)
			return
		}
		products[i] = pos.Product{Name: d.Name, Price: d.Price, Qty: d.Qty}
	}

	if err := h.store.ReplaceProducts(r.Context(), products); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to replace products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// =============================================================================
// SALES
// =============================================================================

// RecordSale ingests one sale submission.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	items := make([]pos.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = pos.LineItem{Name: it.Name, Qty: it.Qty}
	}

	outcome, err := h.service.RecordSale(r.Context(), pos.SaleRequest{
		SaleID: req.SaleID,
		Total:  req.Total,
		Items:  items,
	})
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Failed to record sale"
		if pos.IsClientError(err) {
			status, msg = http.StatusConflict, err.Error()
			if errors.Is(err, pos.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
		}
		writeJSON(w, status, SaleResponse{Error: msg})
		return
	}

	switch outcome {
	case pos.OutcomeDuplicate:
		writeJSON(w, http.StatusOK, SaleResponse{Duplicate: true})
	case pos.OutcomeIgnored:
		writeJSON(w, http.StatusOK, SaleResponse{Ignored: true})
	default:
		writeJSON(w, http.StatusOK, SaleResponse{Saved: true})
	}
}

// DailySales returns per-day revenue sums, newest first.
func (h *Handler) DailySales(w http.ResponseWriter, r *http.Request) {
	totals, err := h.aggregator.DailyTotals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate daily sales", err)
		return
	}

	dtos := make([]DailyTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = DailyTotalDTO{Date: t.Period, Total: t.Total}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MonthlySales returns per-month revenue sums, newest first.
func (h *Handler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	totals, err := h.aggregator.MonthlyTotals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate monthly sales", err)
		return
	}

	dtos := make([]MonthlyTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = MonthlyTotalDTO{Month: t.Period, Total: t.Total}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MonthlyCSV serves the monthly summary as a CSV attachment.
func (h *Handler) MonthlyCSV(w http.ResponseWriter, r *http.Request) {
	csv, err := h.aggregator.MonthlyCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export monthly sales", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="monthly.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}

// LatestSales returns the n most recent sales. Debug endpoint.
func (h *Handler) LatestSales(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid n parameter", err)
			return
		}
		n = parsed
	}

	sales, err := h.aggregator.LatestSales(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleRecordDTO, len(sales))
	for i, s := range sales {
		dtos[i] = SaleRecordDTO{SaleID: s.ID, Date: s.DateString(), Total: s.Total}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SalesStats returns ledger-wide revenue statistics.
func (h *Handler) SalesStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.aggregator.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	writeJSON(w, http.StatusOK, StatsDTO{
		Sales:         stats.Sales,
		GrossRevenue:  stats.GrossRevenue,
		AverageTicket: stats.AverageTicket.StringFixed(2),
	})
}

// =============================================================================
// BACKUP
// =============================================================================

// Backup serves the raw database file for download.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	if h.backupPath == "" {
		writeError(w, http.StatusNotFound, "Backup not available for this store", nil)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="database.db"`)
	http.ServeFile(w, r, h.backupPath)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
