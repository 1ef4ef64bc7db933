/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures of the API contract, decoupled from the
  domain types so fields can evolve without breaking POS clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain service, not in DTOs.
  DTOs are pure data carriers.
*/
package api

// ProductDTO represents a catalog entry in requests and responses.
type ProductDTO struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

// LineItemDTO is one (product, quantity) pair of a sale submission.
type LineItemDTO struct {
	Name string `json:"name"`
	Qty  int64  `json:"qty"`
}

// SaleRequest is the body of POST /api/sales.
type SaleRequest struct {
	SaleID string        `json:"sale_id"`
	Total  int64         `json:"total"`
	Items  []LineItemDTO `json:"items"`
}

// SaleResponse reports the outcome of a sale submission. Exactly one field
// is set.
type SaleResponse struct {
	Saved     bool   `json:"saved,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SaleRecordDTO represents a persisted sale in responses.
type SaleRecordDTO struct {
	SaleID string `json:"sale_id"`
	Date   string `json:"date"`
	Total  int64  `json:"total"`
}

// DailyTotalDTO is one row of the daily revenue summary.
type DailyTotalDTO struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

// MonthlyTotalDTO is one row of the monthly revenue summary.
type MonthlyTotalDTO struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}

// StatsDTO summarizes the whole ledger.
type StatsDTO struct {
	Sales         int64  `json:"sales"`
	GrossRevenue  int64  `json:"gross_revenue"`
	AverageTicket string `json:"average_ticket"`
}

// UnlockRequest is the body of POST /api/unlock.
type UnlockRequest struct {
	PIN string `json:"pin"`
}

// UnlockResponse reports whether the PIN matched.
type UnlockResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
