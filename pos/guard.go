package pos

// Deductions validates line items against a stock snapshot and returns the
// per-product quantities to subtract. It is pure: callers (store
// implementations) must invoke it on a snapshot read inside the same
// transaction that applies the result, so the check and the write see the
// same state.
//
// Validation is all-or-nothing. Items are checked in request order and the
// first failing item determines the reported error; duplicate names
// accumulate into a single delta and are validated against their combined
// quantity.
func Deductions(stock map[string]Product, items []LineItem) (map[string]int64, error) {
	deltas := make(map[string]int64, len(items))
	for _, item := range items {
		if item.Name == "" || item.Qty <= 0 {
			return nil, ErrInvalidRequest
		}
		p, ok := stock[item.Name]
		if !ok {
			return nil, &ProductNotFoundError{Name: item.Name}
		}
		requested := deltas[item.Name] + item.Qty
		if p.Qty < requested {
			return nil, &InsufficientStockError{
				Name:      item.Name,
				Available: p.Qty,
				Requested: requested,
			}
		}
		deltas[item.Name] = requested
	}
	return deltas, nil
}
