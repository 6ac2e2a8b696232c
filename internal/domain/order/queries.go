package order

import "context"

// Queries is the read side of the order service. It never mutates state and
// needs no transaction; repeated reads are safe to retry.
type Queries struct {
	store Store
}

// NewQueries creates the read-side query service.
func NewQueries(store Store) *Queries {
	return &Queries{store: store}
}

// GetOrder returns a single order with its line items, or ErrNotFound.
func (q *Queries) GetOrder(ctx context.Context, id string) (*Order, error) {
	return q.store.GetOrder(ctx, id)
}

// ListOrders returns all orders newest-first, each with its line items.
func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	return q.store.ListOrders(ctx)
}
