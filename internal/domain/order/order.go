package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a placed customer order with its line items.
type Order struct {
	ID        string
	CreatedAt time.Time
	Total     decimal.Decimal
	Items     []Item
}

// Item is one priced line item within an order. Name and price are copied
// from the catalog at placement time and never updated afterwards.
type Item struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
}

// Store provides durable order persistence. Begin opens a transactional unit
// of work scoped to a single new order; reads go directly against committed
// state and need no transaction.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}

// Tx is an open order-placement transaction. The order row already exists
// (with total 0) when Begin returns, so line items can reference it.
// Exactly one of Commit or Rollback must be called; Rollback after Commit is
// a no-op so it is safe to defer.
type Tx interface {
	OrderID() string
	AddItem(ctx context.Context, item Item) error
	SetTotal(ctx context.Context, total decimal.Decimal) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
