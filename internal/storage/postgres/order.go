package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-pipeline/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (total) VALUES (0) RETURNING id`

	insertItemSQL = `INSERT INTO order_items (order_id, product_id, product_name, price)
		VALUES ($1, $2, $3, $4)`

	setTotalSQL = `UPDATE orders SET total = $1 WHERE id = $2`

	getOrderSQL = `SELECT id, created_at, total FROM orders WHERE id = $1`

	// Orders sharing a created_at timestamp carry no relative ordering; the
	// id tie-break only keeps repeated reads stable, it does not preserve
	// insertion order within a tie.
	listOrdersSQL = `SELECT id, created_at, total FROM orders
		ORDER BY created_at DESC, id`

	getItemsSQL = `SELECT product_id, product_name, price FROM order_items
		WHERE order_id = $1 ORDER BY id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Begin opens a transaction and inserts the order row with total 0. The
// generated order id is available on the returned Tx so line items can
// reference it before commit.
func (s *OrderStore) Begin(ctx context.Context) (order.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}

	var id string
	if err := tx.QueryRow(ctx, insertOrderSQL).Scan(&id); err != nil {
		_ = tx.Rollback(ctx)
		return nil, errors.Wrap(err, "insert order")
	}

	return &orderTx{tx: tx, id: id}, nil
}

// GetOrder returns the order with its line items eagerly loaded, in
// insertion order, or order.ErrNotFound.
func (s *OrderStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o.Items, err = s.getItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns all orders newest-first, populating each order's items
// with a secondary lookup keyed on the order id.
func (s *OrderStore) ListOrders(ctx context.Context) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	out, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	for i := range out {
		out[i].Items, err = s.getItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *OrderStore) getItems(ctx context.Context, orderID string) ([]order.Item, error) {
	rows, err := s.pool.Query(ctx, getItemsSQL, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "get items for order %q", orderID)
	}
	return pgx.CollectRows(rows, scanItem)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o     order.Order
		total decimal.Decimal
	)
	err := row.Scan(&o.ID, &o.CreatedAt, &total)
	o.Total = total
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		it    order.Item
		price decimal.Decimal
	)
	err := row.Scan(&it.ProductID, &it.ProductName, &price)
	it.Price = price
	return it, err
}

// orderTx is an open order-placement transaction.
type orderTx struct {
	tx pgx.Tx
	id string
}

var _ order.Tx = (*orderTx)(nil)

func (t *orderTx) OrderID() string {
	return t.id
}

func (t *orderTx) AddItem(ctx context.Context, item order.Item) error {
	_, err := t.tx.Exec(ctx, insertItemSQL, t.id, item.ProductID, item.ProductName, item.Price)
	if err != nil {
		return errors.Wrapf(err, "insert item %q", item.ProductID)
	}
	return nil
}

func (t *orderTx) SetTotal(ctx context.Context, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, setTotalSQL, total, t.id)
	if err != nil {
		return errors.Wrapf(err, "set total for order %q", t.id)
	}
	return nil
}

func (t *orderTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback aborts the transaction. Calling it after Commit returns nil so
// callers can defer it on every path.
func (t *orderTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
