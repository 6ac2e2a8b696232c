package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-pipeline/internal/domain/inventory"
	"github.com/xenking/order-pipeline/internal/domain/product"
)

const instrumentationName = "github.com/xenking/order-pipeline/internal/domain/order"

// availabilityConcurrency bounds the fan-out of pre-flight stock checks.
const availabilityConcurrency = 4

// ErrEmptyProductIDs is returned for a placement request without product ids.
var ErrEmptyProductIDs = errors.New("productIds required")

// UnavailableError reports every distinct product that failed the pre-flight
// availability check. Nothing was reserved or persisted.
type UnavailableError struct {
	ProductIDs []string
}

func (e *UnavailableError) Error() string {
	return "insufficient inventory for products: " + strings.Join(e.ProductIDs, ", ")
}

// ReservationFailedError indicates the inventory service refused or failed a
// reservation mid-placement. The local transaction was rolled back and all
// reservations granted earlier in the same run were released.
type ReservationFailedError struct {
	ProductID string
}

func (e *ReservationFailedError) Error() string {
	return fmt.Sprintf("failed to reserve inventory for product %s", e.ProductID)
}

// ProductNotFoundError indicates the catalog has no data for a requested
// product. Placement fails as a whole; items are never silently skipped.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Service drives the order placement workflow across the catalog, the
// inventory service, and the local order store.
type Service struct {
	catalog   product.Catalog
	inventory inventory.Client
	store     Store

	tracer         trace.Tracer
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

// NewService creates an order placement Service. The tracer and meter
// providers may be no-op implementations.
func NewService(
	catalog product.Catalog,
	inv inventory.Client,
	store Store,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Service, error) {
	meter := mp.Meter(instrumentationName)

	placed, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders committed successfully"))
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}

	rejected, err := meter.Int64Counter("orders_rejected_total",
		metric.WithDescription("Order placements that failed, by reason"))
	if err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}

	return &Service{
		catalog:        catalog,
		inventory:      inv,
		store:          store,
		tracer:         tp.Tracer(instrumentationName),
		ordersPlaced:   placed,
		ordersRejected: rejected,
	}, nil
}

// PlaceOrder runs the placement workflow for the given product ids, quantity
// one per occurrence (duplicates are processed independently, not merged).
//
// Phases:
//  1. Availability pre-flight for every distinct product. Any miss rejects
//     the whole request before a transaction is opened.
//  2. Open the store transaction; the order row exists from here on.
//  3. Per item, in input order: fetch the product, reserve stock, write the
//     line item. A missing product or failed reservation aborts placement.
//  4. Set the total and commit.
//
// Every failure after phase 2 rolls the transaction back and releases all
// reservations granted in this run.
func (s *Service) PlaceOrder(ctx context.Context, productIDs []string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder",
		trace.WithAttributes(attribute.Int("order.requested_items", len(productIDs))))
	defer span.End()

	if len(productIDs) == 0 {
		return nil, ErrEmptyProductIDs
	}

	if unavailable := s.unavailableProducts(ctx, productIDs); len(unavailable) > 0 {
		s.recordRejected(ctx, "unavailable")
		return nil, &UnavailableError{ProductIDs: unavailable}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin order")
	}

	var reserved []string
	fail := func(reason string, cause error) (*Order, error) {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zctx.From(ctx).Error("Rollback failed",
				zap.String("order_id", tx.OrderID()),
				zap.Error(rbErr),
			)
		}
		s.releaseReservations(ctx, reserved)
		s.recordRejected(ctx, reason)
		return nil, cause
	}

	total := decimal.Zero
	for _, pid := range productIDs {
		p, err := s.catalog.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return fail("product_not_found", &ProductNotFoundError{ProductID: pid})
			}
			return fail("catalog_unreachable", errors.Wrapf(err, "fetch product %s", pid))
		}

		if err := s.inventory.Reserve(ctx, pid, 1); err != nil {
			zctx.From(ctx).Warn("Reservation failed",
				zap.String("product_id", pid),
				zap.Error(err),
			)
			return fail("reservation_failed", &ReservationFailedError{ProductID: pid})
		}
		reserved = append(reserved, pid)

		item := Item{ProductID: pid, ProductName: p.Name, Price: p.Price}
		if err := tx.AddItem(ctx, item); err != nil {
			return fail("store_error", errors.Wrapf(err, "add item %s", pid))
		}
		total = total.Add(p.Price)
	}

	if err := tx.SetTotal(ctx, total.Round(2)); err != nil {
		return fail("store_error", errors.Wrap(err, "set total"))
	}
	if err := tx.Commit(ctx); err != nil {
		return fail("store_error", errors.Wrap(err, "commit order"))
	}

	s.ordersPlaced.Add(ctx, 1)
	span.SetAttributes(attribute.String("order.id", tx.OrderID()))

	return s.store.GetOrder(ctx, tx.OrderID())
}

// unavailableProducts checks stock for every distinct product id and returns
// the ones that failed, in first-occurrence order. Checks are read-only, so
// they fan out concurrently; line-item writes stay strictly sequential.
func (s *Service) unavailableProducts(ctx context.Context, productIDs []string) []string {
	seen := make(map[string]struct{}, len(productIDs))
	distinct := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	available := make([]bool, len(distinct))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityConcurrency)
	for i, id := range distinct {
		g.Go(func() error {
			available[i] = s.inventory.CheckAvailable(ctx, id, 1)
			return nil
		})
	}
	_ = g.Wait() // availability checks never return errors

	var unavailable []string
	for i, ok := range available {
		if !ok {
			unavailable = append(unavailable, distinct[i])
		}
	}
	return unavailable
}

// releaseReservations compensates reservations granted earlier in a failed
// run. Best effort: a failed release is logged, not retried, and the stock
// stays held until the inventory service expires it.
func (s *Service) releaseReservations(ctx context.Context, productIDs []string) {
	for _, pid := range productIDs {
		if err := s.inventory.Release(ctx, pid, 1); err != nil {
			zctx.From(ctx).Error("Release failed",
				zap.String("product_id", pid),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) recordRejected(ctx context.Context, reason string) {
	s.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
