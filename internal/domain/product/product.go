package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the catalog has no usable data for a product.
// A malformed catalog response is treated the same as an unknown product.
var ErrNotFound = errors.New("product not found")

// ErrUnavailable is returned when the catalog collaborator cannot be reached
// within the configured timeout.
var ErrUnavailable = errors.New("catalog unavailable")

// Product is the slice of catalog data the order pipeline cares about.
// Name and price are captured into order line items at placement time.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Catalog provides product lookups from the catalog collaborator.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}
