// Package inventory defines the contract with the inventory collaborator.
package inventory

import "context"

// Client talks to the inventory service. Reservations are keyed by product:
// the collaborator does not hand out reservation identifiers, so releasing a
// reservation repeats the product id and amount.
type Client interface {
	// CheckAvailable reports whether at least qty units of the product are in
	// stock. An unreachable collaborator or a malformed response counts as
	// unavailable; this method never returns an error.
	CheckAvailable(ctx context.Context, productID string, qty int) bool

	// Reserve places a hold on qty units of the product.
	Reserve(ctx context.Context, productID string, qty int) error

	// Release returns qty previously reserved units of the product to stock.
	// It compensates a Reserve when a later order placement step fails.
	Release(ctx context.Context, productID string, qty int) error
}
