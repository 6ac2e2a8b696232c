package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-pipeline/internal/domain/inventory"
)

var _ inventory.Client = (*InventoryClient)(nil)

// InventoryClient checks, reserves, and releases stock via the inventory
// service.
type InventoryClient struct {
	baseURL string
	httpc   *http.Client
}

// NewInventoryClient creates an inventory client for the given base URL.
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   newHTTPClient(timeout),
	}
}

// CheckAvailable reports whether at least qty units are in stock. Transport
// failures and malformed responses count as unavailable rather than errors;
// the cause is logged for operators.
func (c *InventoryClient) CheckAvailable(ctx context.Context, productID string, qty int) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/inventory/"+url.PathEscape(productID), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		zctx.From(ctx).Warn("Inventory check failed",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return false
	}

	body, err := readBody(resp)
	if err != nil || !is2xx(resp.StatusCode) {
		return false
	}

	available, err := decodeQuantityAvailable(body)
	if err != nil {
		zctx.From(ctx).Debug("Malformed inventory response",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return false
	}
	return available >= qty
}

// Reserve places a hold on qty units of the product.
func (c *InventoryClient) Reserve(ctx context.Context, productID string, qty int) error {
	return c.post(ctx, "/inventory/reserve", productID, qty)
}

// Release returns qty previously reserved units to stock.
func (c *InventoryClient) Release(ctx context.Context, productID string, qty int) error {
	return c.post(ctx, "/inventory/release", productID, qty)
}

func (c *InventoryClient) post(ctx context.Context, path, productID string, qty int) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_uid", func(e *jx.Encoder) { e.Str(productID) })
		e.Field("amount", func(e *jx.Encoder) { e.Int(qty) })
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post %s", path)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()

	if !is2xx(resp.StatusCode) {
		return errors.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

func decodeQuantityAvailable(body []byte) (int, error) {
	var (
		available int
		found     bool
	)

	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity_available" {
			return d.Skip()
		}
		v, err := d.Int()
		if err != nil {
			return errors.Wrap(err, "quantity_available")
		}
		available = v
		found = true
		return nil
	}); err != nil {
		return 0, err
	}

	if !found {
		return 0, errors.New("missing quantity_available")
	}
	return available, nil
}
