package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-pipeline/internal/domain/product"
)

var _ product.Catalog = (*CatalogClient)(nil)

// CatalogClient fetches product data from the catalog service.
type CatalogClient struct {
	baseURL string
	httpc   *http.Client
}

// NewCatalogClient creates a catalog client for the given base URL.
func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   newHTTPClient(timeout),
	}
}

// GetByID fetches one product. An unreachable catalog maps to
// product.ErrUnavailable; a non-2xx status or a response without a usable
// price maps to product.ErrNotFound.
func (c *CatalogClient) GetByID(ctx context.Context, id string) (*product.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/products/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(product.ErrUnavailable, "get product %s: %v", id, err)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, errors.Wrapf(product.ErrUnavailable, "read product %s: %v", id, err)
	}
	if !is2xx(resp.StatusCode) {
		return nil, product.ErrNotFound
	}

	p, err := decodeProduct(body, id)
	if err != nil {
		zctx.From(ctx).Debug("Malformed catalog response",
			zap.String("product_id", id),
			zap.Error(err),
		)
		return nil, product.ErrNotFound
	}
	return p, nil
}

// decodeProduct pulls name and price out of a catalog response, ignoring
// every other field. Price is required; a missing name falls back to
// "Unknown Product".
func decodeProduct(body []byte, id string) (*product.Product, error) {
	var (
		name     string
		price    decimal.Decimal
		hasPrice bool
	)

	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			name = v
			return nil
		case "price":
			raw, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			v, err := decimal.NewFromString(raw.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			price = v
			hasPrice = true
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}

	if !hasPrice || price.IsNegative() {
		return nil, errors.New("missing or invalid price")
	}
	if name == "" {
		name = "Unknown Product"
	}

	return &product.Product{ID: id, Name: name, Price: price}, nil
}
