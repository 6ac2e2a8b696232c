package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-pipeline/internal/domain/order"
)

// --- Mock implementations ---

type mockPlacer struct {
	order *order.Order
	err   error

	gotProductIDs []string
}

func (m *mockPlacer) PlaceOrder(_ context.Context, productIDs []string) (*order.Order, error) {
	m.gotProductIDs = productIDs
	return m.order, m.err
}

type mockReader struct {
	order  *order.Order
	orders []order.Order
	err    error
}

func (m *mockReader) GetOrder(_ context.Context, _ string) (*order.Order, error) {
	return m.order, m.err
}

func (m *mockReader) ListOrders(_ context.Context) ([]order.Order, error) {
	return m.orders, m.err
}

// --- Helpers ---

func newRouter(placer OrderPlacer, reader OrderReader) http.Handler {
	r := chi.NewRouter()
	NewHandler(placer, reader).Routes(r)
	return r
}

func sampleOrder() *order.Order {
	return &order.Order{
		ID:        "9d2e7c2a-1111-4222-8333-444455556666",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Total:     decimal.RequireFromString("9.50"),
		Items: []order.Item{
			{ProductID: "p1", ProductName: "Waffle", Price: decimal.RequireFromString("5.95")},
			{ProductID: "p2", ProductName: "Tea", Price: decimal.RequireFromString("3.55")},
		},
	}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// --- Tests ---

func TestCreateOrder(t *testing.T) {
	placer := &mockPlacer{order: sampleOrder()}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":["p1","p2"]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"p1", "p2"}, placer.gotProductIDs)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "9d2e7c2a-1111-4222-8333-444455556666", resp["id"])
	assert.Equal(t, 9.50, resp["total"])
	products, ok := resp["products"].([]any)
	require.True(t, ok)
	require.Len(t, products, 2)
	first := products[0].(map[string]any)
	assert.Equal(t, "p1", first["product_id"])
	assert.Equal(t, "Waffle", first["product_name"])
	assert.Equal(t, 5.95, first["price"])
}

func TestCreateOrder_MoneyEncodedAsExactDecimals(t *testing.T) {
	placer := &mockPlacer{order: sampleOrder()}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":["p1","p2"]}`)

	require.Equal(t, http.StatusCreated, w.Code)
	// Amounts are emitted as raw decimal numbers, not float64 conversions.
	assert.Contains(t, w.Body.String(), `"total":9.50`)
	assert.Contains(t, w.Body.String(), `"price":5.95`)
	assert.Contains(t, w.Body.String(), `"price":3.55`)
}

func TestCreateOrder_BadJSON(t *testing.T) {
	h := newRouter(&mockPlacer{}, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "productIds required", resp["error"])
}

func TestCreateOrder_EmptyProductIDs(t *testing.T) {
	placer := &mockPlacer{err: order.ErrEmptyProductIDs}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder_InsufficientInventory(t *testing.T) {
	placer := &mockPlacer{err: &order.UnavailableError{ProductIDs: []string{"p2", "p9"}}}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":["p2","p9"]}`)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Error               string   `json:"error"`
		UnavailableProducts []string `json:"unavailable_products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Insufficient inventory", resp.Error)
	assert.Equal(t, []string{"p2", "p9"}, resp.UnavailableProducts)
}

func TestCreateOrder_ReservationFailed(t *testing.T) {
	placer := &mockPlacer{err: &order.ReservationFailedError{ProductID: "p3"}}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":["p3"]}`)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to reserve inventory for product: p3", resp["error"])
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	placer := &mockPlacer{err: &order.ProductNotFoundError{ProductID: "ghost"}}
	h := newRouter(placer, &mockReader{})

	w := doRequest(t, h, http.MethodPost, "/orders", `{"productIds":["ghost"]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetOrder(t *testing.T) {
	h := newRouter(&mockPlacer{}, &mockReader{order: sampleOrder()})

	w := doRequest(t, h, http.MethodGet, "/orders/9d2e7c2a-1111-4222-8333-444455556666", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9.50, resp["total"])
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newRouter(&mockPlacer{}, &mockReader{err: order.ErrNotFound})

	w := doRequest(t, h, http.MethodGet, "/orders/unknown", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Order not found", resp["error"])
}

func TestListOrders(t *testing.T) {
	h := newRouter(&mockPlacer{}, &mockReader{orders: []order.Order{*sampleOrder()}})

	w := doRequest(t, h, http.MethodGet, "/orders", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "9d2e7c2a-1111-4222-8333-444455556666", resp[0]["id"])
}

func TestListOrders_Empty(t *testing.T) {
	h := newRouter(&mockPlacer{}, &mockReader{})

	w := doRequest(t, h, http.MethodGet, "/orders", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
