// Package handler exposes the order service HTTP surface.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/order-pipeline/internal/domain/order"
)

// OrderPlacer runs the order placement workflow.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, productIDs []string) (*order.Order, error)
}

// OrderReader serves single and bulk order reads.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// Handler maps HTTP requests onto the order placement and query services.
type Handler struct {
	placer OrderPlacer
	reader OrderReader
}

// NewHandler constructs a Handler with the required services.
func NewHandler(placer OrderPlacer, reader OrderReader) *Handler {
	return &Handler{placer: placer, reader: reader}
}

// Routes registers all order endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
}

type errorResponse struct {
	Error               string   `json:"error"`
	UnavailableProducts []string `json:"unavailable_products,omitempty"`
}

// Money fields are json.Number so decimal amounts reach the wire exactly as
// stored, without a float64 round trip.
type orderResponse struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Total     json.Number         `json:"total"`
	Products  []orderItemResponse `json:"products"`
}

type orderItemResponse struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Price       json.Number `json:"price"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       json.Number(it.Price.StringFixed(2)),
		}
	}
	return orderResponse{
		ID:        o.ID,
		CreatedAt: o.CreatedAt,
		Total:     json.Number(o.Total.StringFixed(2)),
		Products:  items,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
