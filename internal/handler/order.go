package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-pipeline/internal/domain/order"
	"github.com/xenking/order-pipeline/internal/domain/product"
)

type createOrderRequest struct {
	ProductIDs []string `json:"productIds"`
}

// createOrder handles POST /orders: it runs the placement workflow and
// returns the persisted order, or a structured failure with enough detail
// for the caller to decide whether to retry.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "productIds required")
		return
	}

	o, err := h.placer.PlaceOrder(r.Context(), req.ProductIDs)
	if err != nil {
		writeOrderError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(*o))
}

// getOrder handles GET /orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.reader.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		zctx.From(r.Context()).Error("Get order failed", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

// listOrders handles GET /orders, newest-first.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reader.ListOrders(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("List orders failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeOrderError converts placement errors to HTTP responses.
func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		unavailErr *order.UnavailableError
		resErr     *order.ReservationFailedError
		pnfErr     *order.ProductNotFoundError
	)

	switch {
	case errors.Is(err, order.ErrEmptyProductIDs):
		writeError(w, http.StatusBadRequest, "productIds required")

	case errors.As(err, &unavailErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:               "Insufficient inventory",
			UnavailableProducts: unavailErr.ProductIDs,
		})

	case errors.As(err, &resErr):
		writeError(w, http.StatusConflict,
			"Failed to reserve inventory for product: "+resErr.ProductID)

	case errors.As(err, &pnfErr):
		writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())

	case errors.Is(err, product.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "catalog unavailable")

	default:
		zctx.From(ctx).Error("Place order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
