package handler

import (
	"net/http"

	"handmade-kart/internal/model"
	"handmade-kart/internal/service"

	"github.com/rs/zerolog"
)

// OrderResponse wraps a placed order.
type OrderResponse struct {
	Success bool         `json:"success"`
	Order   *model.Order `json:"order"`
}

// OrderListResponse wraps an order listing.
type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
}

func newOrderList(orders []model.Order) OrderListResponse {
	if orders == nil {
		orders = []model.Order{}
	}
	return OrderListResponse{Orders: orders}
}

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, payments service.PaymentService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		payments: payments,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), identityOf(r), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, OrderResponse{Success: true, Order: order})
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), identityOf(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, newOrderList(orders))
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order", h.logger)
	if !ok {
		return
	}

	order, err := h.orders.GetByID(r.Context(), identityOf(r), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdatePayment handles PUT /api/orders/{id}/update-payment requests.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order", h.logger)
	if !ok {
		return
	}

	var req model.PaymentUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.payments.UpdatePayment(r.Context(), identityOf(r), orderID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListAll handles GET /api/admin/orders requests.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), identityOf(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, newOrderList(orders))
}

// UpdateAdmin handles PATCH /api/admin/orders requests.
func (h *OrderHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var update model.OrderUpdate
	if !decodeJSON(w, r, &update, h.logger) {
		return
	}

	order, err := h.orders.UpdateAdmin(r.Context(), identityOf(r), &update)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
