package handler

import (
	"net/http"

	"handmade-kart/internal/model"
	"handmade-kart/internal/service"

	"github.com/rs/zerolog"
)

// AddToCartResponse acknowledges an add and describes the affected line.
type AddToCartResponse struct {
	Success  bool                 `json:"success"`
	CartItem *model.AddedCartItem `json:"cartItem"`
}

// CartChangeResponse acknowledges a line update or removal and carries the resulting cart.
type CartChangeResponse struct {
	Success bool            `json:"success"`
	Cart    *model.CartView `json:"cart,omitempty"`
}

// CartHandler handles cart HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Add handles POST /api/cart/add requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	item, err := h.service.AddItem(r.Context(), identityOf(r), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, AddToCartResponse{Success: true, CartItem: item})
}

// Items handles GET /api/cart/items requests.
func (h *CartHandler) Items(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), identityOf(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/cart/items/{id} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "cart item", h.logger)
	if !ok {
		return
	}

	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.UpdateItemQuantity(r.Context(), identityOf(r), itemID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, CartChangeResponse{Success: true, Cart: cart})
}

// RemoveItem handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "cart item", h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), identityOf(r), itemID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, CartChangeResponse{Success: true, Cart: cart})
}

// Clear handles DELETE /api/cart/items requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), identityOf(r)); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared"})
}
