package router

import (
	"net/http"

	"handmade-kart/internal/handler"
	"handmade-kart/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Product     *handler.ProductHandler
	Cart        *handler.CartHandler
	Order       *handler.OrderHandler
	Payment     *handler.PaymentHandler
	Testimonial *handler.TestimonialHandler
	User        *handler.UserHandler
	Admin       *handler.AdminHandler
	Health      http.HandlerFunc
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, tokens middleware.TokenParser, latency middleware.LatencyRecorder, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", h.Health)

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)
	mux.HandleFunc("GET /api/products/slug/{slug}", h.Product.GetBySlug)
	mux.HandleFunc("GET /api/categories", h.Product.Categories)

	// Accounts
	mux.HandleFunc("POST /api/users", h.User.Register)
	mux.HandleFunc("GET /api/verify", h.User.Verify)
	mux.HandleFunc("POST /api/auth/login", h.User.Login)

	// Cart
	mux.HandleFunc("POST /api/cart/add", h.Cart.Add)
	mux.HandleFunc("GET /api/cart/items", h.Cart.Items)
	mux.HandleFunc("DELETE /api/cart/items", h.Cart.Clear)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.Cart.RemoveItem)

	// Orders and payment
	mux.HandleFunc("POST /api/orders", h.Order.Create)
	mux.HandleFunc("GET /api/orders", h.Order.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.HandleFunc("PUT /api/orders/{id}/update-payment", h.Order.UpdatePayment)
	mux.HandleFunc("POST /api/payment/create-order", h.Payment.CreateOrder)
	mux.HandleFunc("POST /api/payment/verify", h.Payment.Verify)

	// Testimonials
	mux.HandleFunc("POST /api/testimonials", h.Testimonial.Submit)
	mux.HandleFunc("GET /api/testimonials", h.Testimonial.ListApproved)

	// Admin routes share the role check
	adminOnly := middleware.RequireAdmin(logger)
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, adminOnly(fn))
	}
	admin("GET /api/admin/orders", h.Order.ListAll)
	admin("PATCH /api/admin/orders", h.Order.UpdateAdmin)
	admin("GET /api/admin/stats", h.Admin.Stats)
	admin("GET /api/admin/testimonials", h.Testimonial.ListForModeration)
	admin("PATCH /api/admin/testimonials/{id}", h.Testimonial.Moderate)
	admin("POST /api/admin/products", h.Product.Create)
	admin("PUT /api/admin/products/{id}", h.Product.Update)
	admin("DELETE /api/admin/products/{id}", h.Product.Delete)
	admin("POST /api/admin/categories", h.Product.CreateCategory)
	admin("PUT /api/admin/categories/{id}", h.Product.UpdateCategory)
	admin("DELETE /api/admin/categories/{id}", h.Product.DeleteCategory)

	// Apply middleware in order: Recovery -> Logging -> Metrics -> CORS -> Authenticate
	var handler http.Handler = mux
	handler = middleware.Authenticate(tokens, logger)(handler)
	handler = middleware.CORS(handler)
	if latency != nil {
		handler = middleware.Metrics(latency)(handler)
	}
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
