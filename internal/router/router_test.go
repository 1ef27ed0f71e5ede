package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"handmade-kart/internal/handler"
	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type tokenTable map[string]model.Identity

func (t tokenTable) Parse(token string) (model.Identity, error) {
	identity, ok := t[token]
	if !ok {
		return model.Identity{}, errors.New("unknown token")
	}
	return identity, nil
}

type countingLatency struct{ n int }

func (c *countingLatency) Record(time.Duration) { c.n++ }

// newTestRouter wires handlers without services; every case below is
// answered before a service would be reached.
func newTestRouter(latency *countingLatency) http.Handler {
	logger := zerolog.Nop()
	tokens := tokenTable{
		"customer": {UserID: uuid.New(), Role: model.RoleUser},
		"admin":    {UserID: uuid.New(), Role: model.RoleAdmin},
	}
	return New(Handlers{
		Product:     handler.NewProductHandler(nil, nil, logger),
		Cart:        handler.NewCartHandler(nil, logger),
		Order:       handler.NewOrderHandler(nil, nil, logger),
		Payment:     handler.NewPaymentHandler(nil, logger),
		Testimonial: handler.NewTestimonialHandler(nil, logger),
		User:        handler.NewUserHandler(nil, logger),
		Admin:       handler.NewAdminHandler(nil, logger),
		Health:      handler.Health(nil, logger),
	}, tokens, latency, logger)
}

func TestRouter(t *testing.T) {
	latency := &countingLatency{}
	r := newTestRouter(latency)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{"Health", http.MethodGet, "/health", "", http.StatusOK},
		{"Preflight", http.MethodOptions, "/api/cart/items", "", http.StatusNoContent},
		{"Unknown route", http.MethodGet, "/api/wishlist", "", http.StatusNotFound},
		{"Wrong method", http.MethodPost, "/api/products/" + uuid.NewString(), "", http.StatusMethodNotAllowed},
		{"Bad product id", http.MethodGet, "/api/products/not-a-uuid", "", http.StatusBadRequest},
		{"Invalid token", http.MethodGet, "/api/cart/items", "forged", http.StatusUnauthorized},
		{"Admin route anonymous", http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{"Admin route as customer", http.MethodGet, "/api/admin/orders", "customer", http.StatusForbidden},
		{"Admin route bad id", http.MethodPatch, "/api/admin/testimonials/xyz", "admin", http.StatusBadRequest},
		{"Cart line bad id", http.MethodPut, "/api/cart/items/xyz", "customer", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	assert.Equal(t, len(tests), latency.n)
}
