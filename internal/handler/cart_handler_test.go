package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartHandler_Add(t *testing.T) {
	logger := zerolog.Nop()
	productID := uuid.New()

	tests := []struct {
		name           string
		body           string
		identity       model.Identity
		mockReturn     *model.AddedCartItem
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:     "Success",
			body:     `{"productId":"` + productID.String() + `","quantity":2}`,
			identity: customer,
			mockReturn: &model.AddedCartItem{
				ProductID: productID, Name: "Clay Mug", Quantity: 2, Price: decimal.NewFromInt(100),
			},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Insufficient stock",
			body:           `{"productId":"` + productID.String() + `","quantity":50}`,
			identity:       customer,
			mockError:      model.ErrInsufficientStock,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Anonymous caller",
			body:           `{"productId":"` + productID.String() + `"}`,
			mockError:      model.ErrUnauthorised,
			expectedStatus: http.StatusUnauthorized,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `{"productId":`,
			identity:       customer,
			expectedStatus: http.StatusBadRequest,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockCartService)
			handler := NewCartHandler(mockService, logger)

			if tt.expectService {
				mockService.On("AddItem", mock.Anything, tt.identity, mock.AnythingOfType("*model.AddToCartRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := as(httptest.NewRequest(http.MethodPost, "/api/cart/add", bytes.NewBufferString(tt.body)), tt.identity)
			w := httptest.NewRecorder()

			handler.Add(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp AddToCartResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.True(t, resp.Success)
				require.NotNil(t, resp.CartItem)
				assert.Equal(t, 2, resp.CartItem.Quantity)
				assert.Contains(t, w.Body.String(), `"cartItem":`)
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestCartHandler_Items(t *testing.T) {
	mockService := new(MockCartService)
	handler := NewCartHandler(mockService, zerolog.Nop())

	cartID := uuid.New()
	mockService.On("GetCart", mock.Anything, customer).Return(&model.CartView{
		ID:        &cartID,
		Items:     []model.CartItem{{ID: uuid.New(), Quantity: 3, Price: decimal.NewFromInt(100)}},
		Total:     decimal.NewFromInt(300),
		ItemCount: 3,
	}, nil)

	w := httptest.NewRecorder()
	handler.Items(w, as(httptest.NewRequest(http.MethodGet, "/api/cart/items", nil), customer))

	require.Equal(t, http.StatusOK, w.Code)
	var view model.CartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, decimal.NewFromInt(300).Equal(view.Total))
	assert.Equal(t, 3, view.ItemCount)
}

func TestCartHandler_UpdateAndRemove(t *testing.T) {
	mockService := new(MockCartService)
	handler := NewCartHandler(mockService, zerolog.Nop())
	itemID := uuid.New()
	empty := &model.CartView{Items: []model.CartItem{}, Total: decimal.Zero}

	t.Run("Zero quantity removes the line", func(t *testing.T) {
		mockService.On("UpdateItemQuantity", mock.Anything, customer, itemID, 0).Return(empty, nil).Once()

		req := as(httptest.NewRequest(http.MethodPut, "/api/cart/items/"+itemID.String(),
			bytes.NewBufferString(`{"quantity":0}`)), customer)
		req.SetPathValue("id", itemID.String())
		w := httptest.NewRecorder()
		handler.UpdateItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp CartChangeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Cart)
		assert.Equal(t, 0, resp.Cart.ItemCount)
	})

	t.Run("Remove acknowledges with success", func(t *testing.T) {
		mockService.On("RemoveItem", mock.Anything, customer, itemID).Return(empty, nil).Once()

		req := as(httptest.NewRequest(http.MethodDelete, "/api/cart/items/"+itemID.String(), nil), customer)
		req.SetPathValue("id", itemID.String())
		w := httptest.NewRecorder()
		handler.RemoveItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("Unknown line", func(t *testing.T) {
		mockService.On("RemoveItem", mock.Anything, customer, itemID).Return(nil, model.ErrCartItemNotFound).Once()

		req := as(httptest.NewRequest(http.MethodDelete, "/api/cart/items/"+itemID.String(), nil), customer)
		req.SetPathValue("id", itemID.String())
		w := httptest.NewRecorder()
		handler.RemoveItem(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Bad item id", func(t *testing.T) {
		req := as(httptest.NewRequest(http.MethodDelete, "/api/cart/items/abc", nil), customer)
		req.SetPathValue("id", "abc")
		w := httptest.NewRecorder()
		handler.RemoveItem(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Clear", func(t *testing.T) {
		mockService.On("ClearCart", mock.Anything, customer).Return(nil).Once()

		w := httptest.NewRecorder()
		handler.Clear(w, as(httptest.NewRequest(http.MethodDelete, "/api/cart/items", nil), customer))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	mockService.AssertExpectations(t)
}
