package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// PaymentMethod records how the customer chose to pay.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

// Order represents a placed customer order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	CustomerName    string          `json:"customerName" db:"customer_name"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone   string          `json:"customerPhone" db:"customer_phone"`
	ShippingAddress string          `json:"shippingAddress" db:"shipping_address"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	PaymentID       *string         `json:"paymentId,omitempty" db:"payment_id"`
	GatewayOrderID  *string         `json:"gatewayOrderId,omitempty" db:"gateway_order_id"`
	TrackingNumber  *string         `json:"trackingNumber,omitempty" db:"tracking_number"`
	OrderDate       time.Time       `json:"orderDate" db:"order_date"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
	Items           []OrderItem     `json:"items,omitempty"`
	User            *UserSummary    `json:"user,omitempty"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"orderId" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// OrderRequest is the checkout form posted to POST /orders.
type OrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   string             `json:"customerPhone"`
	ShippingAddress string             `json:"shippingAddress"`
	City            string             `json:"city"`
	Zip             string             `json:"zip"`
	State           string             `json:"state"`
	Country         string             `json:"country"`
	CartItems       []OrderItemRequest `json:"cartItems"`
	Total           decimal.Decimal    `json:"total"`
}

// MissingFields lists the wire names of empty shipping fields.
func (r OrderRequest) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"customerName", r.CustomerName},
		{"customerEmail", r.CustomerEmail},
		{"customerPhone", r.CustomerPhone},
		{"shippingAddress", r.ShippingAddress},
		{"city", r.City},
		{"state", r.State},
		{"zip", r.Zip},
		{"country", r.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// FullAddress renders the address as "address, city, state zip, country".
func (r OrderRequest) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", r.ShippingAddress, r.City, r.State, r.Zip, r.Country)
}

// OrderItemRequest represents a single line of an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderUpdate is a partial admin update. Nil fields are left unchanged.
type OrderUpdate struct {
	OrderID        uuid.UUID      `json:"orderId"`
	Status         *OrderStatus   `json:"status,omitempty"`
	PaymentStatus  *PaymentStatus `json:"paymentStatus,omitempty"`
	TrackingNumber *string        `json:"trackingNumber,omitempty"`
}

// PaymentUpdateRequest is the client-driven payment status update.
type PaymentUpdateRequest struct {
	PaymentID      string        `json:"paymentId"`
	GatewayOrderID string        `json:"gatewayOrderId"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
}
