package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published on the order topic.
const (
	EventOrderPlaced      = "order.placed"
	EventPaymentConfirmed = "payment.confirmed"
)

// OrderEvent is the payload written to the order topic.
type OrderEvent struct {
	Type          string          `json:"type"`
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        uuid.UUID       `json:"userId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// NewOrderEvent builds an event snapshot of order.
func NewOrderEvent(eventType string, order *Order) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
}
