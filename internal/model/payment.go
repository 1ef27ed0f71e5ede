package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmationStatus tracks whether a verified payment reached its order.
type ConfirmationStatus string

const (
	ConfirmationReceived ConfirmationStatus = "received"
	ConfirmationApplied  ConfirmationStatus = "applied"
)

// PaymentConfirmation is the durable record of a signature-verified gateway payment.
type PaymentConfirmation struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	OrderID          uuid.UUID          `json:"orderId" db:"order_id"`
	GatewayOrderID   string             `json:"gatewayOrderId" db:"gateway_order_id"`
	GatewayPaymentID string             `json:"gatewayPaymentId" db:"gateway_payment_id"`
	Status           ConfirmationStatus `json:"status" db:"status"`
	Attempts         int                `json:"attempts" db:"attempts"`
	LastError        *string            `json:"lastError,omitempty" db:"last_error"`
	CreatedAt        time.Time          `json:"createdAt" db:"created_at"`
	AppliedAt        *time.Time         `json:"appliedAt,omitempty" db:"applied_at"`
}

// CreatePaymentRequest asks the gateway for a payment intent. Receipt is the order id.
type CreatePaymentRequest struct {
	Amount   *int64 `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Receipt  string `json:"receipt"`
}

// PaymentIntent is returned to the client to open the gateway checkout.
type PaymentIntent struct {
	GatewayOrderID string    `json:"orderId"`
	OrderID        uuid.UUID `json:"receipt"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"keyId"`
}

// VerifyPaymentRequest carries the gateway callback fields.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

// VerifyPaymentResponse reports a successful verification.
type VerifyPaymentResponse struct {
	Verified bool      `json:"verified"`
	OrderID  uuid.UUID `json:"orderId"`
}

// ToMinorUnits converts a decimal amount into the smallest currency unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
