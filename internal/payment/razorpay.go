package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog"
)

// RazorpayGateway creates orders through the Razorpay API.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
	logger zerolog.Logger
}

// NewRazorpayGateway creates a gateway authenticated with the key pair.
func NewRazorpayGateway(keyID, keySecret string, logger zerolog.Logger) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
		logger: logger.With().Str("component", "razorpay").Logger(),
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder registers a Razorpay order. The SDK call is not context-aware, so
// cancellation is only honoured before the request is sent.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		g.logger.Error().Err(err).Str("receipt", receipt).Msg("gateway rejected order")
		return "", err
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		g.logger.Error().Interface("response", body).Msg("gateway response missing order id")
		return "", errors.New("gateway response missing order id")
	}

	g.logger.Info().
		Str("gateway_order_id", id).
		Str("receipt", receipt).
		Int64("amount", amount).
		Msg("gateway order created")

	return id, nil
}

// DisabledGateway is used when online payments are switched off.
type DisabledGateway struct{}

func (DisabledGateway) KeyID() string { return "" }

func (DisabledGateway) CreateOrder(context.Context, int64, string, string) (string, error) {
	return "", fmt.Errorf("online payments are disabled")
}
