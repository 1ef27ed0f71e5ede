package notify

import (
	"context"
	"fmt"

	"handmade-kart/internal/model"

	"github.com/rs/zerolog"
)

// OrderEventHandler returns a handler that emails the customer about order events.
// Event types without a template are ignored.
func OrderEventHandler(mailer Mailer, logger zerolog.Logger) func(ctx context.Context, event model.OrderEvent) error {
	logger = logger.With().Str("component", "order-notifier").Logger()

	return func(ctx context.Context, event model.OrderEvent) error {
		var template, subject string
		switch event.Type {
		case model.EventOrderPlaced:
			template, subject = TemplateOrderPlaced, "We received your order"
		case model.EventPaymentConfirmed:
			template, subject = TemplatePaymentConfirmed, "Payment confirmed"
		default:
			logger.Debug().Str("type", event.Type).Msg("ignoring event")
			return nil
		}

		if event.CustomerEmail == "" {
			logger.Warn().Str("order_id", event.OrderID.String()).Msg("event has no customer email")
			return nil
		}

		if err := mailer.Send(ctx, Message{
			To:       event.CustomerEmail,
			Subject:  subject,
			Template: template,
			Data:     event,
		}); err != nil {
			return fmt.Errorf("failed to send %s email for order %s: %w", template, event.OrderID, err)
		}

		logger.Info().
			Str("type", event.Type).
			Str("order_id", event.OrderID.String()).
			Msg("order email sent")
		return nil
	}
}
