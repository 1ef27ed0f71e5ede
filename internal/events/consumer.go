package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"handmade-kart/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, event model.OrderEvent) error

// messageReader is the subset of *kafka.Reader used by Consumer.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads order events from a topic in a consumer group.
type Consumer struct {
	reader  messageReader
	handler Handler
	logger  zerolog.Logger
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, handler Handler, logger zerolog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return newConsumer(r, handler, logger)
}

func newConsumer(r messageReader, handler Handler, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  logger.With().Str("component", "event-consumer").Logger(),
	}
}

// Run reads until ctx is cancelled. Undecodable messages and handler failures are logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Msg("event consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.logger.Info().Msg("event consumer stopped")
				return nil
			}
			c.logger.Error().Err(err).Msg("failed to read message")
			continue
		}

		var event model.OrderEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.logger.Error().Err(err).Bytes("value", m.Value).Msg("failed to decode event")
			continue
		}

		if err := c.handler(ctx, event); err != nil {
			c.logger.Error().
				Err(err).
				Str("type", event.Type).
				Str("order_id", event.OrderID.String()).
				Msg("event handler failed")
			continue
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
