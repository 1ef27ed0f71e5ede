package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() model.OrderEvent {
	return model.NewOrderEvent(model.EventOrderPlaced, &model.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		CustomerEmail: "buyer@example.com",
		Total:         decimal.RequireFromString("199.50"),
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	})
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())
	event := sampleEvent()

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, event.OrderID.String(), string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, model.EventOrderPlaced, string(msg.Headers[0].Value))

	var decoded model.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.OrderID, decoded.OrderID)
	assert.True(t, event.Total.Equal(decoded.Total))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, zerolog.Nop())

	err := p.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

type scriptedReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	cancel   context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *scriptedReader) Close() error { return nil }

func TestConsumer_RunDispatchesAndSkipsBadMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	good := sampleEvent()
	value, err := json.Marshal(good)
	require.NoError(t, err)

	failing := sampleEvent()
	failingValue, err := json.Marshal(failing)
	require.NoError(t, err)

	reader := &scriptedReader{
		messages: []kafka.Message{
			{Value: []byte("{not json")},
			{Value: failingValue},
			{Value: value},
		},
		cancel: cancel,
	}

	var handled []uuid.UUID
	handler := func(ctx context.Context, e model.OrderEvent) error {
		handled = append(handled, e.OrderID)
		if e.OrderID == failing.OrderID {
			return errors.New("smtp down")
		}
		return nil
	}

	c := newConsumer(reader, handler, zerolog.Nop())
	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []uuid.UUID{failing.OrderID, good.OrderID}, handled)
	assert.NoError(t, c.Close())
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
