package handoff

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
)

func setupKafka(t *testing.T) []string {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestKafkaPublisher_OrderRoundTrip(t *testing.T) {
	brokers := setupKafka(t)
	ctx := context.Background()

	publisher := NewKafkaPublisher(brokers...)
	defer publisher.Close()

	order := Order{
		OrderID:   "ord-1",
		SessionID: "11111111-2222-4333-8444-555555555555",
		Items: []domain.CartItem{
			{ProductID: 1, Name: "Vinho Tinto Reserva", Price: 89.90, Stock: 12, Quantity: 2},
		},
		Subtotal: 179.80,
		Shipping: &domain.ShippingQuote{CEP: "52011000", City: "Recife", Cost: 25, Valid: true},
		Total:    204.80,
	}
	require.NoError(t, publisher.Publish(ctx, order))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   Topic,
		GroupID: "handoff-test",
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	assert.Equal(t, order.SessionID, string(msg.Key))

	var got Order
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.InDelta(t, 204.80, got.Total, 1e-9)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
}
