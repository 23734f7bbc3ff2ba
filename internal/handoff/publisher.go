// Package handoff delivers completed carts to the external order
// channel. The storefront keeps no server-side order state; once the
// snapshot is published the session's cart is done.
package handoff

import (
	"context"
	"log/slog"
	"time"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
)

// Order is the snapshot handed off at checkout.
type Order struct {
	OrderID   string                `json:"order_id"`
	SessionID string                `json:"session_id"`
	Items     []domain.CartItem     `json:"items"`
	Subtotal  float64               `json:"subtotal"`
	Shipping  *domain.ShippingQuote `json:"shipping,omitempty"`
	Total     float64               `json:"total"`
	CreatedAt time.Time             `json:"created_at"`
}

// Publisher hands an order to the external channel.
type Publisher interface {
	Publish(ctx context.Context, order Order) error
}

// LogPublisher writes orders to the log. It stands in for the real
// channel in development and tests.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, order Order) error {
	p.logger.InfoContext(ctx, "order handed off",
		"order_id", order.OrderID,
		"session_id", order.SessionID,
		"items", len(order.Items),
		"total", order.Total,
	)
	return nil
}
