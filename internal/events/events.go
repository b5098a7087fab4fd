// Package events carries order lifecycle notifications over RabbitMQ.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an order event.
type Type string

const (
	OrderCreated         Type = "order.created"
	OrderStatusChanged   Type = "order.status_changed"
	OrderItemCancelled   Type = "order.item_cancelled"
	OrderReturnRequested Type = "order.return_requested"
	OrderRefunded        Type = "order.refunded"
)

// Item is the product/quantity part of an event.
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// OrderEvent is the message body published for every lifecycle change.
// Amount is the order total for order.created and the refunded sum for order.refunded.
type OrderEvent struct {
	Type        Type            `json:"type"`
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []Item          `json:"items,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Publisher sends order events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// NopPublisher drops every event. Used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e OrderEvent) error

func (f PublisherFunc) Publish(ctx context.Context, e OrderEvent) error { return f(ctx, e) }
