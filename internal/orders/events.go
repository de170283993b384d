package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
	"github.com/shopspring/decimal"
)

// EventOrderPlaced is the event_type attribute of order-placed messages.
const EventOrderPlaced = "order.placed"

// PlacedEvent is the queue message emitted after an order is committed.
type PlacedEvent struct {
	EventType  string          `json:"event_type"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Kilograms  decimal.Decimal `json:"kilograms"`
	Lines      int             `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPlacedEvent builds the event for o.
func NewPlacedEvent(o Order) PlacedEvent {
	return PlacedEvent{
		EventType:  EventOrderPlaced,
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		Kilograms:  o.Kilograms(),
		Lines:      len(o.Details),
		CreatedAt:  o.CreatedAt,
	}
}

// Notifier publishes order events to SQS.
type Notifier struct {
	pub *aws.Publisher
}

// NewNotifier wraps a queue publisher.
func NewNotifier(pub *aws.Publisher) *Notifier {
	return &Notifier{pub: pub}
}

// OrderPlaced publishes an order.placed message for o.
func (n *Notifier) OrderPlaced(ctx context.Context, o Order) error {
	body, err := json.Marshal(NewPlacedEvent(o))
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	return n.pub.Send(ctx, string(body), map[string]string{
		"event_type": EventOrderPlaced,
		"order_id":   o.OrderID,
	})
}
