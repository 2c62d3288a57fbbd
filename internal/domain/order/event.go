package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a lifecycle transition worth telling the outside world about.
type EventType string

const (
	EventPlaced    EventType = "order.placed"
	EventPaid      EventType = "order.paid"
	EventFulfilled EventType = "order.fulfilled"
	EventCompleted EventType = "order.completed"
)

// Event is a snapshot of an order taken right after a transition.
type Event struct {
	Type       EventType
	OrderID    string
	Kind       Kind
	Status     Status
	Email      string
	GrandTotal decimal.Decimal
	OccurredAt time.Time
}

// NewEvent captures o as an event of type t.
func NewEvent(t EventType, o *Order) Event {
	return Event{
		Type:       t,
		OrderID:    o.id,
		Kind:       o.kind,
		Status:     o.status,
		Email:      o.account.Email(),
		GrandTotal: o.GrandTotal(),
		OccurredAt: o.updatedAt,
	}
}

// Notifier dispatches order events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, events ...Event) error
}
