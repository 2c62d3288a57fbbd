package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/domain/order"
)

// Log writes order events to the context logger. It is the notifier used
// when no broker is configured.
type Log struct{}

var _ order.Notifier = Log{}

func (Log) Notify(ctx context.Context, events ...order.Event) error {
	lg := zctx.From(ctx)
	for _, ev := range events {
		lg.Info("Order event",
			zap.String("event", string(ev.Type)),
			zap.String("order_id", ev.OrderID),
			zap.String("kind", ev.Kind.String()),
			zap.String("status", ev.Status.String()),
			zap.String("grand_total", ev.GrandTotal.StringFixed(2)),
		)
	}
	return nil
}

// Multi fans events out to every notifier. All notifiers are called; the
// first error is returned.
type Multi []order.Notifier

var _ order.Notifier = Multi(nil)

func (m Multi) Notify(ctx context.Context, events ...order.Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, events...); err != nil && first == nil {
			first = err
		}
	}
	return first
}
