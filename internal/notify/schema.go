package notify

import (
	"time"

	"github.com/hamba/avro/v2"

	"github.com/xenking/kart-orders/internal/domain/order"
)

// OrderEventSchemaTextV1 is the Avro schema of published order events.
// Money is carried as a decimal string to keep it exact.
const OrderEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "kart.orders",
	"name": "order_event",
	"fields": [
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "status_code", "type": "int"},
		{"name": "email", "type": "string"},
		{"name": "grand_total", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

var orderEventSchemaV1 = avro.MustParse(OrderEventSchemaTextV1)

// OrderEventV1 is the wire form of an order.Event.
type OrderEventV1 struct {
	Type       string    `avro:"type"`
	OrderID    string    `avro:"order_id"`
	Kind       string    `avro:"kind"`
	Status     string    `avro:"status"`
	StatusCode int       `avro:"status_code"`
	Email      string    `avro:"email"`
	GrandTotal string    `avro:"grand_total"`
	OccurredAt time.Time `avro:"occurred_at"`
}

func orderEventToSchemaV1(ev order.Event) (s OrderEventV1) {
	s.Type = string(ev.Type)
	s.OrderID = ev.OrderID
	s.Kind = ev.Kind.String()
	s.Status = ev.Status.String()
	s.StatusCode = ev.Status.Code()
	s.Email = ev.Email
	s.GrandTotal = ev.GrandTotal.StringFixed(2)
	s.OccurredAt = ev.OccurredAt.UTC()
	return
}
