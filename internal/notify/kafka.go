// Package notify dispatches order events to the outside world.
package notify

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/xenking/kart-orders/internal/domain/order"
)

// ProducerClient is the subset of *kgo.Client used by Kafka.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// NewKafkaClient connects a producer to seedBrokers that writes to topic.
func NewKafkaClient(ctx context.Context, seedBrokers []string, topic string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seedBrokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka client")
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, errors.Wrap(err, "ping kafka")
	}
	return cl, nil
}

// Kafka publishes order events as Avro records keyed by order ID, so every
// event of an order lands on the same partition in order.
type Kafka struct {
	cl     ProducerClient
	schema avro.Schema
}

var _ order.Notifier = (*Kafka)(nil)

// NewKafka returns a Kafka notifier producing through cl.
func NewKafka(cl ProducerClient) *Kafka {
	return &Kafka{cl: cl, schema: orderEventSchemaV1}
}

// Notify produces one record per event and waits for the broker to
// acknowledge all of them.
func (k *Kafka) Notify(ctx context.Context, events ...order.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rs := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		b, err := avro.Marshal(k.schema, orderEventToSchemaV1(ev))
		if err != nil {
			return errors.Wrapf(err, "encode %s event for order %s", ev.Type, ev.OrderID)
		}
		rs = append(rs, &kgo.Record{
			Key:   []byte(ev.OrderID),
			Value: b,
			Headers: []kgo.RecordHeader{
				{Key: "event-type", Value: []byte(ev.Type)},
			},
		})
	}

	if err := k.cl.ProduceSync(ctx, rs...).FirstErr(); err != nil {
		return errors.Wrap(err, "produce order events")
	}
	return nil
}

// Close flushes and closes the underlying client.
func (k *Kafka) Close() {
	k.cl.Close()
}
