package publisher

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/fekuna/omnipos-storefront-service/internal/order"
)

// Producer is satisfied by *broker.KafkaProducer.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(p Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

// Publish keys events by order id so every event of one order lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event *order.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	return p.producer.Publish(ctx, event.Payload.ID, data)
}
