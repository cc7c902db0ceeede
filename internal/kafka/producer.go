package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher is a thin wrapper around segmentio/kafka-go Writer.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &Publisher{w: w}
}

func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload})
}

func (p *Publisher) Close() error { return p.w.Close() }
