// Package kafka holds the engine's outbound messaging. The producer
// pushes depth events to one topic; delivery tuning comes from config
// rather than being baked in, since depth streams tolerate different
// latency/durability trade-offs per deployment.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig tunes one outbound topic writer.
type ProducerConfig struct {
	Brokers []string
	Topic   string
	// BatchTimeout bounds how long messages wait for a batch to fill.
	// 0 keeps the writer's default.
	BatchTimeout time.Duration
	// Async trades delivery errors for lower publish latency. Depth
	// events are periodic snapshots, so a dropped one is superseded by
	// the next tick anyway.
	Async bool
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        cfg.Async,
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

// Send publishes one keyed message. With Async set the returned error
// covers only enqueueing.
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
