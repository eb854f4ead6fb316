// Package ingest consumes order commands from a Kafka topic and feeds
// them to the book service, for deployments fed by an upstream gateway
// rather than the HTTP API.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"mimir/domain/book"
	"mimir/pkg/fixedpoint"
	"mimir/service"
)

// Command is the wire format on the orders topic. Price is a decimal
// string; it is mapped onto the tick grid here at the boundary.
type Command struct {
	Op      string `json:"op"` // "add", "cancel", "amend"
	OrderID uint64 `json:"order_id"`
	Side    string `json:"side"` // "bid" or "ask"
	Price   string `json:"price"`
	Qty     int64  `json:"qty"`
}

type Consumer struct {
	group sarama.ConsumerGroup
	svc   *service.BookService
	conv  *fixedpoint.Converter
	topic string
}

func New(brokers []string, group, topic string, svc *service.BookService, conv *fixedpoint.Converter) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	g, err := sarama.NewConsumerGroup(brokers, group, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, svc: svc, conv: conv, topic: topic}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	log.Printf("[ingest] started, topic=%s", c.topic)
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			log.Printf("[ingest] consume error: %v", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. Bad commands are
// logged and acknowledged: retrying them would just fail again.
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.handle(msg.Value); err != nil {
			log.Printf("[ingest] command rejected: %v", err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (c *Consumer) handle(payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	switch cmd.Op {
	case "add":
		side, err := parseSide(cmd.Side)
		if err != nil {
			return err
		}
		ticks, err := c.conv.ToTicks(cmd.Price)
		if err != nil {
			return err
		}
		return c.svc.Add(book.Order{ID: cmd.OrderID, Side: side, Price: ticks, Qty: cmd.Qty})
	case "cancel":
		return c.svc.Cancel(cmd.OrderID)
	case "amend":
		ticks, err := c.conv.ToTicks(cmd.Price)
		if err != nil {
			return err
		}
		return c.svc.Amend(cmd.OrderID, ticks, cmd.Qty)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "bid", "buy":
		return book.Bid, nil
	case "ask", "sell":
		return book.Ask, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}
