// Package broadcaster periodically publishes depth snapshots to Kafka
// for downstream market-data consumers.
package broadcaster

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"mimir/domain/book"
	"mimir/infra/kafka"
	"mimir/service"
)

// Event is the published depth snapshot.
type Event struct {
	Seq  uint64       `json:"seq"`
	Time int64        `json:"time"`
	Bids []LevelEvent `json:"bids"`
	Asks []LevelEvent `json:"asks"`
}

// LevelEvent is one price level, prices in ticks.
type LevelEvent struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

type Broadcaster struct {
	svc      *service.BookService
	producer *kafka.Producer
	depth    int
	interval time.Duration
}

func New(svc *service.BookService, producer *kafka.Producer, depth int, interval time.Duration) *Broadcaster {
	return &Broadcaster{
		svc:      svc,
		producer: producer,
		depth:    depth,
		interval: interval,
	}
}

// Run publishes until ctx is cancelled. Publish failures are logged and
// retried on the next tick; depth events are snapshots, so a lost one
// is superseded anyway.
func (b *Broadcaster) Run(ctx context.Context) {
	log.Printf("[broadcaster] started, depth=%d interval=%s", b.depth, b.interval)

	t := time.NewTicker(b.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := b.publish(ctx); err != nil {
				log.Printf("[broadcaster] publish failed: %v", err)
			}
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context) error {
	bids, asks := b.svc.Depth(b.depth)
	ev := Event{
		Seq:  b.svc.Seq(),
		Time: time.Now().UnixNano(),
		Bids: toLevelEvents(bids),
		Asks: toLevelEvents(asks),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.producer.Send(ctx, []byte(strconv.FormatUint(ev.Seq, 10)), payload)
}

func toLevelEvents(levels []book.Level) []LevelEvent {
	out := make([]LevelEvent, len(levels))
	for i, lvl := range levels {
		out[i] = LevelEvent{Price: lvl.Price, Qty: lvl.Qty, Orders: lvl.Orders}
	}
	return out
}
