package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"mimir/domain/book"
	"mimir/infra/journal"
	"mimir/infra/metrics"
	"mimir/infra/sequence"
)

// BookService owns the book. The core provides no locking, so every
// operation runs under the service mutex; transports (HTTP, kafka
// intake, jobs) all go through here.
type BookService struct {
	mu           sync.Mutex
	book         *book.Book
	seq          *sequence.Sequencer
	jnl          *journal.Journal // nil disables journaling
	compactEvery uint64           // 0 disables auto-compaction
}

func New(b *book.Book, seq *sequence.Sequencer, jnl *journal.Journal) *BookService {
	return &BookService{book: b, seq: seq, jnl: jnl}
}

// AutoCompact makes the service compact the journal every n accepted
// commands. 0 turns auto-compaction off; Compact stays available either
// way.
func (s *BookService) AutoCompact(n int) {
	if n < 0 {
		n = 0
	}
	s.compactEvery = uint64(n)
}

// Add places a new resting order. Accepted commands are journaled after
// the book takes them, so the journal only ever holds operations that
// replay cleanly.
func (s *BookService) Add(o book.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Timestamp == 0 {
		o.Timestamp = time.Now().UnixNano()
	}
	if err := s.book.Add(o); err != nil {
		metrics.IncRejected()
		return err
	}
	metrics.IncAccepted()
	s.journal(journal.Record{
		Op:      journal.OpAdd,
		Seq:     s.seq.Next(),
		Time:    o.Timestamp,
		OrderID: o.ID,
		Side:    uint8(o.Side),
		Price:   o.Price,
		Qty:     o.Qty,
	})
	return nil
}

// Cancel removes a resting order.
func (s *BookService) Cancel(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.Cancel(id); err != nil {
		metrics.IncRejected()
		return err
	}
	metrics.IncCancelled()
	s.journal(journal.Record{
		Op:      journal.OpCancel,
		Seq:     s.seq.Next(),
		Time:    time.Now().UnixNano(),
		OrderID: id,
	})
	return nil
}

// Amend changes price and/or quantity of a resting order; qty 0 cancels.
func (s *BookService) Amend(id uint64, price, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.Amend(id, price, qty); err != nil {
		metrics.IncRejected()
		return err
	}
	metrics.IncAmended()
	s.journal(journal.Record{
		Op:      journal.OpAmend,
		Seq:     s.seq.Next(),
		Time:    time.Now().UnixNano(),
		OrderID: id,
		Price:   price,
		Qty:     qty,
	})
	return nil
}

// Depth returns up to depth levels per side, best price first.
func (s *BookService) Depth(depth int) (bids, asks []book.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Snapshot(depth)
}

// Resting returns the number of orders in the book.
func (s *BookService) Resting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Resting()
}

// Seq returns the last issued operation sequence.
func (s *BookService) Seq() uint64 {
	return s.seq.Current()
}

// Compact rolls the journal up: the current resting state becomes the
// snapshot baseline and every journaled command at or below the current
// sequence is dropped. Replay after a compaction restores the snapshot
// first, then the commands past it.
func (s *BookService) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactLocked()
}

func (s *BookService) compactLocked() error {
	if s.jnl == nil {
		return nil
	}
	seq := s.seq.Current()
	orders := s.book.Orders()
	recs := make([]journal.Record, len(orders))
	for i, o := range orders {
		recs[i] = journal.Record{
			Op:      journal.OpAdd,
			Time:    o.Timestamp,
			OrderID: o.ID,
			Side:    uint8(o.Side),
			Price:   o.Price,
			Qty:     o.Qty,
		}
	}
	if err := s.jnl.Compact(seq, recs); err != nil {
		return fmt.Errorf("service: compact at seq %d: %w", seq, err)
	}
	log.Printf("[service] journal compacted: baseline seq %d, %d resting", seq, len(recs))
	return nil
}

func (s *BookService) journal(rec journal.Record) {
	if s.jnl == nil {
		return
	}
	if err := s.jnl.Append(rec); err != nil {
		// The book already applied the command; losing the journal
		// entry costs replay fidelity, not correctness of the live book.
		log.Printf("[service] journal append seq=%d op=%s failed: %v", rec.Seq, rec.Op, err)
		return
	}
	if s.compactEvery > 0 && rec.Seq%s.compactEvery == 0 {
		if err := s.compactLocked(); err != nil {
			// Compaction is garbage collection; a failed pass leaves the
			// journal larger, not wrong.
			log.Printf("[service] auto-compact at seq=%d failed: %v", rec.Seq, err)
		}
	}
}
