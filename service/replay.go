package service

import (
	"fmt"
	"log"

	"mimir/domain/book"
	"mimir/infra/journal"
	"mimir/infra/metrics"
)

// Replay rebuilds the book from the journal. It must run before the
// service accepts traffic. The compaction snapshot, if one exists, is
// restored first; the journaled commands past its sequence follow. The
// journal holds only commands the book accepted, so an apply error
// here means the store is corrupt and startup aborts.
func (s *BookService) Replay() error {
	if s.jnl == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapSeq, snapRecs, err := s.jnl.Snapshot()
	if err != nil {
		return fmt.Errorf("service: replay: load snapshot: %w", err)
	}
	for _, rec := range snapRecs {
		if err := s.book.Add(book.Order{
			ID:        rec.OrderID,
			Side:      book.Side(rec.Side),
			Price:     rec.Price,
			Qty:       rec.Qty,
			Timestamp: rec.Time,
		}); err != nil {
			return fmt.Errorf("service: replay: snapshot order %d: %w", rec.OrderID, err)
		}
	}

	n := int64(0)
	lastSeq, err := s.jnl.Replay(snapSeq, func(rec journal.Record) error {
		var applyErr error
		switch rec.Op {
		case journal.OpAdd:
			applyErr = s.book.Add(book.Order{
				ID:        rec.OrderID,
				Side:      book.Side(rec.Side),
				Price:     rec.Price,
				Qty:       rec.Qty,
				Timestamp: rec.Time,
			})
		case journal.OpCancel:
			applyErr = s.book.Cancel(rec.OrderID)
		case journal.OpAmend:
			applyErr = s.book.Amend(rec.OrderID, rec.Price, rec.Qty)
		default:
			applyErr = fmt.Errorf("unknown op %d", rec.Op)
		}
		if applyErr != nil {
			return fmt.Errorf("seq %d (%s, order %d): %w", rec.Seq, rec.Op, rec.OrderID, applyErr)
		}
		n++
		return nil
	})
	if err != nil {
		return fmt.Errorf("service: replay: %w", err)
	}

	s.seq.Reset(lastSeq)
	metrics.AddReplayed(n)
	log.Printf("[service] journal replay done: %d snapshot orders, %d ops, last seq %d, %d resting",
		len(snapRecs), n, lastSeq, s.book.Resting())
	return nil
}
