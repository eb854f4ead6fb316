package book

import "mimir/infra/memory"

// PriceLevel is the FIFO queue of resting orders at a single price,
// plus the running aggregate over the chain.
type PriceLevel struct {
	Price    int64
	TotalQty int64
	Count    int

	head memory.Handle
	tail memory.Handle
}

func (p *PriceLevel) empty() bool { return p.head.IsNil() }

// enqueue appends the record behind h at the tail of the chain,
// preserving time priority for earlier arrivals.
func (p *PriceLevel) enqueue(slots *slab, h memory.Handle) {
	rec := slots.At(h)
	rec.next = memory.Nil
	rec.prev = p.tail
	if p.tail.IsNil() {
		p.head = h
	} else {
		slots.At(p.tail).next = h
	}
	p.tail = h
	p.TotalQty += rec.Qty
	p.Count++
}

// unlink splices the record behind h out of the chain wherever it sits.
func (p *PriceLevel) unlink(slots *slab, h memory.Handle) {
	rec := slots.At(h)
	if rec.prev.IsNil() {
		p.head = rec.next
	} else {
		slots.At(rec.prev).next = rec.next
	}
	if rec.next.IsNil() {
		p.tail = rec.prev
	} else {
		slots.At(rec.next).prev = rec.prev
	}
	rec.next = memory.Nil
	rec.prev = memory.Nil
	p.TotalQty -= rec.Qty
	p.Count--
	if p.TotalQty < 0 || p.Count < 0 {
		panic("book: price level aggregate went negative")
	}
}
