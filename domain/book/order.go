package book

import "mimir/infra/memory"

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

// Order is the caller-supplied description of a resting limit order.
// Price is in integer ticks, Qty is the remaining quantity, Timestamp
// is entry time in nanoseconds and is carried for bookkeeping only:
// queue position is decided by insertion order, never by Timestamp.
type Order struct {
	ID        uint64
	Side      Side
	Price     int64
	Qty       int64
	Timestamp int64
}

// record is the arena-resident copy of an Order, linked into the FIFO
// chain of its price level by handle.
type record struct {
	Order
	next memory.Handle
	prev memory.Handle
}

type slab = memory.Arena[record]
