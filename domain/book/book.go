package book

import (
	"errors"
	"fmt"
	"io"

	"mimir/infra/memory"
)

var (
	// ErrNotFound reports an order id absent from the index.
	ErrNotFound = errors.New("book: order not found")

	// ErrInvalidArgument reports a precondition violation caught
	// before any mutation.
	ErrInvalidArgument = errors.New("book: invalid argument")

	// ErrAllocationExhausted reports that the record arena hit its
	// configured block cap. The book is left untouched.
	ErrAllocationExhausted = errors.New("book: allocation exhausted")
)

// Config tunes the record arena behind a Book.
type Config struct {
	// BlockSize is the number of record slots added per arena growth
	// step. 0 selects memory.DefaultBlockSize.
	BlockSize int
	// MaxBlocks caps arena growth; 0 means unbounded.
	MaxBlocks int
}

// Book holds the resting orders of one instrument: a bid ladder, an ask
// ladder, and a direct index from order id to record handle.
//
// Book is single-threaded and deterministic. Callers that need
// concurrent access own the serialization; see service.BookService.
type Book struct {
	bids  ladder
	asks  ladder
	index map[uint64]memory.Handle
	slots *slab
}

func New(cfg Config) *Book {
	return &Book{
		bids:  newLadder(DescendingPrice),
		asks:  newLadder(AscendingPrice),
		index: make(map[uint64]memory.Handle),
		slots: memory.NewArena[record](cfg.BlockSize, cfg.MaxBlocks),
	}
}

// Add inserts o at the tail of its side/price level, creating the level
// if absent. The id must not collide with a resting order and Qty must
// be positive. Storage is acquired before any mutation, so a failed Add
// leaves the book in its prior state.
func (b *Book) Add(o Order) error {
	if o.Qty <= 0 {
		return fmt.Errorf("%w: qty %d", ErrInvalidArgument, o.Qty)
	}
	if _, ok := b.index[o.ID]; ok {
		return fmt.Errorf("%w: duplicate order id %d", ErrInvalidArgument, o.ID)
	}

	h, rec, err := b.slots.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %d resting orders", ErrAllocationExhausted, b.slots.Live())
	}
	rec.Order = o

	b.side(o.Side).levelFor(o.Price).enqueue(b.slots, h)
	b.index[o.ID] = h
	return nil
}

// Cancel removes the resting order with the given id, dropping its
// price level if it was the last occupant. A second Cancel of the same
// id reports ErrNotFound and mutates nothing.
func (b *Book) Cancel(id uint64) error {
	h, ok := b.index[id]
	if !ok {
		return ErrNotFound
	}
	b.remove(id, h)
	return nil
}

// Amend changes the price and/or quantity of a resting order.
//
// newQty 0 behaves exactly as Cancel. At an unchanged price the
// quantity is updated in place and queue position is retained — for
// decreases and increases alike (the increase case is a policy choice;
// see DESIGN.md). A price change forfeits queue position: the order is
// unlinked from its old level and re-queued at the tail of the new one.
func (b *Book) Amend(id uint64, newPrice, newQty int64) error {
	h, ok := b.index[id]
	if !ok {
		return ErrNotFound
	}
	if newQty < 0 {
		return fmt.Errorf("%w: qty %d", ErrInvalidArgument, newQty)
	}
	if newQty == 0 {
		b.remove(id, h)
		return nil
	}

	rec := b.slots.At(h)
	side := b.side(rec.Side)

	if newPrice == rec.Price {
		lvl := b.level(side, rec.Price, id)
		lvl.TotalQty += newQty - rec.Qty
		rec.Qty = newQty
		return nil
	}

	old := b.level(side, rec.Price, id)
	old.unlink(b.slots, h)
	if old.empty() {
		side.drop(old.Price)
	}

	rec.Price = newPrice
	rec.Qty = newQty
	side.levelFor(newPrice).enqueue(b.slots, h)
	return nil
}

// Snapshot returns up to depth levels per side, best price first. It
// never mutates state; depth 0 yields empty slices.
func (b *Book) Snapshot(depth int) (bids, asks []Level) {
	return b.bids.snapshot(depth), b.asks.snapshot(depth)
}

// BestBid returns the top bid level, if any.
func (b *Book) BestBid() (Level, bool) { return topOf(&b.bids) }

// BestAsk returns the top ask level, if any.
func (b *Book) BestAsk() (Level, bool) { return topOf(&b.asks) }

// Resting returns the number of orders currently in the book.
func (b *Book) Resting() int { return len(b.index) }

// Levels returns the number of price levels per side.
func (b *Book) Levels() (bids, asks int) { return b.bids.len(), b.asks.len() }

// Contains reports whether id is resting.
func (b *Book) Contains(id uint64) bool {
	_, ok := b.index[id]
	return ok
}

// Orders returns every resting order, bids then asks, levels in
// priority order and each level front-of-queue first. Re-adding the
// orders in this sequence to an empty book reproduces the exact
// resting state, queue positions included.
func (b *Book) Orders() []Order {
	out := make([]Order, 0, len(b.index))
	collect := func(l *ladder) {
		l.walk(func(lvl *PriceLevel) bool {
			for h := lvl.head; !h.IsNil(); h = b.slots.At(h).next {
				out = append(out, b.slots.At(h).Order)
			}
			return true
		})
	}
	collect(&b.bids)
	collect(&b.asks)
	return out
}

// Render writes a human-readable depth view to w. Diagnostic only;
// prices are raw ticks.
func (b *Book) Render(w io.Writer, depth int) {
	bids, asks := b.Snapshot(depth)
	fmt.Fprintln(w, "Bids:")
	for _, lvl := range bids {
		fmt.Fprintf(w, "  %d : %d\n", lvl.Price, lvl.Qty)
	}
	fmt.Fprintln(w, "Asks:")
	for _, lvl := range asks {
		fmt.Fprintf(w, "  %d : %d\n", lvl.Price, lvl.Qty)
	}
}

// remove unlinks, unindexes and releases a resting order. The three
// updates are not observable separately: callers only ever see the book
// through Book methods, which run to completion.
func (b *Book) remove(id uint64, h memory.Handle) {
	rec := b.slots.At(h)
	side := b.side(rec.Side)

	lvl := b.level(side, rec.Price, id)
	lvl.unlink(b.slots, h)
	if lvl.empty() {
		side.drop(lvl.Price)
	}

	delete(b.index, id)
	b.slots.Release(h)
}

func (b *Book) side(s Side) *ladder {
	if s == Bid {
		return &b.bids
	}
	return &b.asks
}

// level resolves the ladder level an indexed record claims to rest in.
// A miss means the index and ledger disagree, which is a core bug.
func (b *Book) level(side *ladder, price int64, id uint64) *PriceLevel {
	lvl := side.find(price)
	if lvl == nil {
		panic(fmt.Sprintf("book: order %d indexed at price %d but level is missing", id, price))
	}
	return lvl
}

func topOf(l *ladder) (Level, bool) {
	lvl := l.best()
	if lvl == nil {
		return Level{}, false
	}
	return Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.Count}, true
}
