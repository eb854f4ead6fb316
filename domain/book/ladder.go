package book

// Direction selects which end of the price range is the best price.
// Bids rank descending, asks ascending; both sides run the same code
// configured oppositely.
type Direction int

const (
	DescendingPrice Direction = iota // bids: best = highest
	AscendingPrice                   // asks: best = lowest
)

// Level is one row of a depth snapshot.
type Level struct {
	Price  int64
	Qty    int64
	Orders int
}

// ladder is one side's ordered collection of price levels.
type ladder struct {
	tree *rbTree
	dir  Direction
}

func newLadder(dir Direction) ladder {
	return ladder{tree: newRBTree(), dir: dir}
}

func (l *ladder) len() int { return l.tree.len() }

// levelFor returns the level at price, creating and inserting an empty
// one if the price is not present.
func (l *ladder) levelFor(price int64) *PriceLevel {
	if n := l.tree.find(price); n != l.tree.nil {
		return n.level
	}
	lvl := &PriceLevel{Price: price}
	l.tree.insert(price, lvl)
	return lvl
}

// find returns the level at price or nil.
func (l *ladder) find(price int64) *PriceLevel {
	n := l.tree.find(price)
	if n == l.tree.nil {
		return nil
	}
	return n.level
}

// drop removes the level at price from the ladder.
func (l *ladder) drop(price int64) bool {
	return l.tree.delete(price)
}

// best returns the top-of-book level, or nil when the side is empty.
func (l *ladder) best() *PriceLevel {
	var n *rbNode
	if l.dir == DescendingPrice {
		n = l.tree.max(l.tree.root)
	} else {
		n = l.tree.min(l.tree.root)
	}
	if n == l.tree.nil {
		return nil
	}
	return n.level
}

// walk visits levels best price first until fn returns false.
func (l *ladder) walk(fn func(*PriceLevel) bool) {
	if l.dir == DescendingPrice {
		l.tree.walkDesc(fn)
	} else {
		l.tree.walkAsc(fn)
	}
}

// snapshot returns up to depth levels in priority order.
func (l *ladder) snapshot(depth int) []Level {
	n := l.tree.len()
	if depth < n {
		n = depth
	}
	if n < 0 {
		n = 0
	}
	out := make([]Level, 0, n)
	if depth <= 0 {
		return out
	}
	l.walk(func(lvl *PriceLevel) bool {
		out = append(out, Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.Count})
		return len(out) < depth
	})
	return out
}
