package memory

import "errors"

// ErrArenaExhausted is returned by Acquire when the arena has a block cap
// and every slot under the cap is live.
var ErrArenaExhausted = errors.New("memory: arena exhausted")

// DefaultBlockSize is the number of slots added per growth step.
const DefaultBlockSize = 1024

// Handle addresses one live slot in an Arena. The zero Handle is null.
// A Handle is valid from Acquire until the matching Release; the arena
// detects use after release via the generation half of the handle.
type Handle uint64

// Nil is the null handle.
const Nil Handle = 0

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

func (h Handle) slot() uint32 { return uint32(h) }
func (h Handle) gen() uint32  { return uint32(h >> 32) }

// IsNil reports whether h is the null handle.
func (h Handle) IsNil() bool { return h == Nil }

type cell[T any] struct {
	gen uint32 // bumped on every Release; 0 only before first use
	val T
}

// Arena is a typed slab allocator. It grows in fixed-size blocks, hands
// out generation-checked handles, and recycles released slots through a
// free list before growing again. Blocks are never returned to the
// runtime; the steady state allocates nothing.
//
// Arena is not safe for concurrent use.
type Arena[T any] struct {
	blocks    [][]cell[T]
	free      []uint32 // slot indices available for reuse
	blockSize uint32
	maxBlocks int // 0 means unbounded
	live      int
}

// NewArena creates an arena growing blockSize slots at a time.
// blockSize <= 0 selects DefaultBlockSize. maxBlocks caps growth;
// 0 means grow without bound.
func NewArena[T any](blockSize, maxBlocks int) *Arena[T] {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena[T]{
		blockSize: uint32(blockSize),
		maxBlocks: maxBlocks,
	}
}

// Acquire returns a handle to a zeroed slot, growing by one block if the
// free list is empty.
func (a *Arena[T]) Acquire() (Handle, *T, error) {
	if len(a.free) == 0 {
		if err := a.grow(); err != nil {
			return Nil, nil, err
		}
	}
	slot := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	c := a.cellAt(slot)
	if c.gen == 0 {
		c.gen = 1
	}
	a.live++
	return makeHandle(slot, c.gen), &c.val, nil
}

// Release returns the slot behind h to the free list. The handle is
// consumed: any later use of it panics. Releasing a stale handle panics.
func (a *Arena[T]) Release(h Handle) {
	c := a.check(h)
	var zero T
	c.val = zero
	c.gen++
	a.free = append(a.free, h.slot())
	a.live--
}

// At resolves a live handle. Stale or null handles indicate a caller bug
// and panic rather than returning an aliased slot.
func (a *Arena[T]) At(h Handle) *T {
	return &a.check(h).val
}

// Live returns the number of slots currently acquired.
func (a *Arena[T]) Live() int { return a.live }

// Cap returns the total number of slots across all blocks.
func (a *Arena[T]) Cap() int { return len(a.blocks) * int(a.blockSize) }

func (a *Arena[T]) grow() error {
	if a.maxBlocks > 0 && len(a.blocks) >= a.maxBlocks {
		return ErrArenaExhausted
	}
	base := uint32(len(a.blocks)) * a.blockSize
	a.blocks = append(a.blocks, make([]cell[T], a.blockSize))
	for i := a.blockSize; i > 0; i-- {
		a.free = append(a.free, base+i-1)
	}
	return nil
}

func (a *Arena[T]) cellAt(slot uint32) *cell[T] {
	return &a.blocks[slot/a.blockSize][slot%a.blockSize]
}

func (a *Arena[T]) check(h Handle) *cell[T] {
	if h.IsNil() {
		panic("memory: nil handle")
	}
	slot := h.slot()
	if int(slot) >= a.Cap() {
		panic("memory: handle out of range")
	}
	c := a.cellAt(slot)
	if c.gen != h.gen() {
		panic("memory: stale handle")
	}
	return c
}
