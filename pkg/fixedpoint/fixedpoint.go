// Package fixedpoint converts between the exact decimal prices spoken
// at the system boundary and the int64 price ticks the book works in.
package fixedpoint

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBadPrice   = errors.New("fixedpoint: unparseable price")
	ErrNotAligned = errors.New("fixedpoint: price not aligned to tick size")
)

// Converter maps decimal prices onto an integer tick grid.
type Converter struct {
	tick decimal.Decimal
}

// New builds a converter for a tick size such as "0.01".
func New(tickSize string) (*Converter, error) {
	tick, err := decimal.NewFromString(tickSize)
	if err != nil {
		return nil, fmt.Errorf("%w: tick size %q", ErrBadPrice, tickSize)
	}
	if tick.Sign() <= 0 {
		return nil, fmt.Errorf("fixedpoint: tick size %s must be positive", tick)
	}
	return &Converter{tick: tick}, nil
}

// ToTicks parses a decimal price string into ticks. Prices off the tick
// grid are rejected rather than rounded.
func (c *Converter) ToTicks(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPrice, s)
	}
	q, r := d.QuoRem(c.tick, 0)
	if !r.IsZero() {
		return 0, fmt.Errorf("%w: %s (tick %s)", ErrNotAligned, d, c.tick)
	}
	return q.IntPart(), nil
}

// FromTicks renders a tick count as a decimal price string.
func (c *Converter) FromTicks(ticks int64) string {
	return decimal.NewFromInt(ticks).Mul(c.tick).String()
}

// Tick returns the configured tick size.
func (c *Converter) Tick() string {
	return c.tick.String()
}
