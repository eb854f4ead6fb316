package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic operation sequence numbers.
// Sequence 0 is never issued; it marks "no operations yet".
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer that will issue start+1 next. Pass 0 on a
// fresh start, or the last journaled sequence after replay.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset rewinds the sequencer. Only valid before traffic is accepted,
// after journal replay.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
