package collection

import "sync/atomic"

// Clock is a monotonic logical clock for event ordering.
//
// Every emitted event is stamped with a strictly increasing Seq from the
// collection's clock. Collections built with a shared clock (WithClock)
// produce one totally ordered stream across all of them.
//
// Clock is safe for concurrent use, though a collection's single writer is
// normally the only caller.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
