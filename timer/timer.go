package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ID identifies a soft timer.
type ID int

const (
	Timer0 ID = iota
	Timer1
	Timer2
	Timer3
	Timer4
	Timer5
	Timer6
	Timer7
	Timer8
	Timer9
	Timer10
	NumTimers
)

// Clock is a monotonic millisecond counter. It wraps around after 2^32 ms.
type Clock struct {
	ms atomic.Uint32
}

// Tick advances the clock by one millisecond.
func (c *Clock) Tick() {
	c.ms.Add(1)
}

// Advance moves the clock forward by n milliseconds.
func (c *Clock) Advance(n uint32) {
	c.ms.Add(n)
}

func (c *Clock) Now() uint32 {
	return c.ms.Load()
}

// Run ticks the clock from a wall-clock ticker until ctx is done.
func (c *Clock) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// SoftTimers is a set of software timers sharing one clock.
type SoftTimers struct {
	mx    sync.Mutex
	clock *Clock
	base  [NumTimers]uint32
}

func NewSoftTimers(clock *Clock) *SoftTimers {
	return &SoftTimers{clock: clock}
}

// Timeout reports whether at least cycles milliseconds elapsed since timer id
// was last reset. An expired timer is re-based to the current time. A zero
// cycle count resets the timer and reports false.
func (t *SoftTimers) Timeout(cycles uint32, id ID) bool {
	t.mx.Lock()
	defer t.mx.Unlock()
	now := t.clock.Now()
	if cycles == 0 {
		t.base[id] = now
		return false
	}
	if now-t.base[id] >= cycles {
		t.base[id] = now
		return true
	}
	return false
}

func (t *SoftTimers) Reset(id ID) {
	t.Timeout(0, id)
}

// Elapsed returns the milliseconds since timer id was last reset or expired.
func (t *SoftTimers) Elapsed(id ID) uint32 {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.clock.Now() - t.base[id]
}
