package timer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSoftTimers_Timeout(t *testing.T) {
	clock := &Clock{}
	timers := NewSoftTimers(clock)
	timers.Reset(Timer2)

	assert.False(t, timers.Timeout(6, Timer2))
	clock.Advance(5)
	assert.False(t, timers.Timeout(6, Timer2))
	clock.Tick()
	assert.True(t, timers.Timeout(6, Timer2))
	// expired timers are re-based
	assert.False(t, timers.Timeout(6, Timer2))
	assert.Equal(t, uint32(0), timers.Elapsed(Timer2))
}

func TestSoftTimers_ZeroCyclesResets(t *testing.T) {
	clock := &Clock{}
	timers := NewSoftTimers(clock)
	clock.Advance(100)
	assert.False(t, timers.Timeout(0, Timer1))
	assert.Equal(t, uint32(0), timers.Elapsed(Timer1))
	clock.Advance(10)
	assert.True(t, timers.Timeout(10, Timer1))
}

func TestSoftTimers_Independent(t *testing.T) {
	clock := &Clock{}
	timers := NewSoftTimers(clock)
	clock.Advance(10)
	timers.Reset(Timer3)
	assert.True(t, timers.Timeout(10, Timer0))
	assert.False(t, timers.Timeout(10, Timer3))
}

func TestSoftTimers_WrapAround(t *testing.T) {
	clock := &Clock{}
	clock.Advance(math.MaxUint32 - 2)
	timers := NewSoftTimers(clock)
	timers.Reset(Timer5)
	clock.Advance(5)
	assert.Equal(t, uint32(2), clock.Now())
	assert.True(t, timers.Timeout(5, Timer5))
}

func TestClock_Run(t *testing.T) {
	clock := &Clock{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		clock.Run(ctx, time.Millisecond)
		close(done)
	}()
	assert.Eventually(t, func() bool { return clock.Now() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
