package selector

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/sim"
	"github.com/mklimuk/twi/timer"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	clock *timer.Clock
	ctrl  *sim.Controller
	mem   *sim.Memory
	loop  *Loop
	sleep int
}

func newFixture(t *testing.T, targets ...sim.Target) *fixture {
	t.Helper()
	f := &fixture{clock: &timer.Clock{}}
	opts := []sim.Option{}
	for _, target := range targets {
		opts = append(opts, sim.WithTarget(target))
	}
	f.ctrl = sim.NewController(opts...)
	d, err := master.New(f.ctrl,
		master.WithExternalPullUps(),
		master.WithLogger(quiet),
		master.WithDelay(func(time.Duration) {
			for f.ctrl.Step() {
			}
		}),
	)
	require.NoError(t, err)
	f.ctrl.Attach(d.Service)
	f.loop = NewLoop(d, timer.NewSoftTimers(f.clock), WithLogger(quiet), WithSleep(func() { f.sleep++ }))
	return f
}

// run steps the loop once per millisecond.
func (f *fixture) run(ms int, pressed bool) {
	for i := 0; i < ms; i++ {
		f.clock.Tick()
		f.loop.Step(pressed)
	}
}

func (f *fixture) click() {
	f.run(40, true)
	f.run(1, false)
}

func TestSelector_Next(t *testing.T) {
	var s Selector
	s.Next()
	src, pending := s.Pending()
	assert.True(t, pending)
	assert.Equal(t, AUX, src)
	// ignored while pending
	s.Next()
	src, _ = s.Pending()
	assert.Equal(t, AUX, src)

	s.current = AUX
	s.Next()
	src, _ = s.Pending()
	assert.Equal(t, Radio, src)
	s.current = Radio
	s.Next()
	src, _ = s.Pending()
	assert.Equal(t, CD, src)
	s.current = CD
	s.Next()
	src, _ = s.Pending()
	assert.Equal(t, AUX, src)
}

func TestCommand(t *testing.T) {
	assert.Equal(t, []byte{0x38, 0x0D, 0x00, 0x6A, 0x00, 0x00, 0x2B}, Command(CD))
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("radio")
	require.NoError(t, err)
	assert.Equal(t, Radio, src)
	assert.Equal(t, "RADIO", src.String())
	_, err = ParseSource("tape")
	assert.Error(t, err)
	assert.Equal(t, "SOURCE(0x07)", Source(0x07).String())
}

func TestLoop_ClickSwitchesSource(t *testing.T) {
	mem := sim.NewMemory(DSPAddress)
	f := newFixture(t, mem)

	f.click()
	f.run(TxAfter, false)

	assert.Equal(t, AUX, f.loop.Current())
	frames := f.ctrl.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, Command(AUX)[1:], frames[0].Data)
	assert.Equal(t, byte(AUX), mem.Dump(0x11, 1)[0])
	assert.Equal(t, byte(0), f.ctrl.Control())
	assert.False(t, f.ctrl.PullUps())

	f.click()
	f.run(TxAfter, false)
	assert.Equal(t, Radio, f.loop.Current())
	assert.Equal(t, 0, f.loop.Failed())
}

func TestLoop_BusActivityDefersCommand(t *testing.T) {
	f := newFixture(t, sim.NewMemory(DSPAddress))
	f.loop.Select(CD)
	for i := 0; i < 20; i++ {
		f.loop.BusActivity()
		f.run(TxAfter-1, false)
	}
	assert.Empty(t, f.ctrl.Frames())
	f.run(1, false)
	assert.Len(t, f.ctrl.Frames(), 1)
	assert.Equal(t, CD, f.loop.Current())
}

func TestLoop_FailedCommandIsDropped(t *testing.T) {
	f := newFixture(t)
	f.loop.Select(Radio)
	f.run(TxAfter, false)
	assert.Equal(t, 1, f.loop.Failed())
	assert.Equal(t, Radio, f.loop.Current())
	_, pending := f.loop.Pending()
	assert.False(t, pending)
}

func TestLoop_Sleep(t *testing.T) {
	f := newFixture(t, sim.NewMemory(DSPAddress))
	f.run(SleepAfter, false)
	assert.Equal(t, 1, f.sleep)
}
