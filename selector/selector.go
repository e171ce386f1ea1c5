package selector

import (
	"fmt"
	"log/slog"

	"github.com/mklimuk/twi/keypad"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/timer"
)

// DSPAddress is the bus address of the audio DSP whose input mux is driven.
const DSPAddress = 0x1C

// Source is an input of the DSP mux.
type Source byte

const (
	Radio Source = 0x13 // tuner DAC
	CD    Source = 0x2B // I2S DAC
	AUX   Source = 0x19 // CD-IN analog inputs
)

func (s Source) String() string {
	switch s {
	case Radio:
		return "RADIO"
	case CD:
		return "CD"
	case AUX:
		return "AUX"
	default:
		return fmt.Sprintf("SOURCE(%#04x)", byte(s))
	}
}

// ParseSource accepts the source names returned by String.
func ParseSource(name string) (Source, error) {
	switch name {
	case "radio", "RADIO":
		return Radio, nil
	case "cd", "CD":
		return CD, nil
	case "aux", "AUX":
		return AUX, nil
	}
	return 0, fmt.Errorf("unknown source %q", name)
}

// Command returns the mux switch command for src, address byte included.
func Command(src Source) []byte {
	return []byte{master.AddressByte(DSPAddress, false), 0x0D, 0x00, 0x6A, 0x00, 0x00, byte(src)}
}

// Selector tracks the active source and the one requested by the user.
type Selector struct {
	current Source
	next    Source
}

func (s *Selector) Current() Source {
	return s.current
}

func (s *Selector) Pending() (Source, bool) {
	return s.next, s.next != s.current
}

// Next requests the following source: AUX, RADIO, CD and back to AUX. A
// request is ignored while another one is still pending.
func (s *Selector) Next() {
	if s.current != s.next {
		return
	}
	switch s.current {
	case AUX:
		s.next = Radio
	case Radio:
		s.next = CD
	default:
		s.next = AUX
	}
}

// Select requests src directly.
func (s *Selector) Select(src Source) {
	s.next = src
}

// Bus is the part of the bus master the control loop drives.
type Bus interface {
	Init()
	Disable()
	Transfer(buf []byte) error
}

var _ Bus = &master.Driver{}

const (
	SelectKey keypad.Key = iota
	numKeys
)

// Loop timings in milliseconds.
const (
	DebouncePeriod = 10
	// TxAfter is the bus idle time required before a command is sent.
	TxAfter = 6
	// SleepAfter is the bus idle time after which the sleep hook runs.
	SleepAfter = 30000
)

const (
	debounceTimer = timer.Timer1
	txTimer       = timer.Timer2
	sleepTimer    = timer.Timer3
)

// Loop is the control loop: it debounces the select button, cycles the
// source on a click and sends the mux command once the bus is quiet.
type Loop struct {
	Selector
	bus    Bus
	timers *timer.SoftTimers
	keys   *keypad.Keypad
	sleep  func()
	log    *slog.Logger
	failed int
}

type Option func(*Loop)

// WithSleep sets the hook called after SleepAfter milliseconds of bus
// inactivity.
func WithSleep(hook func()) Option {
	return func(l *Loop) {
		l.sleep = hook
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.log = logger
	}
}

func WithKeypad(k *keypad.Keypad) Option {
	return func(l *Loop) {
		l.keys = k
	}
}

func NewLoop(bus Bus, timers *timer.SoftTimers, opts ...Option) *Loop {
	l := &Loop{
		bus:    bus,
		timers: timers,
		keys:   keypad.New(int(numKeys)),
		sleep:  func() {},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, id := range []timer.ID{timer.Timer0, debounceTimer, txTimer, sleepTimer} {
		timers.Reset(id)
	}
	return l
}

// BusActivity is called whenever traffic from another master is seen on the
// bus; it postpones both sending and sleeping.
func (l *Loop) BusActivity() {
	l.timers.Reset(txTimer)
	l.timers.Reset(sleepTimer)
}

// Failed returns the number of commands the bus did not accept.
func (l *Loop) Failed() int {
	return l.failed
}

// Step runs one pass of the loop with the current button state.
func (l *Loop) Step(pressed bool) {
	l.keys.SetInput(SelectKey, pressed)
	l.keys.Periodic(l.timers.Timeout(DebouncePeriod, debounceTimer))
	if l.keys.Event(SelectKey) == keypad.Click {
		l.Next()
	}
	if l.timers.Timeout(TxAfter, txTimer) {
		l.apply()
	}
	if l.timers.Timeout(SleepAfter, sleepTimer) {
		l.log.Debug("bus idle, going to sleep")
		l.sleep()
		l.timers.Reset(txTimer)
		l.timers.Reset(sleepTimer)
		// a change requested before sleeping is dropped
		l.next = l.current
	}
}

// apply sends the pending source change, if any. The command is not retried:
// the source is considered switched either way.
func (l *Loop) apply() {
	src, pending := l.Pending()
	if !pending {
		return
	}
	l.bus.Init()
	err := l.bus.Transfer(Command(src))
	l.bus.Disable()
	if err != nil {
		l.failed++
		l.log.Error("could not switch source", "source", src, "error", err)
	} else {
		l.log.Info("source switched", "source", src)
	}
	l.current = src
}
