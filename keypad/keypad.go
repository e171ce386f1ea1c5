package keypad

// Event is what a button reported during the last period.
type Event int

const (
	None Event = iota
	Click
	Hold
)

func (e Event) String() string {
	switch e {
	case Click:
		return "click"
	case Hold:
		return "hold"
	default:
		return "none"
	}
}

// Key identifies a button.
type Key int

// Debounce thresholds in debounce ticks.
const (
	DefaultClickTicks = 2
	DefaultHoldTicks  = 100
)

type button struct {
	input    bool
	latched  bool
	debounce int
	event    Event
}

// Keypad debounces a set of buttons. Periodic must be called on every pass
// of the control loop; events are only visible until the next call.
type Keypad struct {
	buttons    []button
	clickTicks int
	holdTicks  int
}

type Option func(*Keypad)

// WithThresholds sets how many debounce ticks make a click and a hold.
func WithThresholds(click, hold int) Option {
	return func(k *Keypad) {
		k.clickTicks = click
		k.holdTicks = hold
	}
}

func New(keys int, opts ...Option) *Keypad {
	k := &Keypad{
		buttons:    make([]button, keys),
		clickTicks: DefaultClickTicks,
		holdTicks:  DefaultHoldTicks,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Keypad) SetInput(key Key, pressed bool) {
	k.buttons[key].input = pressed
}

func (k *Keypad) Input(key Key) bool {
	return k.buttons[key].input
}

func (k *Keypad) ResetInputs() {
	for i := range k.buttons {
		k.buttons[i].input = false
	}
}

func (k *Keypad) Event(key Key) Event {
	return k.buttons[key].event
}

// Periodic advances the debounce state of every button. tick tells whether
// a debounce period elapsed since the previous call.
func (k *Keypad) Periodic(tick bool) {
	for i := range k.buttons {
		b := &k.buttons[i]
		b.event = None
		if tick && b.debounce < k.holdTicks {
			b.debounce++
		}
		switch {
		case !b.latched && b.input:
			// pressed
			b.debounce = 0
		case b.latched && b.input:
			if b.debounce == k.holdTicks {
				b.event = Hold
				// report the hold only once
				b.debounce = k.holdTicks + 1
			}
		case b.latched && !b.input:
			if b.debounce >= k.clickTicks && b.debounce < k.holdTicks {
				b.event = Click
			}
			b.debounce = 0
		}
		b.latched = b.input
	}
}
