package master

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/mklimuk/twi/register"
	"github.com/mklimuk/twi/timer"
)

// Bounded wait defaults: poll every 5µs, give up after 200 polls.
const (
	DefaultWaitBudget   = 200
	DefaultWaitInterval = 5 * time.Microsecond
)

// Expirer is the soft timer query used to put a wall-clock bound on a wait.
type Expirer interface {
	Timeout(cycles uint32, id timer.ID) bool
}

type deadline struct {
	timers Expirer
	id     timer.ID
	ms     uint32
}

type Config struct {
	CPUClock        uint32
	BusClock        uint32
	Prescaler       uint32
	ExternalPullUps bool
	WaitBudget      int
	WaitInterval    time.Duration
	// Delay is called between two polls of the busy flag.
	Delay func(time.Duration)
	// ArbitrationRetries bounds the re-issued STARTs of a single transfer.
	// Zero means unbounded.
	ArbitrationRetries int
	Logger             *slog.Logger
	deadline           *deadline
}

type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		CPUClock:     register.DefaultCPUClock,
		BusClock:     register.Clock200kHz,
		Prescaler:    1,
		WaitBudget:   DefaultWaitBudget,
		WaitInterval: DefaultWaitInterval,
		Delay:        spin,
	}
}

// WithClock sets the core clock and the bus clock the bit-rate divisor is
// computed from.
func WithClock(cpuHz, sclHz uint32) Option {
	return func(c *Config) {
		c.CPUClock = cpuHz
		c.BusClock = sclHz
	}
}

// WithPrescaler selects the bit-rate prescaler (1, 4, 16 or 64). Init
// programs it together with the divisor computed for it.
func WithPrescaler(p uint32) Option {
	return func(c *Config) {
		c.Prescaler = p
	}
}

// WithExternalPullUps leaves the internal pull-ups off: the bus already
// carries its own.
func WithExternalPullUps() Option {
	return func(c *Config) {
		c.ExternalPullUps = true
	}
}

// WithWait sets the poll budget and the interval between polls of the
// bounded wait.
func WithWait(budget int, interval time.Duration) Option {
	return func(c *Config) {
		c.WaitBudget = budget
		c.WaitInterval = interval
	}
}

func WithDelay(delay func(time.Duration)) Option {
	return func(c *Config) {
		c.Delay = delay
	}
}

// WithDeadline additionally ends a wait once soft timer id reports ms
// milliseconds since the wait began.
func WithDeadline(timers Expirer, id timer.ID, ms uint32) Option {
	return func(c *Config) {
		c.deadline = &deadline{timers: timers, id: id, ms: ms}
	}
}

func WithArbitrationRetries(n int) Option {
	return func(c *Config) {
		c.ArbitrationRetries = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// spin busy-waits for d, yielding the processor between clock reads.
func spin(d time.Duration) {
	until := time.Now().Add(d)
	for time.Now().Before(until) {
		runtime.Gosched()
	}
}
