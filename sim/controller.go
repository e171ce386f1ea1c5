package sim

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/register"
)

var _ twi.Registers = &Controller{}

type phase int

const (
	phaseIdle phase = iota
	phaseAddress
	phaseWrite
	phaseRead
	// the peer rejected the address or the last read was NACKed; only
	// STOP, START or a reset move the bus on
	phaseHold
)

// Frame is one addressed transaction as seen on the bus.
type Frame struct {
	Address byte   `yaml:"address"`
	Read    bool   `yaml:"read"`
	Data    []byte `yaml:"data"`
	// Acks holds the acknowledge bit the master returned for each received
	// byte (reads only).
	Acks []bool `yaml:"acks,omitempty"`
	// Complete is set when the frame was closed by a STOP.
	Complete bool `yaml:"complete"`
}

// Controller simulates a TWI peripheral and the bus behind it. Control
// register writes are queued and executed by Step (or by the goroutine
// started with Run), which then raises the interrupt if it is enabled.
type Controller struct {
	control atomic.Uint32
	status  atomic.Uint32
	data    atomic.Uint32
	bitRate atomic.Uint32
	pullUps atomic.Bool
	// TWPS bits, read back in the low end of the status register
	prescaler atomic.Uint32

	mx      sync.Mutex
	queue   []byte
	isr     func()
	kick    chan struct{}

	stepMx  sync.Mutex
	targets map[byte]Target
	faults  []Fault
	events  int
	phase   phase
	target  Target
	frame   *Frame
	frames  []Frame
	writes  []byte
}

type Option func(*Controller)

// WithTarget attaches a peripheral to the bus.
func WithTarget(t Target) Option {
	return func(c *Controller) {
		c.targets[t.Address()] = t
	}
}

// WithFaults schedules faults on bus events.
func WithFaults(faults ...Fault) Option {
	return func(c *Controller) {
		c.faults = append(c.faults, faults...)
	}
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		targets: make(map[byte]Target),
		kick:    make(chan struct{}, 1),
	}
	c.status.Store(uint32(register.NoState))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach binds the interrupt handler.
func (c *Controller) Attach(isr func()) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.isr = isr
}

func (c *Controller) SetBitRate(div byte) {
	c.bitRate.Store(uint32(div))
}

func (c *Controller) BitRate() byte {
	return byte(c.bitRate.Load())
}

func (c *Controller) SetPrescaler(bits byte) {
	c.prescaler.Store(uint32(bits & register.PrescalerMask))
}

// Prescaler returns the programmed prescaler select bits.
func (c *Controller) Prescaler() byte {
	return byte(c.prescaler.Load())
}

// SCL returns the bus clock the programmed divisor and prescaler give for
// the core clock cpuHz.
func (c *Controller) SCL(cpuHz uint32) uint32 {
	return register.SCL(cpuHz, c.BitRate(), register.Prescaler(c.Prescaler()))
}

func (c *Controller) SetPullUps(enabled bool) {
	c.pullUps.Store(enabled)
}

func (c *Controller) PullUps() bool {
	return c.pullUps.Load()
}

func (c *Controller) Control() byte {
	return byte(c.control.Load())
}

// SetControl stores the register (writing TWINT clears the flag) and queues
// the request for the bus.
func (c *Controller) SetControl(v byte) {
	c.control.Store(uint32(v &^ (1 << register.TWINT)))
	c.mx.Lock()
	c.queue = append(c.queue, v)
	c.writes = append(c.writes, v)
	c.mx.Unlock()
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Controller) Status() byte {
	return byte(c.status.Load()) | c.Prescaler()
}

func (c *Controller) Data() byte {
	return byte(c.data.Load())
}

func (c *Controller) SetData(v byte) {
	c.data.Store(uint32(v))
}

// Writes returns every value written to the control register so far.
func (c *Controller) Writes() []byte {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]byte(nil), c.writes...)
}

// Frames returns the transactions seen on the bus so far. A STOP still
// queued behind the last interrupt is executed first.
func (c *Controller) Frames() []Frame {
	for c.Step() {
	}
	c.stepMx.Lock()
	defer c.stepMx.Unlock()
	frames := make([]Frame, len(c.frames))
	copy(frames, c.frames)
	return frames
}

// Events returns the number of bus events executed so far.
func (c *Controller) Events() int {
	c.stepMx.Lock()
	defer c.stepMx.Unlock()
	return c.events
}

// Step executes the oldest queued control request, if any, and calls the
// interrupt handler when the request completes with the interrupt enabled.
// It reports whether a request was queued.
func (c *Controller) Step() bool {
	c.stepMx.Lock()
	defer c.stepMx.Unlock()
	c.mx.Lock()
	if len(c.queue) == 0 {
		c.mx.Unlock()
		return false
	}
	req := c.queue[0]
	c.queue = c.queue[1:]
	isr := c.isr
	c.mx.Unlock()

	if !c.execute(register.Decode(req)) {
		return true
	}
	c.control.Or(1 << register.TWINT)
	if register.Busy(c.Control()) && isr != nil {
		isr()
	}
	return true
}

// Run executes requests as they are written until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.kick:
			for c.Step() {
			}
		}
	}
}

// execute performs one bus action and reports whether it produced a new
// status (and so sets the interrupt flag).
func (c *Controller) execute(cmd register.Command) bool {
	if !cmd.Enable || !cmd.ClearFlag {
		// peripheral off or reset: the bus lines are released
		c.release(false)
		return false
	}
	if cmd.Stop {
		c.release(c.phase != phaseIdle)
		return false
	}
	fault, faulted := c.nextFault()
	if faulted {
		switch fault.Kind {
		case FaultStall:
			return false
		case FaultArbitrationLost:
			c.release(false)
			c.setStatus(register.ArbLost)
			return true
		case FaultBusError:
			c.release(false)
			c.setStatus(register.BusError)
			return true
		}
	}
	if cmd.Start {
		if c.phase != phaseIdle {
			c.closeFrame(false)
			c.setStatus(register.RepStart)
		} else {
			c.setStatus(register.Start)
		}
		c.phase = phaseAddress
		return true
	}
	switch c.phase {
	case phaseAddress:
		c.address(faulted && fault.Kind == FaultNackAddress)
	case phaseWrite:
		c.write(faulted && fault.Kind == FaultNackData)
	case phaseRead:
		c.read(cmd.Ack)
	default:
		return false
	}
	return true
}

func (c *Controller) address(forceNack bool) {
	sla := c.Data()
	read := sla&1 == 1
	t, ok := c.targets[sla>>1]
	ack := ok && !forceNack && t.Begin(read)
	switch {
	case ack && read:
		c.setStatus(register.MRxAdrAck)
	case ack:
		c.setStatus(register.MTxAdrAck)
	case read:
		c.setStatus(register.MRxAdrNack)
	default:
		c.setStatus(register.MTxAdrNack)
	}
	if !ack {
		c.phase = phaseHold
		return
	}
	c.target = t
	c.frame = &Frame{Address: sla >> 1, Read: read}
	c.phase = phaseWrite
	if read {
		c.phase = phaseRead
	}
}

func (c *Controller) write(forceNack bool) {
	b := c.Data()
	c.frame.Data = append(c.frame.Data, b)
	if c.target.Write(b) && !forceNack {
		c.setStatus(register.MTxDataAck)
		return
	}
	c.setStatus(register.MTxDataNack)
	c.phase = phaseHold
}

func (c *Controller) read(ack bool) {
	b := c.target.Read()
	c.data.Store(uint32(b))
	c.frame.Data = append(c.frame.Data, b)
	c.frame.Acks = append(c.frame.Acks, ack)
	if ack {
		c.setStatus(register.MRxDataAck)
		return
	}
	c.setStatus(register.MRxDataNack)
	c.phase = phaseHold
}

// release ends the current frame and frees the bus.
func (c *Controller) release(stopped bool) {
	c.closeFrame(stopped)
	c.phase = phaseIdle
	c.setStatus(register.NoState)
}

func (c *Controller) closeFrame(complete bool) {
	if c.target != nil {
		c.target.End()
		c.target = nil
	}
	if c.frame != nil {
		c.frame.Complete = complete
		c.frames = append(c.frames, *c.frame)
		c.frame = nil
	}
}

func (c *Controller) setStatus(s register.Status) {
	c.status.Store(uint32(s))
}

func (c *Controller) nextFault() (Fault, bool) {
	ev := c.events
	c.events++
	for i, f := range c.faults {
		if f.Event == ev {
			c.faults = append(c.faults[:i:i], c.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}
