package master

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/register"
)

var ErrNoBuffer = errors.New("no transfer buffer")

const successBit = 1 << 8

// Driver is the single bus-master instance of a TWI controller. Service is
// its interrupt handler, every other method is foreground API.
type Driver struct {
	regs    twi.Registers
	cfg     *Config
	log     *slog.Logger
	bitRate byte
	// TWPS bits matching bitRate
	prescaler byte

	xfer transfer
	// success flag and status share one word so readers never see half of
	// an update
	outcome atomic.Uint32
	errors  atomic.Uint32
}

func New(regs twi.Registers, opts ...Option) (*Driver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	div, err := register.BitRate(cfg.CPUClock, cfg.BusClock, cfg.Prescaler)
	if err != nil {
		return nil, fmt.Errorf("could not compute bit rate: %w", err)
	}
	bits, err := register.PrescalerBits(cfg.Prescaler)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		regs:      regs,
		cfg:       cfg,
		log:       logger,
		bitRate:   div,
		prescaler: bits,
	}
	d.setOutcome(false, register.NoState)
	return d, nil
}

// AddressByte builds the SLA+R/W byte that opens every transfer buffer.
func AddressByte(address byte, read bool) byte {
	if read {
		return address<<1 | 1
	}
	return address << 1
}

// Init programs the bit rate and its prescaler, enables the interface and
// forgets any configured buffer.
func (d *Driver) Init() {
	d.regs.SetPrescaler(d.prescaler)
	d.regs.SetBitRate(d.bitRate)
	d.regs.SetControl(register.Idle.Byte())
	d.regs.SetPullUps(!d.cfg.ExternalPullUps)
	d.xfer = transfer{}
}

// Disable turns the peripheral off.
func (d *Driver) Disable() {
	d.regs.SetControl(register.Off.Byte())
}

// Busy reports whether a transfer is in flight.
func (d *Driver) Busy() bool {
	return register.Busy(d.regs.Control())
}

// Configure installs the buffer of the next transfer once the previous one
// has finished. The first byte is the address byte; for reads the remaining
// bytes are overwritten with received data. buf must not be touched by the
// caller until the transfer completes. A nil buffer is ignored.
func (d *Driver) Configure(buf []byte) {
	if buf == nil {
		return
	}
	d.wait()
	d.xfer.buf = buf
	d.xfer.length = len(buf)
}

// Start issues a START condition for the configured buffer. It does nothing
// if no buffer was ever configured.
func (d *Driver) Start() {
	if d.xfer.buf == nil {
		return
	}
	d.wait()
	d.xfer.arbLost = 0
	d.setOutcome(false, register.NoState)
	d.regs.SetControl(register.Begin.Byte())
}

// Result waits for the current transfer and reports whether it succeeded.
// Every failed result increments the error counter.
func (d *Driver) Result() bool {
	d.wait()
	ok, status := d.loadOutcome()
	if !ok {
		n := d.errors.Add(1)
		d.log.Debug("twi transfer failed", "status", status, "errors", uint16(n))
	}
	return ok
}

// LastStatus returns the status recorded by the last transfer without
// waiting for it.
func (d *Driver) LastStatus() register.Status {
	_, status := d.loadOutcome()
	return status
}

// ErrorCount returns the number of failed results, wrapping at 16 bits.
func (d *Driver) ErrorCount() uint16 {
	return uint16(d.errors.Load())
}

// Transfer runs a whole transfer on buf and blocks until it completes.
func (d *Driver) Transfer(buf []byte) error {
	if buf == nil {
		return ErrNoBuffer
	}
	d.Configure(buf)
	d.Start()
	if !d.Result() {
		return &TransferError{Status: d.LastStatus()}
	}
	return nil
}

func (d *Driver) setOutcome(ok bool, status register.Status) {
	v := uint32(status)
	if ok {
		v |= successBit
	}
	d.outcome.Store(v)
}

func (d *Driver) loadOutcome() (bool, register.Status) {
	v := d.outcome.Load()
	return v&successBit != 0, register.Status(v)
}
