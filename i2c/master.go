package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/busctx"
	"github.com/mklimuk/twi/master"
)

var (
	_ twi.I2CBus = &MasterBus{}
	_ i2c.Bus    = &MasterBus{}
)

var ErrFixedSpeed = errors.New("bus speed is fixed")
var ErrAddress = errors.New("only 7-bit addresses are supported")

// Master is the part of the bus master driver used by MasterBus.
type Master interface {
	Transfer(buf []byte) error
	Report() master.Report
}

// MasterBus runs addressed reads and writes through the interrupt-driven bus
// master, one transfer at a time.
type MasterBus struct {
	mx    sync.Mutex
	drv   Master
	speed physic.Frequency
}

// NewMasterBus wraps drv. speed is the rate the driver was configured for;
// it is the only rate SetSpeed accepts.
func NewMasterBus(drv Master, speed physic.Frequency) *MasterBus {
	return &MasterBus{drv: drv, speed: speed}
}

func (b *MasterBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	buf := make([]byte, len(buffer)+1)
	buf[0] = master.AddressByte(address, false)
	copy(buf[1:], buffer)
	err := b.transfer(ctx, buf)
	if err != nil {
		return fmt.Errorf("could not write to %#x: %w", address, err)
	}
	return nil
}

func (b *MasterBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	buf := make([]byte, len(buffer)+1)
	buf[0] = master.AddressByte(address, true)
	err := b.transfer(ctx, buf)
	if err != nil {
		return fmt.Errorf("could not read from %#x: %w", address, err)
	}
	copy(buffer, buf[1:])
	return nil
}

// Release is a no-op: every transfer ends with a STOP or a bus reset.
func (b *MasterBus) Release(ctx context.Context) error {
	return nil
}

func (b *MasterBus) transfer(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	err := b.drv.Transfer(buf)
	r := b.drv.Report()
	busctx.Trace(ctx, "twi transfer", "sla", fmt.Sprintf("%#04x", buf[0]), "len", len(buf), "status", r.Status, "errors", r.Errors)
	return err
}

// Tx writes w and then reads r, as two transfers. Either may be empty; when
// both are, the address alone is sent to check that the device answers.
func (b *MasterBus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%w: %#x", ErrAddress, addr)
	}
	ctx := context.Background()
	if len(w) > 0 || len(r) == 0 {
		if err := b.WriteToAddr(ctx, byte(addr), w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return b.ReadFromAddr(ctx, byte(addr), r)
	}
	return nil
}

func (b *MasterBus) SetSpeed(f physic.Frequency) error {
	if f != b.speed {
		return fmt.Errorf("%w at %s", ErrFixedSpeed, b.speed)
	}
	return nil
}

func (b *MasterBus) String() string {
	return fmt.Sprintf("twi-master@%s", b.speed)
}

// Device binds a bus to one peripheral address.
type Device struct {
	Bus     twi.I2CBus
	Address byte
}

var _ twi.I2CDevice = &Device{}

func (d *Device) Read(ctx context.Context, buffer []byte) error {
	return d.Bus.ReadFromAddr(ctx, d.Address, buffer)
}

func (d *Device) Write(ctx context.Context, buffer []byte) error {
	return d.Bus.WriteToAddr(ctx, d.Address, buffer)
}
