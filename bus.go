package twi

import (
	"context"
	"errors"
)

var (
	ErrTransfer    = errors.New("twi transfer failed")
	ErrTimeout     = errors.New("twi transfer timed out")
	ErrNack        = errors.New("twi peer did not acknowledge")
	ErrBusError    = errors.New("twi bus error (illegal START or STOP)")
	ErrArbitration = errors.New("twi arbitration lost")
	ErrBusBusy     = errors.New("twi engine is busy (transfer not completed)")
)

// Registers is the register file of a TWI controller as seen by the bus
// master. Implementations must make Control and SetControl safe to call from
// the interrupt and the foreground context at the same time.
type Registers interface {
	// SetBitRate writes the bit-rate divisor register.
	SetBitRate(div byte)
	// SetPrescaler writes the prescaler select bits (TWPS), which share the
	// status register with the status code.
	SetPrescaler(bits byte)
	// SetPullUps drives the internal pull-ups of the SDA and SCL lines.
	SetPullUps(enabled bool)
	Control() byte
	SetControl(v byte)
	Status() byte
	Data() byte
	SetData(v byte)
}

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

type I2CDevice interface {
	BusReader
	BusWriter
}
