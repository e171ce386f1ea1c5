package i2c

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/twi"
)

var _ twi.I2CBus = &NeoBus{}

// NeoBus is a bus of a NanoPi NEO board driven through gobot.
type NeoBus struct {
	mx      sync.Mutex
	adaptor *nanopi.NeoAdaptor
	bus     int
}

// NewNeoBus connects the board adaptor and selects bus number bus.
func NewNeoBus(bus int) (*NeoBus, error) {
	adaptor := nanopi.NewNeoAdaptor()
	if err := adaptor.I2cBusAdaptor.Connect(); err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	return &NeoBus{adaptor: adaptor, bus: bus}, nil
}

func (b *NeoBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.with(address, func(d *i2c.GenericDriver) error {
		if err := d.Write(buffer); err != nil {
			return fmt.Errorf("could not write to %#x: %w", address, err)
		}
		return nil
	})
}

func (b *NeoBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.with(address, func(d *i2c.GenericDriver) error {
		if err := d.Read(buffer); err != nil {
			return fmt.Errorf("could not read from %#x: %w", address, err)
		}
		return nil
	})
}

func (b *NeoBus) Release(ctx context.Context) error {
	return nil
}

func (b *NeoBus) Close() error {
	return b.adaptor.I2cBusAdaptor.Finalize()
}

func (b *NeoBus) String() string {
	return fmt.Sprintf("nanopi-neo/i2c-%d", b.bus)
}

func (b *NeoBus) with(address byte, fn func(d *i2c.GenericDriver) error) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	d := i2c.NewGenericDriver(b.adaptor, "twi", int(address), func(c i2c.Config) {
		c.SetBus(b.bus)
	})
	if err := d.Start(); err != nil {
		return fmt.Errorf("could not start driver for %#x: %w", address, err)
	}
	defer func() { _ = d.Halt() }()
	return fn(d)
}
