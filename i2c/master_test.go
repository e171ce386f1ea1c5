package i2c

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/busctx"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/sim"
)

const eepromAddress = 0x50

func newBus(t *testing.T, opts ...sim.Option) (*MasterBus, *sim.Controller) {
	t.Helper()
	ctrl := sim.NewController(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	drv, err := master.New(ctrl,
		master.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		master.WithWait(100000, time.Microsecond),
	)
	require.NoError(t, err)
	ctrl.Attach(drv.Service)
	drv.Init()
	return NewMasterBus(drv, 200*physic.KiloHertz), ctrl
}

func TestMasterBus_WriteRead(t *testing.T) {
	mem := sim.NewMemory(eepromAddress)
	bus, _ := newBus(t, sim.WithTarget(mem))
	ctx := busctx.SetVerbose(context.Background(), true)

	require.NoError(t, bus.WriteToAddr(ctx, eepromAddress, []byte{0x10, 0xDE, 0xAD, 0xBE, 0xEF}))
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, mem.Dump(0x10, 4))

	require.NoError(t, bus.WriteToAddr(ctx, eepromAddress, []byte{0x11}))
	out := make([]byte, 3)
	require.NoError(t, bus.ReadFromAddr(ctx, eepromAddress, out))
	assert.Equal(t, []byte{0xAD, 0xBE, 0xEF}, out)
	assert.NoError(t, bus.Release(ctx))
}

func TestMasterBus_PeriphDev(t *testing.T) {
	mem := sim.NewMemory(eepromAddress)
	mem.Load(0x00, []byte{0x01, 0x02, 0x03})
	bus, _ := newBus(t, sim.WithTarget(mem))
	dev := &i2c.Dev{Bus: bus, Addr: eepromAddress}

	out := make([]byte, 2)
	require.NoError(t, dev.Tx([]byte{0x01}, out))
	assert.Equal(t, []byte{0x02, 0x03}, out)

	n, err := dev.Write([]byte{0x05, 0x55})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, byte(0x55), mem.Dump(0x05, 1)[0])
}

func TestMasterBus_AddressOnly(t *testing.T) {
	bus, ctrl := newBus(t, sim.WithTarget(sim.NewMemory(eepromAddress)))
	require.NoError(t, bus.Tx(eepromAddress, nil, nil))
	err := bus.Tx(0x51, nil, nil)
	assert.ErrorIs(t, err, twi.ErrNack)
	frames := ctrl.Frames()
	require.Len(t, frames, 1)
	assert.Empty(t, frames[0].Data)
}

func TestMasterBus_Errors(t *testing.T) {
	bus, _ := newBus(t)
	err := bus.WriteToAddr(context.Background(), eepromAddress, []byte{0x00})
	assert.ErrorIs(t, err, twi.ErrTransfer)
	assert.ErrorIs(t, err, twi.ErrNack)

	assert.ErrorIs(t, bus.Tx(0x3FF, []byte{0x00}, nil), ErrAddress)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.WriteToAddr(ctx, eepromAddress, nil), context.Canceled)
}

func TestMasterBus_Speed(t *testing.T) {
	bus, _ := newBus(t)
	assert.NoError(t, bus.SetSpeed(200*physic.KiloHertz))
	assert.ErrorIs(t, bus.SetSpeed(400*physic.KiloHertz), ErrFixedSpeed)
	assert.Contains(t, bus.String(), "twi-master")
}

func TestDevice(t *testing.T) {
	mem := sim.NewMemory(eepromAddress)
	bus, _ := newBus(t, sim.WithTarget(mem))
	dev := &Device{Bus: bus, Address: eepromAddress}
	ctx := context.Background()
	require.NoError(t, dev.Write(ctx, []byte{0x20, 0x42}))
	require.NoError(t, dev.Write(ctx, []byte{0x20}))
	out := make([]byte, 1)
	require.NoError(t, dev.Read(ctx, out))
	assert.Equal(t, byte(0x42), out[0])
}
