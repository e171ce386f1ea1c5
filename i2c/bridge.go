package i2c

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/busctx"
)

// USB identifiers of the MCP2221 USB to I2C bridge.
const (
	BridgeVendorID  = 0x04D8
	BridgeProductID = 0x00DD
)

const (
	reportSize  = 64
	writeHeader = 4
	// MaxBridgeWrite is the payload of one write report.
	MaxBridgeWrite = reportSize - writeHeader
)

// Bridge report commands.
const (
	cmdStatus   = 0x10
	cmdWrite    = 0x90
	cmdRead     = 0x91
	cmdReadData = 0x40

	cancelTransfer = 0x10
	readFailed     = 0x41
	engineBusy     = 0x01
)

var (
	ErrBridgeNotFound  = errors.New("usb bridge not found")
	ErrBridgeWriteSize = errors.New("write does not fit in a bridge report")
)

var _ twi.I2CBus = &Bridge{}

// BridgeStatus is the engine state reported by the bridge.
type BridgeStatus struct {
	Requested     uint16 `yaml:"requested"`
	Sent          uint16 `yaml:"sent"`
	BufferCounter int    `yaml:"buffer_counter"`
	SpeedDivider  int    `yaml:"speed_divider"`
	Timeout       int    `yaml:"timeout"`
	Address       string `yaml:"address"`
	ReadPending   int    `yaml:"read_pending"`
}

// Bridge is a hardware bus master reached through an MCP2221 USB bridge.
// Every call opens the HID device, exchanges one report and closes it.
type Bridge struct {
	mx       sync.Mutex
	index    int
	request  []byte
	response []byte
	settle   time.Duration
}

// NewBridge selects the index-th bridge connected to the host.
func NewBridge(index int) *Bridge {
	return &Bridge{
		index:    index,
		request:  make([]byte, reportSize),
		response: make([]byte, reportSize),
		settle:   50 * time.Millisecond,
	}
}

func (b *Bridge) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > MaxBridgeWrite {
		return fmt.Errorf("%w: %d bytes, at most %d fit in one report", ErrBridgeWriteSize, len(buffer), MaxBridgeWrite)
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	b.reset()
	b.request[0] = cmdWrite
	binary.LittleEndian.PutUint16(b.request[1:3], uint16(len(buffer)))
	b.request[3] = address << 1
	copy(b.request[writeHeader:], buffer)
	if err := b.exchange(ctx); err != nil {
		return fmt.Errorf("write to %#x failed: %w", address, err)
	}
	if b.response[1] == engineBusy {
		return twi.ErrBusBusy
	}
	return nil
}

func (b *Bridge) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.reset()
	b.request[0] = cmdRead
	binary.LittleEndian.PutUint16(b.request[1:3], uint16(len(buffer)))
	b.request[3] = address<<1 | 1
	if err := b.exchange(ctx); err != nil {
		return fmt.Errorf("read from %#x failed: %w", address, err)
	}
	b.reset()
	b.request[0] = cmdReadData
	if err := b.exchange(ctx); err != nil {
		return fmt.Errorf("could not fetch data read from %#x: %w", address, err)
	}
	if b.response[1] == readFailed {
		return fmt.Errorf("bridge could not read from %#x", address)
	}
	if int(b.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size; expected %d, got %d", len(buffer), b.response[3])
	}
	copy(buffer, b.response[4:])
	return nil
}

// Release cancels whatever transfer the bridge engine is stuck in.
func (b *Bridge) Release(ctx context.Context) error {
	_, err := b.status(ctx, true)
	return err
}

func (b *Bridge) Status(ctx context.Context) (BridgeStatus, error) {
	return b.status(ctx, false)
}

func (b *Bridge) status(ctx context.Context, cancel bool) (BridgeStatus, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.reset()
	b.request[0] = cmdStatus
	if cancel {
		b.request[2] = cancelTransfer
	}
	if err := b.exchange(ctx); err != nil {
		return BridgeStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	r := b.response
	return BridgeStatus{
		Requested:     binary.LittleEndian.Uint16(r[9:11]),
		Sent:          binary.LittleEndian.Uint16(r[11:13]),
		BufferCounter: int(r[13]),
		SpeedDivider:  int(r[14]),
		Timeout:       int(r[15]),
		Address:       hex.EncodeToString(r[16:18]),
		ReadPending:   int(r[25]),
	}, nil
}

func (b *Bridge) exchange(ctx context.Context) error {
	devs := hid.Enumerate(BridgeVendorID, BridgeProductID)
	if b.index >= len(devs) {
		return fmt.Errorf("%w: %d connected, index %d", ErrBridgeNotFound, len(devs), b.index)
	}
	dev, err := devs[b.index].Open()
	if err != nil {
		return fmt.Errorf("could not open bridge: %w", err)
	}
	defer func() { _ = dev.Close() }()
	busctx.Trace(ctx, "bridge request", "report", hex.EncodeToString(b.request))
	n, err := dev.Write(b.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(b.settle)
	n, err = dev.Read(b.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	busctx.Trace(ctx, "bridge response", "report", hex.EncodeToString(b.response))
	return nil
}

func (b *Bridge) reset() {
	clear(b.request)
	clear(b.response)
}
