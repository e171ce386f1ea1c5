package register

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Byte(t *testing.T) {
	tests := []struct {
		name     string
		given    Command
		expected byte
	}{
		{"off", Off, 0x00},
		{"idle", Idle, 0x04},
		{"reset", Reset, 0x04},
		{"begin", Begin, 0xA5},
		{"next", Next, 0x85},
		{"next ack", NextAck, 0xC5},
		{"finish", Finish, 0x94},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.given.Byte())
			assert.Equal(t, test.given, Decode(test.expected))
		})
	}
}

func TestBusy(t *testing.T) {
	assert.True(t, Busy(Begin.Byte()))
	assert.True(t, Busy(NextAck.Byte()))
	assert.False(t, Busy(Finish.Byte()))
	assert.False(t, Busy(Reset.Byte()))
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		given    Status
		expected string
	}{
		{Start, "START"},
		{MRxDataNack, "MRX_DATA_NACK"},
		{Timeout, "TIMEOUT"},
		{Status(0x21), "MTX_ADR_NACK(0x21)"},
		{Status(0xA8), "UNKNOWN(0xa8)"},
		{Status(0x02), "BUS_ERROR(0x02)"},
		{Status(0x0B), "START(0x0b)"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#04x", byte(test.given)), func(t *testing.T) {
			assert.Equal(t, test.expected, test.given.String())
		})
	}
}

func TestStatus_Fatal(t *testing.T) {
	for _, s := range []Status{Start, RepStart, ArbLost, MTxAdrAck, MTxDataAck, MRxAdrAck, MRxDataAck, MRxDataNack, NoState} {
		assert.False(t, s.Fatal(), s.String())
	}
	for _, s := range []Status{MTxAdrNack, MTxDataNack, MRxAdrNack, BusError, Timeout, Status(0xA8), Status(0x32)} {
		assert.True(t, s.Fatal(), s.String())
	}
}

func TestMasked(t *testing.T) {
	assert.Equal(t, MTxDataAck, Masked(0x2B))
	assert.Equal(t, NoState, Masked(0xFF))
}

func TestBitRate(t *testing.T) {
	div, err := BitRate(DefaultCPUClock, Clock200kHz, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(32), div)
	assert.Equal(t, uint32(Clock200kHz), SCL(DefaultCPUClock, div, 1))

	div, err = BitRate(DefaultCPUClock, Clock100kHz, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(72), div)

	_, err = BitRate(DefaultCPUClock, 2000000, 1)
	assert.Error(t, err)
	_, err = BitRate(DefaultCPUClock, 1000, 1)
	assert.Error(t, err)
	_, err = BitRate(DefaultCPUClock, 0, 1)
	assert.Error(t, err)
	_, err = BitRate(DefaultCPUClock, Clock200kHz, 3)
	assert.Error(t, err)

	div, err = BitRate(DefaultCPUClock, Clock200kHz, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(8), div)
	assert.Equal(t, uint32(Clock200kHz), SCL(DefaultCPUClock, div, 4))
}

func TestPrescalerBits(t *testing.T) {
	for bits, p := range []uint32{1, 4, 16, 64} {
		got, err := PrescalerBits(p)
		require.NoError(t, err)
		assert.Equal(t, byte(bits), got)
		assert.Equal(t, p, Prescaler(got))
	}
	for _, p := range []uint32{0, 2, 8, 128} {
		_, err := PrescalerBits(p)
		assert.Error(t, err, p)
	}
	// reserved bits are ignored
	assert.Equal(t, uint32(64), Prescaler(0xFF))
}
