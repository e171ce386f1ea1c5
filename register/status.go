package register

import "fmt"

// Status is a TWI status register code.
type Status byte

// StatusMask drops the prescaler bits of the status register.
const StatusMask = 0xF8

// General master status codes
const (
	Start    Status = 0x08 // START has been transmitted
	RepStart Status = 0x10 // repeated START has been transmitted
	ArbLost  Status = 0x38 // arbitration lost
)

// Master transmitter status codes
const (
	MTxAdrAck   Status = 0x18 // SLA+W transmitted, ACK received
	MTxAdrNack  Status = 0x20 // SLA+W transmitted, NACK received
	MTxDataAck  Status = 0x28 // data transmitted, ACK received
	MTxDataNack Status = 0x30 // data transmitted, NACK received
)

// Master receiver status codes
const (
	MRxAdrAck   Status = 0x40 // SLA+R transmitted, ACK received
	MRxAdrNack  Status = 0x48 // SLA+R transmitted, NACK received
	MRxDataAck  Status = 0x50 // data received, ACK returned
	MRxDataNack Status = 0x58 // data received, NACK returned
)

// Miscellaneous codes. Timeout is synthetic and never read from hardware.
const (
	NoState  Status = 0xF8
	Timeout  Status = 0x01
	BusError Status = 0x00
)

// Masked returns the status with the prescaler bits cleared.
func Masked(raw byte) Status {
	return Status(raw & StatusMask)
}

var statusNames = map[Status]string{
	Start:       "START",
	RepStart:    "REP_START",
	ArbLost:     "ARB_LOST",
	MTxAdrAck:   "MTX_ADR_ACK",
	MTxAdrNack:  "MTX_ADR_NACK",
	MTxDataAck:  "MTX_DATA_ACK",
	MTxDataNack: "MTX_DATA_NACK",
	MRxAdrAck:   "MRX_ADR_ACK",
	MRxAdrNack:  "MRX_ADR_NACK",
	MRxDataAck:  "MRX_DATA_ACK",
	MRxDataNack: "MRX_DATA_NACK",
	NoState:     "NO_STATE",
	Timeout:     "TIMEOUT",
	BusError:    "BUS_ERROR",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if name, ok := statusNames[Masked(byte(s))]; ok {
		return fmt.Sprintf("%s(%#04x)", name, byte(s))
	}
	return fmt.Sprintf("UNKNOWN(%#04x)", byte(s))
}

// MarshalYAML renders the status by name in reports.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Fatal reports whether s ends a transfer unsuccessfully.
func (s Status) Fatal() bool {
	switch Masked(byte(s)) {
	case Start, RepStart, ArbLost, MTxAdrAck, MTxDataAck, MRxAdrAck, MRxDataAck, MRxDataNack, NoState:
		return false
	}
	return true
}
