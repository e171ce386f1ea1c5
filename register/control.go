package register

// Control register bit positions (TWCR layout).
const (
	TWIE  = 0
	TWEN  = 2
	TWWC  = 3
	TWSTO = 4
	TWSTA = 5
	TWEA  = 6
	TWINT = 7
)

// Command is a full control register write. Every field the bus master
// drives is set explicitly so no write depends on the register reset state.
type Command struct {
	Enable    bool // TWEN
	Interrupt bool // TWIE
	ClearFlag bool // TWINT, writing one clears the flag and starts the next step
	Ack       bool // TWEA
	Start     bool // TWSTA
	Stop      bool // TWSTO
}

func bit(set bool, pos uint) byte {
	if set {
		return 1 << pos
	}
	return 0
}

// Byte encodes the command. TWWC is always written as zero.
func (c Command) Byte() byte {
	return bit(c.Enable, TWEN) |
		bit(c.Interrupt, TWIE) |
		bit(c.ClearFlag, TWINT) |
		bit(c.Ack, TWEA) |
		bit(c.Start, TWSTA) |
		bit(c.Stop, TWSTO)
}

// Decode is the inverse of Byte.
func Decode(v byte) Command {
	return Command{
		Enable:    v&(1<<TWEN) != 0,
		Interrupt: v&(1<<TWIE) != 0,
		ClearFlag: v&(1<<TWINT) != 0,
		Ack:       v&(1<<TWEA) != 0,
		Start:     v&(1<<TWSTA) != 0,
		Stop:      v&(1<<TWSTO) != 0,
	}
}

// Commands issued by the bus master.
var (
	// Idle enables the interface with no interrupt and no pending request.
	Idle = Command{Enable: true}
	// Reset releases the bus lines and disables the interrupt. It has the
	// same encoding as Idle; it is kept separate so call sites read as what
	// they do.
	Reset = Command{Enable: true}
	// Begin requests a START condition with the interrupt enabled.
	Begin = Command{Enable: true, Interrupt: true, ClearFlag: true, Start: true}
	// Next clocks the data register out (or the next byte in) without ACK.
	Next = Command{Enable: true, Interrupt: true, ClearFlag: true}
	// NextAck receives the next byte and acknowledges it.
	NextAck = Command{Enable: true, Interrupt: true, ClearFlag: true, Ack: true}
	// Finish requests a STOP condition and disables the interrupt.
	Finish = Command{Enable: true, ClearFlag: true, Stop: true}
	// Off disables the peripheral entirely.
	Off = Command{}
)

// Busy reports whether the interrupt enable bit is set in v.
func Busy(v byte) bool {
	return v&(1<<TWIE) != 0
}
