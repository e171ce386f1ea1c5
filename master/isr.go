package master

import "github.com/mklimuk/twi/register"

// transfer is the descriptor shared between the foreground and the interrupt
// handler. The foreground only touches it while the bus is idle, the handler
// only while it is busy.
type transfer struct {
	buf    []byte
	length int
	cursor int
	// arbitration losses seen since the last Start
	arbLost int
}

// action is what one interrupt step does to the controller.
type action struct {
	cmd register.Command
	// load writes data to the data register before cmd.
	load bool
	data byte
	// final records the outcome of the transfer.
	final  bool
	ok     bool
	status register.Status
}

// step executes one protocol step for the raw status register value. rx is
// the content of the data register at the time of the interrupt.
func (x *transfer) step(raw, rx byte, maxArb int) action {
	switch register.Masked(raw) {
	case register.Start, register.RepStart:
		x.cursor = 0
		return x.transmit()
	case register.MTxAdrAck, register.MTxDataAck:
		return x.transmit()
	case register.MRxDataAck:
		if x.cursor < x.length {
			x.buf[x.cursor] = rx
			x.cursor++
		}
		return x.armReceive()
	case register.MRxAdrAck:
		return x.armReceive()
	case register.MRxDataNack:
		if x.cursor < x.length {
			x.buf[x.cursor] = rx
		}
		return done()
	case register.ArbLost:
		x.arbLost++
		if maxArb > 0 && x.arbLost > maxArb {
			return fail(raw)
		}
		return action{cmd: register.Begin}
	default:
		// address NACK, data NACK, bus error and anything unexpected
		return fail(raw)
	}
}

// transmit clocks out the next byte or closes the transfer with a STOP.
func (x *transfer) transmit() action {
	if x.cursor < x.length {
		b := x.buf[x.cursor]
		x.cursor++
		return action{cmd: register.Next, load: true, data: b}
	}
	return done()
}

// armReceive acknowledges the next byte unless it is the last one.
func (x *transfer) armReceive() action {
	if x.cursor < x.length-1 {
		return action{cmd: register.NextAck}
	}
	return action{cmd: register.Next}
}

func done() action {
	return action{cmd: register.Finish, final: true, ok: true, status: register.NoState}
}

func fail(raw byte) action {
	return action{cmd: register.Reset, final: true, status: register.Status(raw)}
}

// Service is the TWI interrupt handler. It must be bound to the controller's
// interrupt and never be called concurrently with itself.
func (d *Driver) Service() {
	raw := d.regs.Status()
	act := d.xfer.step(raw, d.regs.Data(), d.cfg.ArbitrationRetries)
	if act.final {
		d.setOutcome(act.ok, act.status)
	}
	if act.load {
		d.regs.SetData(act.data)
	}
	d.regs.SetControl(act.cmd.Byte())
}
