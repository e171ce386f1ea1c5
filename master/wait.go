package master

import "github.com/mklimuk/twi/register"

// wait polls the busy flag until the bus is idle. Once the poll budget (or
// the optional soft-timer deadline) is exhausted the transfer is recorded as
// timed out and the controller is forced back to idle.
func (d *Driver) wait() {
	if dl := d.cfg.deadline; dl != nil {
		dl.timers.Timeout(0, dl.id)
	}
	for i := 1; ; i++ {
		d.cfg.Delay(d.cfg.WaitInterval)
		if !d.Busy() {
			return
		}
		if i > d.cfg.WaitBudget || d.deadlineExpired() {
			d.abort(i)
		}
	}
}

func (d *Driver) deadlineExpired() bool {
	dl := d.cfg.deadline
	return dl != nil && dl.timers.Timeout(dl.ms, dl.id)
}

func (d *Driver) abort(polls int) {
	d.setOutcome(false, register.Timeout)
	d.regs.SetControl(register.Reset.Byte())
	d.log.Warn("twi wait timed out, bus reset", "polls", polls, "length", d.xfer.length)
}
