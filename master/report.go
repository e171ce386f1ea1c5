package master

import "github.com/mklimuk/twi/register"

// Report is a non-blocking snapshot of the driver diagnostics.
type Report struct {
	Busy       bool            `yaml:"busy"`
	Successful bool            `yaml:"successful"`
	Status     register.Status `yaml:"status"`
	Errors     uint16          `yaml:"errors"`
	Control    byte            `yaml:"control"`
	BitRate    byte            `yaml:"bit_rate"`
	Prescaler  uint32          `yaml:"prescaler"`
}

func (d *Driver) Report() Report {
	ok, status := d.loadOutcome()
	return Report{
		Busy:       d.Busy(),
		Successful: ok,
		Status:     status,
		Errors:     d.ErrorCount(),
		Control:    d.regs.Control(),
		BitRate:    d.bitRate,
		Prescaler:  register.Prescaler(d.prescaler),
	}
}
