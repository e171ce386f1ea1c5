package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/register"
)

var bitrateCmd = cli.Command{
	Name:  "bitrate",
	Usage: "compute the bit-rate divisor for a bus clock",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "cpu", Usage: "core clock in Hz", Value: register.DefaultCPUClock},
		&cli.UintFlag{Name: "scl", Usage: "bus clock in Hz", Value: register.Clock200kHz},
		&cli.UintFlag{Name: "prescaler", Usage: "prescaler value (1, 4, 16 or 64)", Value: 1},
	},
	Action: func(c *cli.Context) error {
		cpu, scl, prescaler := uint32(c.Uint("cpu")), uint32(c.Uint("scl")), uint32(c.Uint("prescaler"))
		div, err := register.BitRate(cpu, scl, prescaler)
		if err != nil {
			return console.Fail(err)
		}
		console.PInfof(console.PictoClock, "divisor %s (%#04x), actual bus clock %s Hz",
			console.White(div), div, console.White(register.SCL(cpu, div, prescaler)))
		return nil
	},
}
