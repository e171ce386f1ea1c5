package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/twi/busctx"
	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/sim"
)

var sendCmd = cli.Command{
	Name:  "send",
	Usage: "run one transfer against a simulated memory device",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "7-bit device address", Value: "0x50"},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "hex bytes to write after the address"},
		&cli.IntFlag{Name: "read", Aliases: []string{"r"}, Usage: "number of bytes to read instead of writing"},
		&cli.StringFlag{Name: "memory", Usage: "hex content preloaded into the device"},
		&cli.BoolFlag{Name: "absent", Usage: "leave the address without a device"},
		&cli.StringSliceFlag{Name: "fault", Aliases: []string{"f"}, Usage: "fault to inject as EVENT:KIND"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}, driverFlags...),
	Action: func(c *cli.Context) error {
		ctx := busctx.SetVerbose(context.Background(), c.Bool("verbose"))
		addr, err := parseAddress(c.String("addr"))
		if err != nil {
			return console.Fail(err)
		}
		payload, err := parseHex(c.String("data"))
		if err != nil {
			return console.Exit(1, "invalid data: %s", console.Red(err))
		}
		content, err := parseHex(c.String("memory"))
		if err != nil {
			return console.Exit(1, "invalid memory: %s", console.Red(err))
		}
		var faults []sim.Fault
		for _, s := range c.StringSlice("fault") {
			f, err := parseFault(s)
			if err != nil {
				return console.Fail(err)
			}
			faults = append(faults, f)
		}
		mem := sim.NewMemory(addr)
		mem.Load(0, content)
		opts := []sim.Option{
			sim.WithFaults(faults...),
		}
		if !c.Bool("absent") {
			opts = append(opts, sim.WithTarget(mem))
		}
		bus, err := newSimBus(sim.NewController(opts...), driverOptions(c)...)
		if err != nil {
			return console.Exit(1, "could not configure the bus master: %s", console.Red(err))
		}
		defer bus.Close()

		var buf []byte
		if n := c.Int("read"); n > 0 {
			buf = make([]byte, n+1)
			buf[0] = master.AddressByte(addr, true)
		} else {
			buf = append([]byte{master.AddressByte(addr, false)}, payload...)
		}
		if busctx.IsVerbose(ctx) {
			slog.Debug("starting transfer", "sla", fmt.Sprintf("%#04x", buf[0]), "len", len(buf), "faults", len(faults))
		}
		o := bus.run("", buf)
		console.PInfof(console.PictoBus, "%#04x %s (%s)", addr, console.Outcome(o.Error == ""), o.Report.Status)
		if err := printYAML(o); err != nil {
			return err
		}
		if o.Error != "" {
			return console.Exit(console.ExitTransfer, "%s", console.Red(o.Error))
		}
		return nil
	},
}
