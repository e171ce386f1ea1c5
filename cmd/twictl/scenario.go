package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/sim"
)

var scenarioCmd = cli.Command{
	Name:    "scenario",
	Aliases: []string{"sc"},
	Usage:   "run the transfers described in a scenario file",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "scenario file", Required: true},
		&cli.BoolFlag{Name: "details", Usage: "print the full outcome of every scenario"},
	}, driverFlags...),
	Action: func(c *cli.Context) error {
		f, err := os.Open(c.String("file"))
		if err != nil {
			return console.Exit(1, "could not open scenario file: %s", console.Red(err))
		}
		defer func() { _ = f.Close() }()
		scenarios, err := sim.LoadScenarios(f)
		if err != nil {
			return console.Fail(err)
		}
		var outcomes []outcome
		failed := 0
		for _, s := range scenarios {
			o, err := runScenario(s, driverOptions(c)...)
			if err != nil {
				return console.Fail(err)
			}
			if o.Error != "" {
				failed++
			}
			console.Printf("%-24s %-8s %-20s errors=%d\n", console.White(s.Name), console.Outcome(o.Error == ""), o.Report.Status, o.Report.Errors)
			outcomes = append(outcomes, o)
		}
		console.PInfof(console.PictoClock, "%d scenarios, %d failed", len(scenarios), failed)
		if c.Bool("details") {
			return printYAML(outcomes)
		}
		return nil
	},
}

func runScenario(s sim.Scenario, opts ...master.Option) (outcome, error) {
	ctrl, _, err := s.Controller()
	if err != nil {
		return outcome{}, err
	}
	bus, err := newSimBus(ctrl, opts...)
	if err != nil {
		return outcome{}, err
	}
	defer bus.Close()
	var buf []byte
	if s.Read > 0 {
		buf = make([]byte, s.Read+1)
		buf[0] = master.AddressByte(s.Address, true)
	} else {
		payload, _ := s.Bytes()
		buf = append([]byte{master.AddressByte(s.Address, false)}, payload...)
	}
	return bus.run(s.Name, buf), nil
}
