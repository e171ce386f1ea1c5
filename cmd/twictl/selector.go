package main

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/selector"
	"github.com/mklimuk/twi/sim"
	"github.com/mklimuk/twi/timer"
)

const selectorHelp = `commands:
  click          press and release the select button
  select SOURCE  request radio, cd or aux
  wait MS        let the loop run for MS milliseconds
  activity       report traffic from another master
  status         show the selector and bus state
  quit`

var selectorCmd = cli.Command{
	Name:  "selector",
	Usage: "drive the audio source selector against a simulated DSP",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "absent", Usage: "leave the DSP off the bus"},
	},
	Action: func(c *cli.Context) error {
		var targets []sim.Option
		dsp := sim.NewMemory(selector.DSPAddress)
		if !c.Bool("absent") {
			targets = append(targets, sim.WithTarget(dsp))
		}
		ctrl := sim.NewController(targets...)
		drv, err := master.New(ctrl,
			master.WithExternalPullUps(),
			master.WithDelay(func(time.Duration) {
				for ctrl.Step() {
				}
			}),
		)
		if err != nil {
			return console.Exit(1, "could not configure the bus master: %s", console.Red(err))
		}
		ctrl.Attach(drv.Service)

		clock := &timer.Clock{}
		loop := selector.NewLoop(drv, timer.NewSoftTimers(clock), selector.WithSleep(func() {
			console.PInfof(console.PictoSleep, "bus idle for %d ms, sleeping", selector.SleepAfter)
		}))
		run := func(ms int, pressed bool) {
			for i := 0; i < ms; i++ {
				clock.Tick()
				loop.Step(pressed)
			}
		}

		shell, err := console.NewShell("selector> ")
		if err != nil {
			return console.Exit(1, "could not open the terminal: %s", console.Red(err))
		}
		defer func() { _ = shell.Close() }()
		console.Printf("%s\n", selectorHelp)
		for {
			args, err := shell.Next()
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Fail(err)
			}
			switch args[0] {
			case "click":
				run(4*selector.DebouncePeriod, true)
				run(1, false)
			case "select":
				if len(args) < 2 {
					console.Warnf("select needs a source")
					continue
				}
				src, err := selector.ParseSource(args[1])
				if err != nil {
					console.Warnf("%s", err)
					continue
				}
				loop.Select(src)
			case "wait":
				ms := selector.TxAfter + 1
				if len(args) > 1 {
					if ms, err = strconv.Atoi(args[1]); err != nil || ms < 0 {
						console.Warnf("invalid duration %q", args[1])
						continue
					}
				}
				run(ms, false)
			case "activity":
				loop.BusActivity()
			case "status":
				next, pending := loop.Pending()
				console.PInfof(console.PictoRadio, "current %s, pending %v (%s), failed commands %d",
					console.White(loop.Current()), pending, next, loop.Failed())
				if err := printYAML(drv.Report()); err != nil {
					return err
				}
			case "quit", "exit":
				return nil
			default:
				console.Printf("%s\n", selectorHelp)
			}
		}
	},
}
