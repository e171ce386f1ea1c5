package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/master"
	"github.com/mklimuk/twi/register"
	"github.com/mklimuk/twi/sim"
)

// driverFlags configure the bus master for every simulated command.
var driverFlags = []cli.Flag{
	&cli.UintFlag{Name: "cpu", Usage: "core clock in Hz", Value: register.DefaultCPUClock},
	&cli.UintFlag{Name: "scl", Usage: "bus clock in Hz", Value: register.Clock200kHz},
	&cli.UintFlag{Name: "prescaler", Usage: "bit-rate prescaler (1, 4, 16 or 64)", Value: 1},
	&cli.IntFlag{Name: "budget", Usage: "polls of the busy flag before the bus is reset", Value: master.DefaultWaitBudget},
	&cli.DurationFlag{Name: "interval", Usage: "delay between two polls", Value: master.DefaultWaitInterval},
	&cli.IntFlag{Name: "arb-retries", Usage: "restarts allowed after a lost arbitration (0: unbounded)"},
}

func driverOptions(c *cli.Context) []master.Option {
	return []master.Option{
		master.WithClock(uint32(c.Uint("cpu")), uint32(c.Uint("scl"))),
		master.WithPrescaler(uint32(c.Uint("prescaler"))),
		master.WithWait(c.Int("budget"), c.Duration("interval")),
		master.WithArbitrationRetries(c.Int("arb-retries")),
		master.WithLogger(slog.Default()),
	}
}

// simBus is a driver attached to a simulated controller serviced in the
// background.
type simBus struct {
	drv    *master.Driver
	ctrl   *sim.Controller
	cancel context.CancelFunc
}

func newSimBus(ctrl *sim.Controller, opts ...master.Option) (*simBus, error) {
	drv, err := master.New(ctrl, opts...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	ctrl.Attach(drv.Service)
	drv.Init()
	return &simBus{drv: drv, ctrl: ctrl, cancel: cancel}, nil
}

func (b *simBus) Close() {
	b.drv.Disable()
	b.cancel()
}

// outcome is what a command prints after a transfer.
type outcome struct {
	Name     string        `yaml:"name,omitempty"`
	Error    string        `yaml:"error,omitempty"`
	Received string        `yaml:"received,omitempty"`
	Report   master.Report `yaml:"report"`
	Frames   []sim.Frame   `yaml:"frames"`
	Elapsed  string        `yaml:"elapsed"`
}

func (b *simBus) run(name string, buf []byte) outcome {
	start := time.Now()
	err := b.drv.Transfer(buf)
	o := outcome{
		Name:    name,
		Report:  b.drv.Report(),
		Frames:  b.ctrl.Frames(),
		Elapsed: time.Since(start).String(),
	}
	if err != nil {
		o.Error = err.Error()
	}
	if buf[0]&1 == 1 && len(buf) > 1 {
		o.Received = hex.EncodeToString(buf[1:])
	}
	return o
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(console.Writer())
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(v)
}

// parseFault reads an EVENT:KIND pair such as 2:arbitration_lost.
func parseFault(s string) (sim.Fault, error) {
	event, kind, found := strings.Cut(s, ":")
	if !found {
		return sim.Fault{}, fmt.Errorf("fault %q is not EVENT:KIND", s)
	}
	n, err := strconv.Atoi(event)
	if err != nil || n < 0 {
		return sim.Fault{}, fmt.Errorf("invalid fault event %q", event)
	}
	var f sim.Fault
	err = yaml.Unmarshal([]byte(fmt.Sprintf("{event: %d, kind: %s}", n, kind)), &f)
	if err != nil {
		return sim.Fault{}, err
	}
	return f, nil
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > 0x7F {
		return 0, fmt.Errorf("%q is not a 7-bit address", s)
	}
	return byte(v), nil
}

func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x")
	return hex.DecodeString(s)
}
