package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/twi"
	"github.com/mklimuk/twi/busctx"
	"github.com/mklimuk/twi/cmd/twictl/console"
	"github.com/mklimuk/twi/i2c"
)

var hostCmd = cli.Command{
	Name:  "host",
	Usage: "run a transfer on a hardware bus for comparison with the simulation",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: "periph, neo or bridge", Value: "periph"},
		&cli.StringFlag{Name: "dev", Usage: "periph bus name", Value: "1"},
		&cli.IntFlag{Name: "bus", Usage: "NanoPi NEO bus number", Value: 0},
		&cli.IntFlag{Name: "index", Usage: "USB bridge index", Value: 0},
		&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "7-bit device address", Required: true},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "hex bytes to write"},
		&cli.IntFlag{Name: "read", Aliases: []string{"r"}, Usage: "number of bytes to read after writing"},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
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
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("send %d bytes and read %d from %#04x on the %s bus?", len(payload), c.Int("read"), addr, c.String("backend")))
			if err != nil || !ok {
				return console.Exit(1, "aborted")
			}
		}
		bus, closer, err := openHostBus(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer func() { _ = closer.Close() }()

		// a host bus joins the write and the read with a repeated START
		if tx, ok := bus.(transactor); ok && len(payload) > 0 && c.Int("read") > 0 {
			buf := make([]byte, c.Int("read"))
			if err := tx.Tx(ctx, addr, payload, buf); err != nil {
				return console.Exit(console.ExitTransfer, "%s", console.Red(err))
			}
			console.Printf("%s", hex.Dump(buf))
			console.PInfof(console.PictoOK, "%#04x %s", addr, console.Outcome(true))
			return nil
		}
		if len(payload) > 0 || c.Int("read") == 0 {
			if err := bus.WriteToAddr(ctx, addr, payload); err != nil {
				_ = bus.Release(ctx)
				return console.Exit(console.ExitTransfer, "%s", console.Red(err))
			}
		}
		if n := c.Int("read"); n > 0 {
			buf := make([]byte, n)
			if err := bus.ReadFromAddr(ctx, addr, buf); err != nil {
				_ = bus.Release(ctx)
				return console.Exit(console.ExitTransfer, "%s", console.Red(err))
			}
			console.Printf("%s", hex.Dump(buf))
		}
		console.PInfof(console.PictoOK, "%#04x %s", addr, console.Outcome(true))
		return nil
	},
}

type transactor interface {
	Tx(ctx context.Context, address byte, w, r []byte) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openHostBus(c *cli.Context) (twi.I2CBus, io.Closer, error) {
	switch c.String("backend") {
	case "periph":
		b, err := i2c.NewGenericBus(c.String("dev"))
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case "neo":
		b, err := i2c.NewNeoBus(c.Int("bus"))
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	case "bridge":
		return i2c.NewBridge(c.Int("index")), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", c.String("backend"))
}
