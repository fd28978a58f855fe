package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/slotpack/optimizer"
)

type metadata struct {
	log     *zap.Logger
	w       io.Writer
	e       io.Writer
	styled  bool
	verbose bool
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(w, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "slotpack"
	app.Usage = "pack record fields into 32-byte storage slots"
	app.Version = version
	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "debug logging to stderr",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "plain output even on a terminal",
		},
	}
	app.Commands = commands()

	app.Before = func(c *cli.Context) error {
		verbose := c.GlobalBool("verbose")
		log, err := newLogger(verbose)
		if err != nil {
			return err
		}
		optimizer.SetLogger(log)
		c.App.Metadata = map[string]interface{}{
			"config": &metadata{
				log:     log,
				w:       c.App.Writer,
				e:       c.App.ErrWriter,
				styled:  !c.GlobalBool("no-color") && isTerminal(c.App.Writer),
				verbose: verbose,
			},
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		if m, ok := c.App.Metadata["config"].(*metadata); ok {
			_ = m.log.Sync()
		}
		return nil
	}
	return app
}

func meta(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
