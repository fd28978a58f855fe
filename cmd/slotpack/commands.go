package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/wippyai/slotpack/config"
	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/costplugin"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/optimizer"
	"github.com/wippyai/slotpack/report"
	"github.com/wippyai/slotpack/schema"
	"github.com/wippyai/slotpack/witimport"
)

func searchFlags() []cli.Flag {
	return []cli.Flag{
		cli.BoolFlag{
			Name:  "json, j",
			Usage: "write the result as JSON",
		},
		cli.StringFlag{
			Name:  "plugin, p",
			Usage: "WebAssembly per-slot cost `WASM` module",
		},
		cli.IntFlag{
			Name:  "threshold, t",
			Usage: "largest unit count searched exactly `N` (negative: heuristic only)",
		},
		cli.Int64Flag{
			Name:  "max-nodes",
			Usage: "exact search node budget `N`",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "search deadline `DURATION`, falls back to the heuristic",
		},
	}
}

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:      "validate",
			Usage:     "audit the declared field order",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "json, j",
					Usage: "write the report as JSON",
				},
				cli.StringFlag{
					Name:  "plugin, p",
					Usage: "WebAssembly per-slot cost `WASM` module",
				},
			},
			Action: runValidate,
		},
		{
			Name:      "optimize",
			Usage:     "search for the cheapest field order",
			ArgsUsage: "FILE",
			Flags: append(searchFlags(),
				cli.StringFlag{
					Name:  "freeze, f",
					Usage: "write a document locking every field at its optimized position to `OUT.json`",
				},
			),
			Action: runOptimize,
		},
		{
			Name:      "wit",
			Usage:     "derive a schema from a WIT record and optimize it",
			ArgsUsage: "RESOLVE.json RECORD",
			Flags: append(searchFlags(),
				cli.BoolFlag{
					Name:  "flatten",
					Usage: "expand nested fixed-size records into grouped fields",
				},
			),
			Action: runWIT,
		},
		{
			Name:      "fingerprint",
			Usage:     "print the SHA3-256 fingerprint of the declared layout",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "expect, e",
					Usage: "fail unless the fingerprint equals `HEX`",
				},
			},
			Action: runFingerprint,
		},
		{
			Name:      "browse",
			Usage:     "explore declared and optimized layouts interactively",
			ArgsUsage: "FILE",
			Flags:     searchFlags()[1:],
			Action:    runBrowse,
		},
	}
}

func argument(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return c.Args().Get(i), nil
}

func loadDocument(c *cli.Context) (*config.Document, *schema.Schema, error) {
	path, err := argument(c, 0, "FILE")
	if err != nil {
		return nil, nil, err
	}
	doc, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := doc.Schema()
	if err != nil {
		return nil, nil, err
	}
	return doc, s, nil
}

// model returns the cost model for doc, with the plugin from --plugin
// attached. The returned closer releases the plugin.
func model(ctx context.Context, c *cli.Context, doc *config.Document) (*cost.Model, func(), error) {
	var params cost.Params
	if doc != nil {
		params = doc.CostParams()
	} else {
		params = cost.DefaultParams()
	}
	m := cost.NewModel(params)

	path := c.String("plugin")
	if path == "" {
		return m, func() {}, nil
	}
	p, err := costplugin.LoadFile(ctx, path, nil)
	if err != nil {
		return nil, nil, err
	}
	m.Extra = p
	return m, func() { _ = p.Close(ctx) }, nil
}

// search runs the optimizer with document settings overridden by flags.
func search(c *cli.Context, doc *config.Document, s *schema.Schema, profile cost.Profile) (*optimizer.Result, error) {
	md := meta(c)
	ctx := context.Background()

	var opts optimizer.Options
	var timeout time.Duration
	if doc != nil {
		opts = doc.Options()
		t, err := doc.Timeout()
		if err != nil {
			return nil, err
		}
		timeout = t
	}
	if c.IsSet("threshold") {
		opts.ExactThreshold = c.Int("threshold")
	}
	if c.IsSet("max-nodes") {
		opts.MaxNodes = c.Int64("max-nodes")
	}
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	m, release, err := model(ctx, c, doc)
	if err != nil {
		return nil, err
	}
	defer release()
	opts.Model = m
	opts.Logger = md.log

	start := time.Now()
	res, err := optimizer.Optimize(ctx, s, profile, opts)
	if err != nil && !errors.IsNonFatal(err) {
		return nil, err
	}
	if err != nil {
		md.log.Warn("search incomplete, result may not be optimal", zap.Error(err))
	}
	md.log.Debug("search finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("slots", res.Slots),
		zap.Bool("exact", res.Exact),
	)
	return res, nil
}

func writeResult(c *cli.Context, res *optimizer.Result) error {
	md := meta(c)
	switch {
	case c.Bool("json"):
		return report.JSON(md.w, res)
	case md.styled:
		_, err := fmt.Fprintln(md.w, report.StyledSummary(res))
		return err
	}
	if err := report.Text(md.w, layout.Audit(res.Layout, res.LowerBound)); err != nil {
		return err
	}
	return report.Summary(md.w, res)
}

func runValidate(c *cli.Context) error {
	md := meta(c)
	doc, s, err := loadDocument(c)
	if err != nil {
		return err
	}
	r, err := layout.ValidateSchema(s)
	if err != nil {
		return err
	}

	profile := doc.Profile()
	if profile.Empty() {
		profile = cost.Uniform(s.Names())
	}
	ctx := context.Background()
	m, release, err := model(ctx, c, doc)
	if err != nil {
		return err
	}
	defer release()
	total, err := m.Score(r.Layout, profile)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return report.JSON(md.w, struct {
			*layout.Report
			Cost        uint64 `json:"cost"`
			Fingerprint string `json:"fingerprint"`
		}{r, total, layout.Fingerprint(r.Layout)})
	}
	if md.styled {
		_, err := fmt.Fprintf(md.w, "%s\ncost: %d\n", report.Styled("Declared layout", r), total)
		return err
	}
	if err := report.Text(md.w, r); err != nil {
		return err
	}
	_, err = fmt.Fprintf(md.w, "cost: %d\n", total)
	return err
}

func runOptimize(c *cli.Context) error {
	md := meta(c)
	doc, s, err := loadDocument(c)
	if err != nil {
		return err
	}
	res, err := search(c, doc, s, doc.Profile())
	if err != nil {
		return err
	}

	if out := c.String("freeze"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := report.JSON(f, config.Freeze(s, res.Layout, doc)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		md.log.Info("wrote frozen layout", zap.String("file", out))
	}
	return writeResult(c, res)
}

func runWIT(c *cli.Context) error {
	path, err := argument(c, 0, "RESOLVE.json")
	if err != nil {
		return err
	}
	name, err := argument(c, 1, "RECORD")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := witimport.Decode(f)
	if err != nil {
		return err
	}
	td, err := witimport.Lookup(res, name)
	if err != nil {
		return err
	}
	fields, err := witimport.Import(td, witimport.Options{Flatten: c.Bool("flatten")})
	if err != nil {
		return err
	}
	s, err := schema.New(fields...)
	if err != nil {
		return err
	}

	result, err := search(c, nil, s, cost.Profile{})
	if err != nil {
		return err
	}
	return writeResult(c, result)
}

func runFingerprint(c *cli.Context) error {
	md := meta(c)
	_, s, err := loadDocument(c)
	if err != nil {
		return err
	}
	l, err := layout.PackSchema(s)
	if err != nil {
		return err
	}
	fp := layout.Fingerprint(l)
	if want := c.String("expect"); want != "" && want != fp {
		return fmt.Errorf("fingerprint mismatch: got %s, want %s", fp, want)
	}
	_, err = fmt.Fprintln(md.w, fp)
	return err
}

func runBrowse(c *cli.Context) error {
	doc, s, err := loadDocument(c)
	if err != nil {
		return err
	}
	return runInteractive(c.Args().First(), func() (*browseData, error) {
		return loadBrowseData(c, doc, s)
	})
}
