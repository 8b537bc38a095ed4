package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scott-cotton/cli"

	"github.com/signadot/tony-format/treedoc/config"
	"github.com/signadot/tony-format/treedoc/doc"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/handler/builtin"
	"github.com/signadot/tony-format/treedoc/handler/jsonfmt"
)

func treedocMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// input reads the optional file argument at args[i], stdin when absent
// or "-".
func input(args []string, i int) ([]byte, string, error) {
	if len(args) > i+1 {
		return nil, "", fmt.Errorf("%w: unexpected arguments %v", cli.ErrUsage, args[i+1:])
	}
	if len(args) == i || args[i] == "-" {
		d, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("error reading: %w", err)
		}
		return d, "", nil
	}
	d, err := os.ReadFile(args[i])
	if err != nil {
		return nil, "", fmt.Errorf("could not open %q: %w", args[i], err)
	}
	return d, args[i], nil
}

// hint picks the input format: -I, then the config file, then the file
// extension. Empty means detect.
func (cfg *MainConfig) hint(tc *config.Config, file string) string {
	if cfg.InFormat != nil {
		return cfg.InFormat.String()
	}
	if tc != nil && tc.Format != "" {
		return tc.Format
	}
	if file != "" {
		if f, err := format.FromExtension(filepath.Ext(file)); err == nil {
			return f.String()
		}
	}
	return ""
}

// open loads the document at args[i].
func (cfg *MainConfig) open(args []string, i int) (*doc.Document, error) {
	data, file, err := input(args, i)
	if err != nil {
		return nil, err
	}
	var (
		tc   *config.Config
		opts []doc.Option
	)
	if cfg.Config != "" {
		tc, err = config.Load(cfg.Config)
		if err != nil {
			return nil, err
		}
		opts, err = tc.DocOptions()
		if err != nil {
			return nil, err
		}
	}
	opts = append(opts,
		doc.WithEncodeOptions(cfg.encOpts()...),
		doc.WithLogger(newLogger(os.Stderr, cfg.Verbose)))
	d, err := doc.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Load(data, cfg.hint(tc, file)); err != nil {
		d.Close()
		return nil, describe(err, file)
	}
	return d, nil
}

func describe(err error, file string) error {
	if file == "" {
		file = "<stdin>"
	}
	return fmt.Errorf("%s: %w", file, err)
}

// render returns the text of d, converted with -O when it names another
// format. Only JSON and YAML convert into each other.
func (cfg *MainConfig) render(d *doc.Document) (string, error) {
	if cfg.OutFormat == nil || *cfg.OutFormat == d.Handler().Format() {
		return d.SourceText()
	}
	from, to := d.Handler().Format(), *cfg.OutFormat
	if !dataFormat(from) || !dataFormat(to) {
		return "", fmt.Errorf("%w: cannot convert %s to %s", cli.ErrUsage, from, to)
	}
	h, err := builtin.Registry().Get(to)
	if err != nil {
		return "", err
	}
	root, err := d.Snapshot()
	if err != nil {
		return "", err
	}
	return handler.Serialize(h, root, cfg.encOpts()...)
}

func dataFormat(f format.Format) bool {
	return f == format.JSONFormat || f == format.YAMLFormat
}

// value interprets a command line value: JSON text becomes a tree,
// anything else a string.
func value(s string) any {
	if !json.Valid([]byte(s)) {
		return s
	}
	n, err := jsonfmt.New().Parse([]byte(s))
	if err != nil {
		return s
	}
	return n
}
