package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		return err
	}
	d, err := cfg.open(args, 0)
	if err != nil {
		return err
	}
	defer d.Close()
	out, err := cfg.render(d)
	if err != nil {
		return err
	}
	return write(cc.Out, out)
}

func write(w io.Writer, text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("error writing: %w", err)
	}
	return nil
}

func detect(cfg *DetectConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Detect.Parse(cc, args)
	if err != nil {
		return err
	}
	d, err := cfg.open(args, 0)
	if err != nil {
		return err
	}
	defer d.Close()
	_, err = fmt.Fprintln(cc.Out, d.Handler().Format())
	return err
}

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: get requires a path", cli.ErrUsage)
	}
	d, err := cfg.open(args, 1)
	if err != nil {
		return err
	}
	defer d.Close()
	n, err := d.Get(args[0])
	if err != nil {
		return err
	}
	n.Parent, n.Name = nil, ""
	var buf strings.Builder
	if err := d.Handler().Encode(n, &buf, cfg.encOpts()...); err != nil {
		// markup fragments without a serialization of their own
		return write(cc.Out, n.Text())
	}
	return write(cc.Out, buf.String())
}
