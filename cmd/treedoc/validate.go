package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/tony-format/treedoc/doc"
)

func validate(cfg *ValidateConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Validate.Parse(cc, args)
	if err != nil {
		return err
	}
	data, file, err := input(args, 0)
	if err != nil {
		return err
	}
	d, err := doc.New()
	if err != nil {
		return err
	}
	defer d.Close()
	res, err := d.Validate(data, cfg.hint(nil, file))
	if err != nil {
		return describe(err, file)
	}
	if res.Valid {
		_, err := fmt.Fprintln(cc.Out, "valid")
		return err
	}
	if file == "" {
		file = "<stdin>"
	}
	for _, pe := range res.Errors {
		fmt.Fprintf(cc.Out, "%s:%d:%d: %s: %s\n", file, pe.Line, pe.Col, pe.Kind, pe.Msg)
	}
	return cli.ExitCodeErr(1)
}
