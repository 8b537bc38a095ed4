package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/scott-cotton/cli"

	"github.com/signadot/tony-format/treedoc/doc"
)

// change loads the document at args[i], applies fn and prints the result
// or, with -d, a diff against the input.
func (cfg *MainConfig) change(cc *cli.Context, args []string, i int, showDiff bool, fn func(d *doc.Document) error) error {
	d, err := cfg.open(args, i)
	if err != nil {
		return err
	}
	defer d.Close()
	before, err := cfg.render(d)
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	after, err := cfg.render(d)
	if err != nil {
		return err
	}
	if showDiff {
		return cfg.diff(cc.Out, before, after)
	}
	return write(cc.Out, after)
}

func set(cfg *SetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Set.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: set requires a path and a value", cli.ErrUsage)
	}
	return cfg.change(cc, args, 2, cfg.Diff, func(d *doc.Document) error {
		return d.Edit(args[0], value(args[1]))
	})
}

func add(cfg *AddConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Add.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: add requires a path and a value", cli.ErrUsage)
	}
	if cfg.Key != "" && cfg.Index >= 0 {
		return fmt.Errorf("%w: -k and -i are exclusive", cli.ErrUsage)
	}
	return cfg.change(cc, args, 2, cfg.Diff, func(d *doc.Document) error {
		v := value(args[1])
		switch {
		case cfg.Key != "":
			return d.AddKey(args[0], cfg.Key, v)
		case cfg.Index >= 0:
			return d.Insert(args[0], cfg.Index, v)
		}
		return d.Add(args[0], v)
	})
}

func del(cfg *DelConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Del.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: del requires a path", cli.ErrUsage)
	}
	return cfg.change(cc, args, 1, cfg.Diff, func(d *doc.Document) error {
		ok, err := d.Delete(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "%s: not found\n", args[0])
		}
		return nil
	})
}

func mv(cfg *MvConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Mv.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("%w: mv requires a source, a destination and an index", cli.ErrUsage)
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: bad index %q", cli.ErrUsage, args[2])
	}
	return cfg.change(cc, args, 3, cfg.Diff, func(d *doc.Document) error {
		return d.Move(args[0], args[1], index)
	})
}

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("%w: patch requires a patch file", cli.ErrUsage)
	}
	p, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not open %q: %w", args[0], err)
	}
	return cfg.change(cc, args, 1, cfg.Diff, func(d *doc.Document) error {
		return d.ApplyPatch(p)
	})
}
