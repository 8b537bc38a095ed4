package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/format"
)

type MainConfig struct {
	Compact bool   `cli:"name=compact desc='encode without extra whitespace'"`
	Indent  string `cli:"name=indent desc='indentation for nested output'"`
	NoComm  bool   `cli:"name=no-comments desc='leave XML comments out of the output'"`
	Config  string `cli:"name=c aliases=config desc='TOML configuration file'"`
	Color   bool   `cli:"name=color desc='color diffs and errors'"`
	Verbose bool   `cli:"name=v desc='log debug messages to stderr'"`

	InFormat, OutFormat *format.Format

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) fmtFunc(fps ...**format.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := format.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, fp := range fps {
			*fp = &f
		}
		return f, nil
	})
}

func (cfg *MainConfig) encOpts() []encode.EncodeOption {
	var res []encode.EncodeOption
	if cfg.Indent != "" {
		res = append(res, encode.Indent(cfg.Indent))
	}
	if cfg.Compact {
		res = append(res, encode.Compact(true))
	}
	if cfg.NoComm {
		res = append(res, encode.EncodeComments(false))
	}
	return res
}

// colored reports whether output to w gets colors: always with -color,
// otherwise when w is a terminal.
func (cfg *MainConfig) colored(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type ViewConfig struct {
	*MainConfig

	View *cli.Command
}

type DetectConfig struct {
	*MainConfig

	Detect *cli.Command
}

type ValidateConfig struct {
	*MainConfig

	Validate *cli.Command
}

type GetConfig struct {
	*MainConfig

	Get *cli.Command
}

type SetConfig struct {
	*MainConfig
	Diff bool `cli:"name=d desc='print a diff instead of the document'"`

	Set *cli.Command
}

type AddConfig struct {
	*MainConfig
	Diff  bool   `cli:"name=d desc='print a diff instead of the document'"`
	Key   string `cli:"name=k desc='key of the new object member, element or heading'"`
	Index int    `cli:"name=i desc='position among the children, -1 appends'"`

	Add *cli.Command
}

type DelConfig struct {
	*MainConfig
	Diff bool `cli:"name=d desc='print a diff instead of the document'"`

	Del *cli.Command
}

type MvConfig struct {
	*MainConfig
	Diff bool `cli:"name=d desc='print a diff instead of the document'"`

	Mv *cli.Command
}

type PatchConfig struct {
	*MainConfig
	Diff bool `cli:"name=d desc='print a diff instead of the document'"`

	Patch *cli.Command
}
