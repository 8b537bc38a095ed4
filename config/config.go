// Package config reads editor settings from TOML.
//
//	format = "json"
//	indent = "    "
//	editable = true
//	comments = false
//	required = ["user.id"]
//
//	[[validator]]
//	path = "user.age"
//	rule = "value >= 0 && value < 150"
//
//	[[validator]]
//	name = "user"
//	path = "user"
//	schema = "user.schema.json"
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/signadot/tony-format/treedoc/doc"
	"github.com/signadot/tony-format/treedoc/edit"
	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/format"
)

var ErrConfig = errors.New("bad config")

type Config struct {
	// Format is the format hint for loading; empty means detect.
	Format     string      `toml:"format"`
	Indent     string      `toml:"indent"`
	Compact    bool        `toml:"compact"`
	Comments   *bool       `toml:"comments"`
	Editable   *bool       `toml:"editable"`
	Required   []string    `toml:"required"`
	Validators []Validator `toml:"validator"`

	// directory schema files are relative to
	dir string
}

// Validator configures one validator. Exactly one of Rule (an expr-lang
// expression) and Schema (a JSON schema file) is set.
type Validator struct {
	Name   string `toml:"name"`
	Path   string `toml:"path"`
	Rule   string `toml:"rule"`
	Schema string `toml:"schema"`
}

// Load reads a config file. Unknown keys are errors.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, cfg.check(md)
}

// Parse reads config text; schema paths are relative to the working
// directory.
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, cfg.check(md)
}

func (c *Config) check(md toml.MetaData) error {
	if un := md.Undecoded(); len(un) != 0 {
		keys := make([]string, len(un))
		for i, k := range un {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys %s", ErrConfig, strings.Join(keys, ", "))
	}
	if c.Format != "" {
		if _, err := format.ParseFormat(c.Format); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	for i, v := range c.Validators {
		if v.Path == "" {
			return fmt.Errorf("%w: validator %d has no path", ErrConfig, i)
		}
		if (v.Rule == "") == (v.Schema == "") {
			return fmt.Errorf("%w: validator %d needs one of rule and schema", ErrConfig, i)
		}
	}
	return nil
}

// EncodeOptions returns the serialization settings.
func (c *Config) EncodeOptions() []encode.EncodeOption {
	var res []encode.EncodeOption
	if c.Indent != "" {
		res = append(res, encode.Indent(c.Indent))
	}
	if c.Compact {
		res = append(res, encode.Compact(true))
	}
	if c.Comments != nil {
		res = append(res, encode.EncodeComments(*c.Comments))
	}
	return res
}

// EditOptions builds the edit engine settings, compiling validators.
func (c *Config) EditOptions() ([]edit.Option, error) {
	var res []edit.Option
	if c.Editable != nil {
		res = append(res, edit.Editable(*c.Editable))
	}
	if len(c.Required) != 0 {
		res = append(res, edit.Required(c.Required...))
	}
	for _, v := range c.Validators {
		ev, err := c.validator(v)
		if err != nil {
			return nil, err
		}
		res = append(res, edit.WithValidator(v.Path, ev))
	}
	return res, nil
}

func (c *Config) validator(v Validator) (edit.Validator, error) {
	if v.Rule != "" {
		return edit.NewExprValidator(v.Name, v.Rule)
	}
	path := v.Schema
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	sv, err := edit.NewSchemaValidatorFile(path)
	if err != nil {
		return nil, err
	}
	if v.Name == "" {
		return sv, nil
	}
	return edit.ValidatorFunc(v.Name, sv.Validate), nil
}

// DocOptions returns document options for all settings.
func (c *Config) DocOptions() ([]doc.Option, error) {
	eopts, err := c.EditOptions()
	if err != nil {
		return nil, err
	}
	return []doc.Option{
		doc.WithEncodeOptions(c.EncodeOptions()...),
		doc.WithEditOptions(eopts...),
	}, nil
}
