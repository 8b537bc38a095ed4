package doc

import (
	"log/slog"

	"github.com/signadot/tony-format/treedoc/edit"
	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/handler"
)

type Option func(*Document)

// WithRegistry sets the handlers used for detection and lookup. The
// default is builtin.Registry().
func WithRegistry(r *handler.Registry) Option {
	return func(d *Document) { d.reg = r }
}

// WithLogger sets the logger of the document and its edit engine.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// OnChange adds a listener for committed changes and mode transitions.
func OnChange(l edit.Listener) Option {
	return func(d *Document) { d.listeners = append(d.listeners, l) }
}

// OnError adds a callback receiving every rejected operation and parse
// failure.
func OnError(f func(error)) Option {
	return func(d *Document) { d.onError = append(d.onError, f) }
}

// WithEncodeOptions sets the options used whenever the tree is
// serialized.
func WithEncodeOptions(opts ...encode.EncodeOption) Option {
	return func(d *Document) { d.encOpts = append(d.encOpts, opts...) }
}

// WithEditOptions passes options to the edit engine: validators,
// required paths, editability.
func WithEditOptions(opts ...edit.Option) Option {
	return func(d *Document) { d.editOpts = append(d.editOpts, opts...) }
}
