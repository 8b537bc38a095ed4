package handler

import (
	"github.com/signadot/tony-format/treedoc/format"
)

// Registry selects handlers by format or by content. The zero value is
// not usable; use NewRegistry.
type Registry struct {
	handlers []Handler
	byFormat map[format.Format]Handler
}

// NewRegistry returns a registry holding hs. Detection tries handlers in
// the given order.
func NewRegistry(hs ...Handler) *Registry {
	r := &Registry{byFormat: map[format.Format]Handler{}}
	for _, h := range hs {
		r.Register(h)
	}
	return r
}

// Register adds h, replacing any handler for the same format in place.
func (r *Registry) Register(h Handler) {
	f := h.Format()
	if _, ok := r.byFormat[f]; ok {
		for i := range r.handlers {
			if r.handlers[i].Format() == f {
				r.handlers[i] = h
			}
		}
	} else {
		r.handlers = append(r.handlers, h)
	}
	r.byFormat[f] = h
}

// Get returns the handler for f.
func (r *Registry) Get(f format.Format) (Handler, error) {
	h, ok := r.byFormat[f]
	if !ok {
		return nil, &FormatError{Format: f.String(), Msg: "no handler registered"}
	}
	return h, nil
}

// Lookup returns the handler for a format name such as "yaml" or "md".
func (r *Registry) Lookup(name string) (Handler, error) {
	f, err := format.ParseFormat(name)
	if err != nil {
		return nil, &FormatError{Format: name}
	}
	return r.Get(f)
}

// Detect returns the first handler whose Detect accepts d.
func (r *Registry) Detect(d []byte) (Handler, error) {
	if Blank(d) {
		return nil, &FormatError{Format: "", Msg: "cannot detect the format of empty input"}
	}
	for _, h := range r.handlers {
		if h.Detect(d) {
			return h, nil
		}
	}
	return nil, &FormatError{Format: "", Msg: "no handler recognizes the input"}
}

// Formats lists the registered formats in detection order.
func (r *Registry) Formats() []format.Format {
	res := make([]format.Format, len(r.handlers))
	for i, h := range r.handlers {
		res[i] = h.Format()
	}
	return res
}
