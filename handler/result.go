package handler

import "errors"

// Result is the outcome of a pre-flight validation.
type Result struct {
	Valid  bool
	Errors []*ParseError
}

// Validate parses d with h and reports problems without failing.
func Validate(h Handler, d []byte) Result {
	_, err := h.Parse(d)
	if err == nil {
		return Result{Valid: true}
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		pe = &ParseError{Format: h.Format(), Kind: SyntaxError, Content: string(d), Msg: err.Error(), Err: err}
	}
	return Result{Errors: []*ParseError{pe}}
}

// Err returns the first error of r, or nil when r is valid.
func (r Result) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}
