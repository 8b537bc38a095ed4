package edit

import (
	"context"
	"fmt"
)

// Validator checks a value about to be written at path. A nil error
// accepts the value. Validators run off the engine's goroutine and must
// not touch the tree; value is a plain Go value (see ir.ToAny).
type Validator interface {
	Name() string
	Validate(ctx context.Context, path string, value any) error
}

type namedFunc struct {
	name string
	fn   func(context.Context, string, any) error
}

func (f *namedFunc) Name() string {
	return f.name
}

func (f *namedFunc) Validate(ctx context.Context, path string, value any) error {
	return f.fn(ctx, path, value)
}

// ValidatorFunc makes a validator from a function.
func ValidatorFunc(name string, fn func(ctx context.Context, path string, value any) error) Validator {
	return &namedFunc{name: name, fn: fn}
}

// runValidator calls v, turning a panic into an error.
func runValidator(ctx context.Context, v Validator, path string, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrValidatorPanic, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.Validate(ctx, path, value)
}

// validate runs vs in order and stops at the first refusal.
func validate(ctx context.Context, vs []Validator, path string, value any) error {
	for _, v := range vs {
		if err := runValidator(ctx, v, path, value); err != nil {
			return &ValidationError{Path: path, Value: value, Validator: v.Name(), Err: err}
		}
	}
	return nil
}
