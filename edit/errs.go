package edit

import (
	"errors"
	"fmt"

	"github.com/signadot/tony-format/treedoc/ir"
)

var (
	ErrNotFound       = ir.ErrNotFound
	ErrNotContainer   = errors.New("not a container")
	ErrCycle          = errors.New("would create a cycle")
	ErrRequired       = errors.New("required node")
	ErrReadOnly       = errors.New("document is not editable")
	ErrKeyExists      = errors.New("key exists")
	ErrIndex          = errors.New("index out of range")
	ErrKind           = errors.New("incompatible node kind")
	ErrStale          = errors.New("stale validation")
	ErrRejected       = errors.New("rejected by validator")
	ErrValidatorPanic = errors.New("validator panicked")
)

// OperationError reports a structurally invalid operation.
type OperationError struct {
	Op   string
	Path string
	// To is the destination of a move.
	To  string
	Err error
}

func (e *OperationError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("%s %q to %q: %v", e.Op, e.Path, e.To, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opErr(op, path string, err error, format string, args ...any) *OperationError {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &OperationError{Op: op, Path: path, Err: err}
}

// ValidationError reports a value refused by a validator.
type ValidationError struct {
	Path      string
	Value     any
	Validator string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q refused %v at %q: %v", ErrRejected, e.Validator, e.Value, e.Path, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrRejected, e.Err}
}
