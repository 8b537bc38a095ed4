package doc

import (
	"errors"
	"fmt"
)

var (
	ErrClosed            = errors.New("document is closed")
	ErrWrongMode         = errors.New("not allowed in this mode")
	ErrTransitionPending = errors.New("mode transition in progress")
	ErrNoFormat          = errors.New("no format selected")
)

// ModeSwitchError reports a refused transition. Err is the parse error
// that blocked it.
type ModeSwitchError struct {
	From, To Mode
	Err      error
}

func (e *ModeSwitchError) Error() string {
	return fmt.Sprintf("cannot switch from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ModeSwitchError) Unwrap() error {
	return e.Err
}

func modeErr(op string, m Mode) error {
	return fmt.Errorf("%w: %s in %s mode", ErrWrongMode, op, m)
}
