package ir

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrPath     = errors.New("bad path")
	ErrInvalid  = errors.New("invalid tree")
)
