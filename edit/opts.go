package edit

import "log/slog"

type Option func(*Engine)

// Editable enables or disables every mutation. Engines are editable by
// default.
func Editable(v bool) Option {
	return func(e *Engine) { e.editable = v }
}

// Required protects the nodes matching the path patterns from deletion
// and moves.
func Required(patterns ...string) Option {
	return func(e *Engine) { e.requiredSrc = append(e.requiredSrc, patterns...) }
}

// WithValidator registers v for paths matching pattern.
func WithValidator(pattern string, v Validator) Option {
	return func(e *Engine) { e.validatorSrc = append(e.validatorSrc, pendingValidator{pattern, v}) }
}

// WithListener adds a change listener.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

type pendingValidator struct {
	pattern string
	v       Validator
}
