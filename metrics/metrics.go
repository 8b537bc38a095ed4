// Package metrics counts document activity with Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/signadot/tony-format/treedoc/doc"
	"github.com/signadot/tony-format/treedoc/edit"
	"github.com/signadot/tony-format/treedoc/handler"
)

const Namespace = "treedoc"

// Metrics holds the counters. One value may serve many documents.
type Metrics struct {
	events  *prometheus.CounterVec
	errors  *prometheus.CounterVec
	grouped prometheus.Counter
}

// New registers the counters on reg; nil means
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Committed changes and mode transitions by event type.",
		}, []string{"type"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Rejected operations and parse failures by kind.",
		}, []string{"kind"}),
		grouped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "grouped_operations_total",
			Help:      "Operations folded into bulk and patch events.",
		}),
	}
}

// Observe counts ev.
func (m *Metrics) Observe(ev edit.Event) {
	m.events.WithLabelValues(string(ev.Type)).Inc()
	if ev.Count > 0 {
		m.grouped.Add(float64(ev.Count))
	}
}

// Fail counts err under its kind.
func (m *Metrics) Fail(err error) {
	m.errors.WithLabelValues(Kind(err)).Inc()
}

// Options wires m into a document.
func (m *Metrics) Options() []doc.Option {
	return []doc.Option{doc.OnChange(m.Observe), doc.OnError(m.Fail)}
}

// Kind classifies an error as parse, format, validation, operation,
// mode or other.
func Kind(err error) string {
	var (
		mse *doc.ModeSwitchError
		pe  *handler.ParseError
		fe  *handler.FormatError
		ve  *edit.ValidationError
		oe  *edit.OperationError
	)
	switch {
	case errors.As(err, &mse), errors.Is(err, doc.ErrWrongMode), errors.Is(err, doc.ErrTransitionPending):
		return "mode"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &oe):
		return "operation"
	}
	return "other"
}
