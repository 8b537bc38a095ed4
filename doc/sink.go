package doc

import (
	"log/slog"

	events "github.com/docker/go-events"

	"github.com/signadot/tony-format/treedoc/edit"
)

// SinkListener forwards change events to a go-events sink, for instance
// a Queue or Broadcaster feeding other goroutines. Write failures are
// logged and dropped.
func SinkListener(sink events.Sink, logger *slog.Logger) edit.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ev edit.Event) {
		if err := sink.Write(ev); err != nil {
			logger.Warn("event sink", "event", ev.Type, "error", err)
		}
	}
}
