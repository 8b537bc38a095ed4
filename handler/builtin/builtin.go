// Package builtin assembles the registry of the four bundled format
// handlers.
package builtin

import (
	"github.com/signadot/tony-format/treedoc/handler"
	"github.com/signadot/tony-format/treedoc/handler/jsonfmt"
	"github.com/signadot/tony-format/treedoc/handler/mdfmt"
	"github.com/signadot/tony-format/treedoc/handler/xmlfmt"
	"github.com/signadot/tony-format/treedoc/handler/yamlfmt"
)

// Registry returns a new registry holding the JSON, XML, YAML and
// Markdown handlers, tried in that order by Detect.
func Registry() *handler.Registry {
	return handler.NewRegistry(
		jsonfmt.New(),
		xmlfmt.New(),
		yamlfmt.New(),
		mdfmt.New(),
	)
}
