// Package handler defines the contract every document format implements
// and a registry to select implementations at run time.
//
// # Contract
//
// A Handler sniffs (Detect), parses (Parse), serializes (Encode) and
// pre-flight checks (Validate) one format, and describes itself
// (Metadata). Parse either returns a complete tree or a *ParseError; it
// never returns a partial tree. For formats where empty input is a valid
// "no document" (YAML, Markdown) Parse returns a nil node and a nil error.
//
// # Registry
//
// There is no global registry. Hosts build one, normally with
// builtin.Registry(), and pass it to the document layer:
//
//	reg := builtin.Registry()
//	h, err := reg.Detect(data)
//	node, err := h.Parse(data)
//
// # Related Packages
//
//   - github.com/signadot/tony-format/treedoc/handler/builtin - the four built in handlers
//   - github.com/signadot/tony-format/treedoc/encode - serialization options
package handler
