// Package encode holds the serialization options shared by all format
// handlers.
//
// # Usage
//
//	var buf bytes.Buffer
//	err := h.Encode(node, &buf, encode.Compact(true))
//	err = h.Encode(node, &buf, encode.Indent("    "))
//
// Compact output carries no extraneous whitespace. Otherwise nested
// structures are indented by the indent string, two spaces by default.
package encode
