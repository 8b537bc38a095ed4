package handler

import (
	"bytes"
	"io"

	"github.com/signadot/tony-format/treedoc/encode"
	"github.com/signadot/tony-format/treedoc/format"
	"github.com/signadot/tony-format/treedoc/ir"
)

// DetectLimit bounds the number of bytes Detect implementations inspect.
const DetectLimit = 4096

type Handler interface {
	Format() format.Format
	// Detect cheaply decides whether d is plausibly in this format.
	Detect(d []byte) bool
	Parse(d []byte) (*ir.Node, error)
	Encode(node *ir.Node, w io.Writer, opts ...encode.EncodeOption) error
	Validate(d []byte) Result
	Metadata() Metadata
}

// Metadata is static descriptive information about a format.
type Metadata struct {
	Format     format.Format
	MIME       string
	Extensions []string
}

// MetadataOf builds the metadata of f.
func MetadataOf(f format.Format) Metadata {
	return Metadata{
		Format:     f,
		MIME:       f.MIME(),
		Extensions: f.Extensions(),
	}
}

// Serialize encodes node with h into a string.
func Serialize(h Handler, node *ir.Node, opts ...encode.EncodeOption) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := h.Encode(node, buf, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Prefix returns the detection window of d: at most DetectLimit bytes with
// a leading byte order mark and whitespace removed.
func Prefix(d []byte) []byte {
	d = bytes.TrimPrefix(d, []byte("\xef\xbb\xbf"))
	if len(d) > DetectLimit {
		d = d[:DetectLimit]
	}
	return bytes.TrimLeft(d, " \t\r\n")
}

// Blank reports whether d holds only whitespace.
func Blank(d []byte) bool {
	return len(bytes.TrimSpace(bytes.TrimPrefix(d, []byte("\xef\xbb\xbf")))) == 0
}
