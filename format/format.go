package format

import (
	"errors"
	"fmt"
	"strings"
)

type Format int

const (
	JSONFormat Format = iota
	XMLFormat
	YAMLFormat
	MarkdownFormat
)

var ErrBadFormat = errors.New("bad format")

func ParseFormat(v string) (Format, error) {
	f, ok := map[string]Format{
		"j":        JSONFormat,
		"json":     JSONFormat,
		"x":        XMLFormat,
		"xml":      XMLFormat,
		"y":        YAMLFormat,
		"yaml":     YAMLFormat,
		"yml":      YAMLFormat,
		"m":        MarkdownFormat,
		"md":       MarkdownFormat,
		"markdown": MarkdownFormat,
	}[strings.ToLower(v)]
	if ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

// FromExtension maps a file name suffix such as ".yml" to its format.
func FromExtension(ext string) (Format, error) {
	ext = strings.ToLower(ext)
	for _, f := range AllFormats() {
		for _, fe := range f.Extensions() {
			if fe == ext {
				return f, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: no format for extension %q", ErrBadFormat, ext)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case JSONFormat:
		return []byte("json"), nil
	case XMLFormat:
		return []byte("xml"), nil
	case YAMLFormat:
		return []byte("yaml"), nil
	case MarkdownFormat:
		return []byte("markdown"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

func (f Format) IsJSON() bool { return f == JSONFormat }
func (f Format) IsXML() bool { return f == XMLFormat }
func (f Format) IsYAML() bool { return f == YAMLFormat }
func (f Format) IsMarkdown() bool { return f == MarkdownFormat }

// MIME returns the media type of the format.
func (f Format) MIME() string {
	switch f {
	case JSONFormat:
		return "application/json"
	case XMLFormat:
		return "application/xml"
	case YAMLFormat:
		return "application/yaml"
	case MarkdownFormat:
		return "text/markdown"
	default:
		return ""
	}
}

// Extensions returns the file extensions (including the dot) of the
// format, preferred extension first.
func (f Format) Extensions() []string {
	switch f {
	case JSONFormat:
		return []string{".json"}
	case XMLFormat:
		return []string{".xml"}
	case YAMLFormat:
		return []string{".yaml", ".yml"}
	case MarkdownFormat:
		return []string{".md", ".markdown"}
	default:
		return nil
	}
}

// Suffix returns the preferred file extension for this format (including the dot).
func (f Format) Suffix() string {
	exts := f.Extensions()
	if len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// AllFormats returns all supported formats in detection preference order.
func AllFormats() []Format {
	return []Format{JSONFormat, XMLFormat, YAMLFormat, MarkdownFormat}
}
