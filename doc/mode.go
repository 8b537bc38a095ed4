package doc

import (
	"fmt"
	"strings"
)

// Mode selects which representation of a document is authoritative.
type Mode int

const (
	// Structural: the tree is authoritative and text is derived from it.
	Structural Mode = iota
	// Source: the text is authoritative and the tree is stale.
	Source
)

func (m Mode) String() string {
	switch m {
	case Structural:
		return "structural"
	case Source:
		return "source"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "structural", "tree":
		return Structural, nil
	case "source", "text":
		return Source, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(d []byte) error {
	v, err := ParseMode(string(d))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
