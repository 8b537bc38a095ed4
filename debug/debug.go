// Package debug provides environment gated tracing to stderr.
//
// Set TREEDOC_DEBUG_PARSE, TREEDOC_DEBUG_EDIT or TREEDOC_DEBUG_SYNC to a
// true value (as understood by strconv.ParseBool) to enable tracing of
// format handlers, the edit engine and mode switching respectively.
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/signadot/tony-format/treedoc/ir"
)

type debug struct {
	Parse bool
	Edit  bool
	Sync  bool
}

var d *debug

func init() {
	d = &debug{}
	d.Parse = boolEnv("TREEDOC_DEBUG_PARSE")
	d.Edit = boolEnv("TREEDOC_DEBUG_EDIT")
	d.Sync = boolEnv("TREEDOC_DEBUG_SYNC")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Parse() bool {
	return d.Parse
}
func Edit() bool {
	return d.Edit
}
func Sync() bool {
	return d.Sync
}

// Node renders a node compactly for trace output.
type Node struct{ *ir.Node }

func (n Node) String() string {
	if n.Node == nil {
		return "<no document>"
	}
	b, err := json.Marshal(ir.ToAny(n.Node))
	if err != nil {
		return fmt.Sprintf("[raw %s] %v", n.Node.Type, n.Node.KPath())
	}
	return n.Node.Type.String() + " " + string(b)
}

func Logf(msg string, args ...any) {
	for i := range args {
		switch x := args[i].(type) {
		case *ir.Node:
			args[i] = Node{x}.String()
		case map[string]any, []any:
			b, err := json.MarshalIndent(x, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", x)
				continue
			}
			args[i] = string(b)
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
