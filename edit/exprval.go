package edit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/signadot/tony-format/treedoc/ir"
)

// ExprValidator accepts a value when a boolean expr-lang rule holds. The
// rule sees value, path and kind (null, bool, number, string, object or
// array) and may call typeOf(x) and truthy(x). truthy is false for null,
// false, zero, empty strings and empty containers.
//
//	value >= 0 && value < 150
//	kind == "string" && len(value) > 0
type ExprValidator struct {
	name    string
	rule    string
	program *vm.Program
}

// ruleEnv is the environment rules are compiled against.
type ruleEnv struct {
	Value any    `expr:"value"`
	Path  string `expr:"path"`
	Kind  string `expr:"kind"`
}

// NewExprValidator compiles rule. An empty name uses the rule itself.
func NewExprValidator(name, rule string) (*ExprValidator, error) {
	program, err := expr.Compile(rule,
		expr.Env(ruleEnv{}),
		expr.AsBool(),
		expr.Function("typeOf", func(params ...any) (any, error) {
			return kindOf(params[0]), nil
		},
			new(func(any) string)),
		expr.Function("truthy", func(params ...any) (any, error) {
			n, err := ir.FromAny(params[0])
			if err != nil {
				return nil, err
			}
			return ir.Truth(n), nil
		},
			new(func(any) bool)),
	)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule, err)
	}
	if name == "" {
		name = rule
	}
	return &ExprValidator{name: name, rule: rule, program: program}, nil
}

func (v *ExprValidator) Name() string {
	return v.name
}

func (v *ExprValidator) Rule() string {
	return v.rule
}

func (v *ExprValidator) Validate(_ context.Context, path string, value any) error {
	res, err := vm.Run(v.program, ruleEnv{Value: value, Path: path, Kind: kindOf(value)})
	if err != nil {
		return err
	}
	if ok, _ := res.(bool); !ok {
		return fmt.Errorf("rule %q does not hold", v.rule)
	}
	return nil
}

// kindOf names the kind of a value produced by ir.ToAny.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, float64, json.Number, int:
		return "number"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
