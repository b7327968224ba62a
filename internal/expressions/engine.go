package expressions

import (
	"context"

	"github.com/rendis/flowcanvas/pkg/schema"
)

// Engine evaluates expressions against flow sample data.
// Three implementations: CEL and Expr (branch conditions), GoJQ (mention previews).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
	// Check compiles expression without evaluating it.
	Check(expression string) error
}

// Dialect names of the engines.
const (
	DialectCEL  = "cel"
	DialectExpr = "expr"
	DialectJQ   = "jq"
)

// New returns a fresh engine for the given dialect name.
func New(dialect string) (Engine, error) {
	switch dialect {
	case DialectCEL:
		return NewCELEngine()
	case DialectExpr:
		return NewExprEngine(), nil
	case DialectJQ:
		return NewGoJQEngine(), nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown expression dialect %q", dialect).
			WithDetails(map[string]any{"supported": []string{DialectCEL, DialectExpr, DialectJQ}})
	}
}

// EvaluateBool evaluates a condition and requires a boolean result.
func EvaluateBool(ctx context.Context, e Engine, expression string, data map[string]any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s condition %q returned %T, want bool", e.Name(), expression, out).
			WithDetails(map[string]any{"expression": expression})
	}
	return b, nil
}
