package formula

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEvaluatorPrecedenceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	operand := gen.Float64Range(-1e6, 1e6)

	properties.Property("multiplication binds tighter than addition", prop.ForAll(
		func(a, b, c float64) bool {
			got, err := Evaluate("a + b * c", Variables{"a": a, "b": b, "c": c})
			return err == nil && got == a+float64(b*c)
		},
		operand, operand, operand,
	))

	properties.Property("parentheses override precedence", prop.ForAll(
		func(a, b, c float64) bool {
			got, err := Evaluate("(a + b) * c", Variables{"a": a, "b": b, "c": c})
			return err == nil && got == float64(a+b)*c
		},
		operand, operand, operand,
	))

	properties.Property("subtraction is left associative", prop.ForAll(
		func(a, b, c float64) bool {
			got, err := Evaluate("a - b - c", Variables{"a": a, "b": b, "c": c})
			return err == nil && got == float64(a-b)-c
		},
		operand, operand, operand,
	))

	properties.Property("clamp stays within bounds", prop.ForAll(
		func(x, lo, span float64) bool {
			hi := lo + math.Abs(span)
			got, err := Evaluate("clamp(x, lo, hi)", Variables{"x": x, "lo": lo, "hi": hi})
			return err == nil && got >= lo && got <= hi
		},
		operand, operand, operand,
	))

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(a, b float64) bool {
			vars := Variables{"a": a, "b": b}
			first, err1 := Evaluate("max(a, b) - min(a, b) + abs(a)", vars)
			second, err2 := Evaluate("max(a, b) - min(a, b) + abs(a)", vars)
			return err1 == nil && err2 == nil && first == second
		},
		operand, operand,
	))

	properties.TestingRun(t)
}
