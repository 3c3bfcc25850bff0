package formula

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const divisionEpsilon = 1e-12

// Variables binds identifier names to numeric values.
type Variables map[string]any

// Evaluator compiles and evaluates arithmetic expressions against a fixed
// function table. It holds no mutable state and may be shared.
type Evaluator struct {
	functions map[string]Function
}

// New returns an evaluator with the built-in functions.
func New() *Evaluator {
	return &Evaluator{functions: builtinFunctions()}
}

var defaultEvaluator = New()

// Evaluate compiles and runs expr with the default evaluator.
func Evaluate(expr string, vars Variables) (float64, error) {
	return defaultEvaluator.Evaluate(expr, vars)
}

// Compile parses expr with the default evaluator.
func Compile(expr string) (*Program, error) {
	return defaultEvaluator.Compile(expr)
}

// Evaluate compiles and runs expr.
func (e *Evaluator) Evaluate(expr string, vars Variables) (float64, error) {
	prog, err := e.Compile(expr)
	if err != nil {
		return 0, err
	}
	return prog.Eval(vars)
}

// Compile parses expr and checks function names and arities. Variables are
// resolved at Eval time.
func (e *Evaluator) Compile(expr string) (*Program, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, newError(expr, ErrEmpty, "")
	}
	if len(expr) > maxExpressionLength {
		return nil, newError(expr, ErrTooLong, "%d characters (limit %d)", len(expr), maxExpressionLength)
	}
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	code, err := parse(expr, tokens)
	if err != nil {
		return nil, err
	}

	depth := 0
	for _, ins := range code {
		switch ins.kind {
		case opNumber, opVariable:
			depth++
		case opUnary:
			if depth < 1 {
				return nil, newError(expr, ErrSyntax, "missing operand for %q at position %d", ins.op, ins.pos)
			}
		case opBinary:
			if depth < 2 {
				return nil, newError(expr, ErrSyntax, "missing operand for %q at position %d", ins.op, ins.pos)
			}
			depth--
		case opCall:
			fn, ok := e.functions[ins.name]
			if !ok {
				return nil, newError(expr, ErrUnknownFunction, "%s", ins.name)
			}
			if !fn.accepts(ins.argc) {
				return nil, newError(expr, ErrArity, "%s called with %d arguments", ins.name, ins.argc)
			}
			if depth < ins.argc {
				return nil, newError(expr, ErrSyntax, "missing argument in call to %s", ins.name)
			}
			depth -= ins.argc - 1
		}
	}
	if depth != 1 {
		return nil, newError(expr, ErrSyntax, "malformed expression")
	}

	return &Program{expression: expr, code: code, functions: e.functions}, nil
}

// Program is a compiled expression.
type Program struct {
	expression string
	code       []instruction
	functions  map[string]Function
}

// Expression returns the source text.
func (p *Program) Expression() string { return p.expression }

// Identifiers returns the sorted, distinct variable names the program reads.
func (p *Program) Identifiers() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, ins := range p.code {
		if ins.kind != opVariable {
			continue
		}
		if _, ok := seen[ins.name]; ok {
			continue
		}
		seen[ins.name] = struct{}{}
		names = append(names, ins.name)
	}
	sort.Strings(names)
	return names
}

// Eval runs the program against vars.
func (p *Program) Eval(vars Variables) (float64, error) {
	stack := make([]float64, 0, len(p.code))

	for _, ins := range p.code {
		switch ins.kind {
		case opNumber:
			stack = append(stack, ins.num)

		case opVariable:
			raw, ok := vars[ins.name]
			if !ok {
				return 0, newError(p.expression, ErrUnknownIdentifier, "%s", ins.name)
			}
			v, err := toNumber(raw)
			if err != nil {
				return 0, newError(p.expression, ErrInvalidVariable, "%s: %v", ins.name, err)
			}
			stack = append(stack, v)

		case opUnary:
			if ins.op == '-' {
				stack[len(stack)-1] = -stack[len(stack)-1]
			}

		case opBinary:
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			v, err := applyBinary(ins.op, left, right)
			if err != nil {
				return 0, newError(p.expression, err, "at position %d", ins.pos)
			}
			stack = append(stack, v)

		case opCall:
			args := make([]float64, ins.argc)
			copy(args, stack[len(stack)-ins.argc:])
			stack = stack[:len(stack)-ins.argc]
			v, err := p.functions[ins.name].Call(args)
			if err != nil {
				return 0, newError(p.expression, err, "%s", ins.name)
			}
			stack = append(stack, v)
		}
	}

	result := stack[0]
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, newError(p.expression, ErrNonFinite, "")
	}
	return result, nil
}

func applyBinary(op byte, left, right float64) (float64, error) {
	// Explicit conversions keep each step individually rounded (no fused multiply-add).
	switch op {
	case '+':
		return float64(left + right), nil
	case '-':
		return float64(left - right), nil
	case '*':
		return float64(left * right), nil
	case '/':
		if math.Abs(right) < divisionEpsilon {
			return 0, ErrDivisionByZero
		}
		return float64(left / right), nil
	case '^':
		return math.Pow(left, right), nil
	}
	return 0, ErrSyntax
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return parseNumeric(string(n))
	case string:
		return parseNumeric(n)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "0x") || strings.Contains(s, "_") {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not numeric", s)
	}
	return finite(f)
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value is not finite")
	}
	return f, nil
}
