package formula

import (
	"math"

	"github.com/shopspring/decimal"
)

// Function is a built-in callable. MaxArgs of zero means exactly MinArgs.
type Function struct {
	MinArgs int
	MaxArgs int
	Call    func(args []float64) (float64, error)
}

func (f Function) accepts(n int) bool {
	upper := f.MaxArgs
	if upper == 0 {
		upper = f.MinArgs
	}
	return n >= f.MinArgs && n <= upper
}

func unary(fn func(float64) float64) Function {
	return Function{MinArgs: 1, Call: func(args []float64) (float64, error) {
		return fn(args[0]), nil
	}}
}

func builtinFunctions() map[string]Function {
	return map[string]Function{
		"abs":   unary(math.Abs),
		"ceil":  unary(math.Ceil),
		"floor": unary(math.Floor),
		"sqrt": {MinArgs: 1, Call: func(args []float64) (float64, error) {
			if args[0] < 0 {
				return 0, ErrDomain
			}
			return math.Sqrt(args[0]), nil
		}},
		"pow": {MinArgs: 2, Call: func(args []float64) (float64, error) {
			return math.Pow(args[0], args[1]), nil
		}},
		"round": {MinArgs: 1, MaxArgs: 2, Call: roundHalfAwayFromZero},
		"min": {MinArgs: 2, MaxArgs: 16, Call: func(args []float64) (float64, error) {
			out := args[0]
			for _, v := range args[1:] {
				out = math.Min(out, v)
			}
			return out, nil
		}},
		"max": {MinArgs: 2, MaxArgs: 16, Call: func(args []float64) (float64, error) {
			out := args[0]
			for _, v := range args[1:] {
				out = math.Max(out, v)
			}
			return out, nil
		}},
		"clamp": {MinArgs: 3, Call: func(args []float64) (float64, error) {
			x, lo, hi := args[0], args[1], args[2]
			return math.Max(lo, math.Min(hi, x)), nil
		}},
	}
}

func roundHalfAwayFromZero(args []float64) (float64, error) {
	precision := 0.0
	if len(args) == 2 {
		precision = args[1]
	}
	if precision != math.Trunc(precision) || math.Abs(precision) > 15 {
		return 0, ErrDomain
	}
	if math.IsNaN(args[0]) || math.IsInf(args[0], 0) {
		return 0, ErrNonFinite
	}
	out, _ := decimal.NewFromFloat(args[0]).Round(int32(precision)).Float64()
	return out, nil
}
