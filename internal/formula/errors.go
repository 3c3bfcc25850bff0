package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for a blank formula.
	ErrEmpty = errors.New("formula: empty")
	// ErrTooLong is returned when the formula exceeds the length limit.
	ErrTooLong = errors.New("formula: too long")
	// ErrTooComplex is returned when the formula exceeds the token limit.
	ErrTooComplex = errors.New("formula: too complex")
	// ErrUnexpectedCharacter is returned for characters outside the grammar.
	ErrUnexpectedCharacter = errors.New("formula: unexpected character")
	// ErrInvalidNumber is returned for malformed numeric literals.
	ErrInvalidNumber = errors.New("formula: invalid number")
	// ErrUnknownIdentifier is returned when a variable is not bound.
	ErrUnknownIdentifier = errors.New("formula: unknown identifier")
	// ErrUnknownFunction is returned when a call names no built-in function.
	ErrUnknownFunction = errors.New("formula: unknown function")
	// ErrArity is returned when a function receives the wrong number of arguments.
	ErrArity = errors.New("formula: wrong number of arguments")
	// ErrSyntax is returned for structural problems (parentheses, commas, operands).
	ErrSyntax = errors.New("formula: syntax error")
	// ErrDivisionByZero is returned when a divisor is zero.
	ErrDivisionByZero = errors.New("formula: division by zero")
	// ErrNonFinite is returned when a result is NaN or infinite.
	ErrNonFinite = errors.New("formula: result is not a finite number")
	// ErrInvalidVariable is returned when a bound value cannot be read as a number.
	ErrInvalidVariable = errors.New("formula: variable is not numeric")
	// ErrDomain is returned when a function argument is outside its domain.
	ErrDomain = errors.New("formula: argument out of domain")
)

// Error describes why an expression could not be evaluated.
type Error struct {
	Expression string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(expression string, err error, format string, args ...any) *Error {
	return &Error{Expression: expression, Detail: fmt.Sprintf(format, args...), Err: err}
}
