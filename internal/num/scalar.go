// Package num provides the scalar representations a compiled equation
// plan can be instantiated over: plain reals, unit-carrying
// quantities, forward-mode dual numbers and uncertainty-carrying
// values. The evaluator is generic over Scalar, so switching the
// representation never touches the equation code itself.
package num

import "fmt"

// Scalar is the arithmetic contract threaded through the evaluator.
// All operations are pure; a domain violation (unit mismatch, log of
// a non-positive value, division by zero) panics with *Error, which
// the evaluator boundary converts into an evaluation failure.
type Scalar[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T

	Sin() T
	Cos() T
	Sqrt() T
	Exp() T
	Log() T
	Abs() T

	// Pow raises to a constant real exponent.
	Pow(k float64) T
	// Scale multiplies by a plain real constant.
	Scale(k float64) T

	// Lift builds a fresh dimensionless value of the same
	// representation; usable on the zero value of T.
	Lift(v float64) T
	// Seed is Lift plus the representation's secondary channel:
	// the derivative seed for duals, the standard deviation for
	// uncertain values. Representations without such a channel
	// ignore aux.
	Seed(v, aux float64) T
	// WithUnit tags the value with a physical unit; a no-op for
	// unit-free representations.
	WithUnit(Unit) T

	// Value is the plain real magnitude, units stripped.
	Value() float64
	// Aux is the secondary channel (0 where none exists).
	Aux() float64
	// Cmp compares magnitudes: -1, 0 or +1.
	Cmp(T) int
	// Repr names the representation for diagnostics.
	Repr() string
}

// Error reports a scalar operation that has no defined result.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("num: %s: %s", e.Op, e.Msg)
}

func opErr(op, format string, args ...any) {
	panic(&Error{Op: op, Msg: fmt.Sprintf(format, args...)})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
