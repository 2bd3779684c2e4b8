package num

import "math"

// Real is the plain float64 representation, the fast path for
// production simulation runs.
type Real float64

func (r Real) Add(o Real) Real { return r + o }
func (r Real) Sub(o Real) Real { return r - o }
func (r Real) Mul(o Real) Real { return r * o }
func (r Real) Div(o Real) Real {
	if o == 0 {
		opErr("div", "division by zero")
	}
	return r / o
}
func (r Real) Neg() Real { return -r }

func (r Real) Sin() Real { return Real(math.Sin(float64(r))) }
func (r Real) Cos() Real { return Real(math.Cos(float64(r))) }
func (r Real) Sqrt() Real {
	if r < 0 {
		opErr("sqrt", "negative argument %g", float64(r))
	}
	return Real(math.Sqrt(float64(r)))
}
func (r Real) Exp() Real { return Real(math.Exp(float64(r))) }
func (r Real) Log() Real {
	if r <= 0 {
		opErr("log", "non-positive argument %g", float64(r))
	}
	return Real(math.Log(float64(r)))
}
func (r Real) Abs() Real          { return Real(math.Abs(float64(r))) }
func (r Real) Pow(k float64) Real { return Real(math.Pow(float64(r), k)) }

func (r Real) Scale(k float64) Real   { return r * Real(k) }
func (r Real) Lift(v float64) Real    { return Real(v) }
func (r Real) Seed(v, _ float64) Real { return Real(v) }
func (r Real) WithUnit(Unit) Real     { return r }

func (r Real) Value() float64   { return float64(r) }
func (r Real) Aux() float64     { return 0 }
func (r Real) Cmp(o Real) int   { return cmpFloat(float64(r), float64(o)) }
func (r Real) Repr() string     { return "float64" }
