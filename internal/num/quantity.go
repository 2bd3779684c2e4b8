package num

import (
	"fmt"
	"math"
)

// Quantity is a float64 tagged with a physical unit. Addition and
// comparison require matching units; multiplication and division
// combine them. Transcendental functions demand dimensionless
// arguments, which catches a large class of modelling mistakes at the
// first evaluation instead of producing silently wrong trajectories.
type Quantity struct {
	V float64
	U Unit
}

func Q(v float64, unit string) Quantity {
	return Quantity{V: v, U: MustUnit(unit)}
}

func (q Quantity) Add(o Quantity) Quantity {
	if q.U != o.U {
		opErr("add", "unit mismatch: %s + %s", q.U, o.U)
	}
	return Quantity{V: q.V + o.V, U: q.U}
}

func (q Quantity) Sub(o Quantity) Quantity {
	if q.U != o.U {
		opErr("sub", "unit mismatch: %s - %s", q.U, o.U)
	}
	return Quantity{V: q.V - o.V, U: q.U}
}

func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{V: q.V * o.V, U: q.U.Mul(o.U)}
}

func (q Quantity) Div(o Quantity) Quantity {
	if o.V == 0 {
		opErr("div", "division by zero (%s)", o.U)
	}
	return Quantity{V: q.V / o.V, U: q.U.Div(o.U)}
}

func (q Quantity) Neg() Quantity { return Quantity{V: -q.V, U: q.U} }

func (q Quantity) dimensionless(op string) float64 {
	if !q.U.IsDimensionless() {
		opErr(op, "argument carries unit %s", q.U)
	}
	return q.V
}

func (q Quantity) Sin() Quantity { return Quantity{V: math.Sin(q.dimensionless("sin"))} }
func (q Quantity) Cos() Quantity { return Quantity{V: math.Cos(q.dimensionless("cos"))} }
func (q Quantity) Exp() Quantity { return Quantity{V: math.Exp(q.dimensionless("exp"))} }

func (q Quantity) Log() Quantity {
	v := q.dimensionless("log")
	if v <= 0 {
		opErr("log", "non-positive argument %g", v)
	}
	return Quantity{V: math.Log(v)}
}

func (q Quantity) Sqrt() Quantity {
	if q.V < 0 {
		opErr("sqrt", "negative argument %g", q.V)
	}
	if q.U.M%2 != 0 || q.U.Kg%2 != 0 || q.U.S%2 != 0 || q.U.A%2 != 0 {
		opErr("sqrt", "unit %s has no exact square root", q.U)
	}
	return Quantity{
		V: math.Sqrt(q.V),
		U: Unit{M: q.U.M / 2, Kg: q.U.Kg / 2, S: q.U.S / 2, A: q.U.A / 2},
	}
}

func (q Quantity) Abs() Quantity { return Quantity{V: math.Abs(q.V), U: q.U} }

func (q Quantity) Pow(k float64) Quantity {
	if !q.U.IsDimensionless() {
		ik := int8(k)
		if float64(ik) != k {
			opErr("pow", "non-integer exponent %g on unit %s", k, q.U)
		}
		return Quantity{V: math.Pow(q.V, k), U: Unit{}.mulPow(q.U, ik)}
	}
	return Quantity{V: math.Pow(q.V, k)}
}

func (q Quantity) Scale(k float64) Quantity    { return Quantity{V: q.V * k, U: q.U} }
func (q Quantity) Lift(v float64) Quantity     { return Quantity{V: v} }
func (q Quantity) Seed(v, _ float64) Quantity  { return Quantity{V: v} }
func (q Quantity) WithUnit(u Unit) Quantity    { return Quantity{V: q.V, U: u} }

func (q Quantity) Value() float64 { return q.V }
func (q Quantity) Aux() float64   { return 0 }

func (q Quantity) Cmp(o Quantity) int {
	if q.U != o.U {
		opErr("cmp", "unit mismatch: %s vs %s", q.U, o.U)
	}
	return cmpFloat(q.V, o.V)
}

func (q Quantity) Repr() string { return "float64+unit" }

func (q Quantity) String() string {
	if q.U.IsDimensionless() {
		return fmt.Sprintf("%g", q.V)
	}
	return fmt.Sprintf("%g %s", q.V, q.U)
}
