package num

import "math"

// Dual is a forward-mode dual number: Re carries the value, Ep the
// directional derivative. Running the unchanged evaluation plan over
// Dual with a unit seed in one state dimension yields one exact
// Jacobian column, which is how analytic linearization works.
type Dual struct {
	Re float64
	Ep float64
}

func (d Dual) Add(o Dual) Dual { return Dual{d.Re + o.Re, d.Ep + o.Ep} }
func (d Dual) Sub(o Dual) Dual { return Dual{d.Re - o.Re, d.Ep - o.Ep} }

func (d Dual) Mul(o Dual) Dual {
	return Dual{d.Re * o.Re, d.Ep*o.Re + d.Re*o.Ep}
}

func (d Dual) Div(o Dual) Dual {
	if o.Re == 0 {
		opErr("div", "division by zero")
	}
	return Dual{d.Re / o.Re, (d.Ep*o.Re - d.Re*o.Ep) / (o.Re * o.Re)}
}

func (d Dual) Neg() Dual { return Dual{-d.Re, -d.Ep} }

func (d Dual) Sin() Dual { return Dual{math.Sin(d.Re), math.Cos(d.Re) * d.Ep} }
func (d Dual) Cos() Dual { return Dual{math.Cos(d.Re), -math.Sin(d.Re) * d.Ep} }

func (d Dual) Sqrt() Dual {
	if d.Re < 0 {
		opErr("sqrt", "negative argument %g", d.Re)
	}
	s := math.Sqrt(d.Re)
	if s == 0 {
		opErr("sqrt", "derivative singular at zero")
	}
	return Dual{s, d.Ep / (2 * s)}
}

func (d Dual) Exp() Dual {
	e := math.Exp(d.Re)
	return Dual{e, e * d.Ep}
}

func (d Dual) Log() Dual {
	if d.Re <= 0 {
		opErr("log", "non-positive argument %g", d.Re)
	}
	return Dual{math.Log(d.Re), d.Ep / d.Re}
}

func (d Dual) Abs() Dual {
	if d.Re < 0 {
		return Dual{-d.Re, -d.Ep}
	}
	return d
}

func (d Dual) Pow(k float64) Dual {
	return Dual{math.Pow(d.Re, k), k * math.Pow(d.Re, k-1) * d.Ep}
}

func (d Dual) Scale(k float64) Dual      { return Dual{d.Re * k, d.Ep * k} }
func (d Dual) Lift(v float64) Dual       { return Dual{Re: v} }
func (d Dual) Seed(v, aux float64) Dual  { return Dual{Re: v, Ep: aux} }
func (d Dual) WithUnit(Unit) Dual        { return d }

func (d Dual) Value() float64 { return d.Re }
func (d Dual) Aux() float64   { return d.Ep }
func (d Dual) Cmp(o Dual) int { return cmpFloat(d.Re, o.Re) }
func (d Dual) Repr() string   { return "dual(float64)" }
