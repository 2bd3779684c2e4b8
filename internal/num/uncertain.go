package num

import "math"

// Uncertain carries a mean and a standard deviation propagated to
// first order through every operation, assuming independent errors.
type Uncertain struct {
	Mean float64
	Sig  float64
}

func hypot(a, b float64) float64 { return math.Hypot(a, b) }

func (u Uncertain) Add(o Uncertain) Uncertain {
	return Uncertain{u.Mean + o.Mean, hypot(u.Sig, o.Sig)}
}

func (u Uncertain) Sub(o Uncertain) Uncertain {
	return Uncertain{u.Mean - o.Mean, hypot(u.Sig, o.Sig)}
}

func (u Uncertain) Mul(o Uncertain) Uncertain {
	return Uncertain{u.Mean * o.Mean, hypot(u.Sig*o.Mean, o.Sig*u.Mean)}
}

func (u Uncertain) Div(o Uncertain) Uncertain {
	if o.Mean == 0 {
		opErr("div", "division by zero")
	}
	m := u.Mean / o.Mean
	return Uncertain{m, hypot(u.Sig/o.Mean, o.Sig*m/o.Mean)}
}

func (u Uncertain) Neg() Uncertain { return Uncertain{-u.Mean, u.Sig} }

// unary propagates sigma through f as |f'(x)|*sigma.
func (u Uncertain) unary(f, df float64) Uncertain {
	return Uncertain{f, math.Abs(df) * u.Sig}
}

func (u Uncertain) Sin() Uncertain { return u.unary(math.Sin(u.Mean), math.Cos(u.Mean)) }
func (u Uncertain) Cos() Uncertain { return u.unary(math.Cos(u.Mean), -math.Sin(u.Mean)) }

func (u Uncertain) Sqrt() Uncertain {
	if u.Mean < 0 {
		opErr("sqrt", "negative argument %g", u.Mean)
	}
	s := math.Sqrt(u.Mean)
	if s == 0 {
		return Uncertain{}
	}
	return u.unary(s, 1/(2*s))
}

func (u Uncertain) Exp() Uncertain {
	e := math.Exp(u.Mean)
	return u.unary(e, e)
}

func (u Uncertain) Log() Uncertain {
	if u.Mean <= 0 {
		opErr("log", "non-positive argument %g", u.Mean)
	}
	return u.unary(math.Log(u.Mean), 1/u.Mean)
}

func (u Uncertain) Abs() Uncertain { return Uncertain{math.Abs(u.Mean), u.Sig} }

func (u Uncertain) Pow(k float64) Uncertain {
	return u.unary(math.Pow(u.Mean, k), k*math.Pow(u.Mean, k-1))
}

func (u Uncertain) Scale(k float64) Uncertain { return Uncertain{u.Mean * k, u.Sig * math.Abs(k)} }
func (u Uncertain) Lift(v float64) Uncertain  { return Uncertain{Mean: v} }

func (u Uncertain) Seed(v, aux float64) Uncertain { return Uncertain{Mean: v, Sig: aux} }
func (u Uncertain) WithUnit(Unit) Uncertain       { return u }

func (u Uncertain) Value() float64      { return u.Mean }
func (u Uncertain) Aux() float64        { return u.Sig }
func (u Uncertain) Cmp(o Uncertain) int { return cmpFloat(u.Mean, o.Mean) }
func (u Uncertain) Repr() string        { return "float64±sigma" }
