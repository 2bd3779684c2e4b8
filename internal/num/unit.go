package num

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is a physical unit as integer exponents over the SI base
// dimensions used by mechanical models. Angles are dimensionless.
type Unit struct {
	M  int8 // metre
	Kg int8 // kilogram
	S  int8 // second
	A  int8 // ampere
}

var Dimensionless = Unit{}

// atoms maps unit symbols to their base-dimension exponents.
var atoms = map[string]Unit{
	"":    {},
	"1":   {},
	"rad": {},
	"m":   {M: 1},
	"kg":  {Kg: 1},
	"s":   {S: 1},
	"A":   {A: 1},
	"N":   {M: 1, Kg: 1, S: -2},
	"J":   {M: 2, Kg: 1, S: -2},
	"W":   {M: 2, Kg: 1, S: -3},
	"V":   {M: 2, Kg: 1, S: -3, A: -1},
	"Hz":  {S: -1},
}

// ParseUnit reads unit expressions of the form "kg*m^2/s^2". Factors
// are separated by '*' or '·', a single '/' divides everything after
// it, and '^' raises an atom to an integer power.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	var u Unit
	num := s
	den := ""
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, den = s[:i], s[i+1:]
	}
	for pi, part := range []string{num, den} {
		sign := int8(1)
		if pi == 1 {
			sign = -1
		}
		if part == "" {
			continue
		}
		for _, f := range strings.FieldsFunc(part, func(r rune) bool { return r == '*' || r == '·' }) {
			exp := int8(1)
			if j := strings.IndexByte(f, '^'); j >= 0 {
				n, err := strconv.Atoi(f[j+1:])
				if err != nil {
					return Unit{}, fmt.Errorf("unit %q: bad exponent %q", s, f[j+1:])
				}
				exp = int8(n)
				f = f[:j]
			}
			a, ok := atoms[strings.TrimSpace(f)]
			if !ok {
				return Unit{}, fmt.Errorf("unit %q: unknown symbol %q", s, f)
			}
			u = u.mulPow(a, sign*exp)
		}
	}
	return u, nil
}

// MustUnit is ParseUnit for unit literals known at compile time.
func MustUnit(s string) Unit {
	u, err := ParseUnit(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Unit) mulPow(o Unit, k int8) Unit {
	return Unit{M: u.M + k*o.M, Kg: u.Kg + k*o.Kg, S: u.S + k*o.S, A: u.A + k*o.A}
}

func (u Unit) Mul(o Unit) Unit { return u.mulPow(o, 1) }
func (u Unit) Div(o Unit) Unit { return u.mulPow(o, -1) }

func (u Unit) IsDimensionless() bool { return u == Unit{} }

func (u Unit) String() string {
	if u.IsDimensionless() {
		return "1"
	}
	var num, den []string
	dim := func(sym string, e int8) {
		switch {
		case e == 1:
			num = append(num, sym)
		case e > 1:
			num = append(num, fmt.Sprintf("%s^%d", sym, e))
		case e == -1:
			den = append(den, sym)
		case e < -1:
			den = append(den, fmt.Sprintf("%s^%d", sym, -e))
		}
	}
	dim("m", u.M)
	dim("kg", u.Kg)
	dim("s", u.S)
	dim("A", u.A)
	out := strings.Join(num, "*")
	if out == "" {
		out = "1"
	}
	if len(den) > 0 {
		out += "/" + strings.Join(den, "*")
	}
	return out
}
