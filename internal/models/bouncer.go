package models

import (
	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/num"
)

// Bouncer is a point mass dropped onto a compliant floor. Contact is a
// stiff spring-damper that engages when the height goes below zero;
// the crossing signal lets the integrator localize each touchdown
// instead of stepping blindly across it.
func Bouncer[T num.Scalar[T]]() (*equ.Definition[T], []float64) {
	d := equ.NewDefinition[T]("bouncer")
	d.State("s", "der(s)", "m", 1)
	d.State("v", "der(v)", "m/s", 1)
	d.Param("m", "kg", 1.0)
	d.Param("g", "m/s^2", 9.81)
	d.Param("c", "N/m", 1e4)
	d.Param("d", "N*s/m", 10.0)
	d.Observe("s", "v", "der(s)", "der(v)")

	contact := d.Crossing(equ.Neg(equ.Var[T]("s")), equ.Rising, "touchdown")

	d.Let("der(s)", equ.Var[T]("v"))
	d.Let("der(v)", equ.Sub(
		equ.If(contact,
			equ.Div(
				equ.Neg(equ.Add(
					equ.Mul(equ.Param[T]("c"), equ.Var[T]("s")),
					equ.Mul(equ.Param[T]("d"), equ.Var[T]("v")),
				)),
				equ.Param[T]("m"),
			),
			equ.UnitConst[T](0, "m/s^2"),
		),
		equ.Param[T]("g"),
	))
	return d, []float64{1, 0}
}
