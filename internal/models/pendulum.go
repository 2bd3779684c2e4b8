package models

import (
	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/num"
)

// Pendulum is the damped planar pendulum,
// der(w) = -(g/L)*sin(phi) - d*w.
func Pendulum[T num.Scalar[T]]() (*equ.Definition[T], []float64) {
	d := equ.NewDefinition[T]("pendulum")
	d.State("phi", "der(phi)", "rad", 1)
	d.State("w", "der(w)", "rad/s", 1)
	d.Param("L", "m", 2.0)
	d.Param("g", "m/s^2", 9.81)
	d.UncertainParam("d", "1/s", 0.2, 0.02)
	d.Observe("phi", "w", "der(phi)", "der(w)")

	d.Let("der(phi)", equ.Var[T]("w"))
	d.Let("der(w)", equ.Sub(
		equ.Neg(equ.Mul(
			equ.Div(equ.Param[T]("g"), equ.Param[T]("L")),
			equ.Sin(equ.Var[T]("phi")),
		)),
		equ.Mul(equ.Param[T]("d"), equ.Var[T]("w")),
	))
	return d, []float64{0.5, 0}
}
