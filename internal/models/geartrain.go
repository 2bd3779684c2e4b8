// Package models is the built-in model library: pre-reduced equation
// definitions as the symbolic stage would hand them over, with default
// parameters and initial states.
package models

import (
	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/num"
)

// GearTrain couples a driven shaft to a load inertia through an ideal
// gear. The gear contact torque tg is not explicit, so acceleration
// and contact torque come out of a 2x2 linear subsystem:
//
//	J1*der(w)         + tg = tau(t)
//	(J2/ratio)*der(w) - ratio*tg = 0
//
// The drive torque tau switches from a drive phase to a brake phase at
// t = 2 s. With the defaults the effective inertia is 0.75 kg*m^2, so
// w(4) = 4.8 rad/s and phi(4) = 16 rad.
func GearTrain[T num.Scalar[T]]() (*equ.Definition[T], []float64) {
	d := equ.NewDefinition[T]("geartrain")
	d.State("phi", "der(phi)", "rad", 1)
	d.State("w", "der(w)", "rad/s", 1)
	d.Param("J1", "kg*m^2", 0.5)
	d.Param("J2", "kg*m^2", 1.0)
	d.Param("ratio", "", 2.0)
	d.Param("tau_drive", "N*m", 2.1)
	d.Param("tau_brake", "N*m", -0.3)
	d.Observe("phi", "w", "der(phi)", "der(w)", "tau", "tg")

	// a crossing, not a plain comparison, so the integrator puts a
	// communication point exactly on the switch instant
	brake := d.Crossing(
		equ.Sub(equ.Var[T]("time"), equ.UnitConst[T](2, "s")),
		equ.Rising, "brake",
	)
	d.Let("tau", equ.If(brake,
		equ.Param[T]("tau_brake"),
		equ.Param[T]("tau_drive"),
	))
	d.Let("der(phi)", equ.Var[T]("w"))
	d.Solve(equ.NewLinearBlock(
		[]string{"der(w)", "tg"},
		[][]equ.Expr[T]{
			{equ.Param[T]("J1"), equ.Const[T](1)},
			{equ.Div(equ.Param[T]("J2"), equ.Param[T]("ratio")), equ.Neg(equ.Param[T]("ratio"))},
		},
		[]equ.Expr[T]{equ.Var[T]("tau"), equ.UnitConst[T](0, "N*m")},
	))

	// the torque felt by the load, eliminated by the sorter
	d.AliasVar("tau_load", "tg", true)
	return d, []float64{0, 0}
}
