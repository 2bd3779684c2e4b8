// Package integrators provides the time steppers that drive a
// compiled simulation model. The model side is reduced to three
// callables: the right-hand side, an accepted-step callback for
// communication points, and a crossing-residual probe for event
// localization. Rejected trial steps never reach the callbacks.
package integrators

import (
	"context"
	"fmt"

	"github.com/modiasim/tinymodia/internal/equ"
)

// RHS is the derivative evaluator: fill dx with the state derivative
// at (t, x). Any error aborts the run.
type RHS func(t float64, x, dx []float64) error

// EventConfig wires zero-crossing localization into a run.
type EventConfig struct {
	// Residuals evaluates the model at (t, x) and returns the
	// signed crossing residuals, indexed by signal ID. The slice
	// may be reused by the callee between calls.
	Residuals func(t float64, x []float64) ([]float64, error)
	// Dirs gives each signal's trigger direction.
	Dirs []equ.Direction
	// OnEvent fires once per localized crossing, before the
	// accepted-step callback for the event time.
	OnEvent func(t float64, x []float64, signal int) error
}

// Config carries the step-size and callback policy for one run.
type Config struct {
	Dt    float64 // fixed step, or initial step for adaptive methods
	MinDt float64
	MaxDt float64
	Tol   float64 // local error tolerance for adaptive methods

	// OnAccept fires at every accepted communication point, in
	// strictly increasing time order.
	OnAccept func(t float64, x []float64) error

	Events *EventConfig
}

// Stats summarizes one integration run.
type Stats struct {
	Steps    int
	Rejected int
	Events   int
	LastDt   float64
}

// Integrator advances a state vector from t0 to t1 in place.
type Integrator interface {
	Name() string
	Integrate(ctx context.Context, f RHS, x []float64, t0, t1 float64, cfg Config) (Stats, error)
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	switch name {
	case "euler":
		return Euler{}, nil
	case "rk4":
		return RK4{}, nil
	case "rk45", "":
		return NewRK45(), nil
	default:
		return nil, fmt.Errorf("integrators: unknown method %q", name)
	}
}

// Names lists the registered integrators.
func Names() []string { return []string{"euler", "rk4", "rk45"} }

const timeEps = 1e-12
