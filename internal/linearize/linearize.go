// Package linearize extracts the state-space matrix A = df/dx of a
// model around its current operating point, either exactly through
// forward-mode probing or approximately through finite differences.
package linearize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/modiasim/tinymodia/internal/model"
	"github.com/modiasim/tinymodia/internal/num"
)

// LinearizationError reports a linearization that cannot be carried
// out: the model is not positioned at the requested time, or an
// evaluator call failed during probing.
type LinearizationError struct {
	Model  string
	Reason string
	Err    error
}

func (e *LinearizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("linearize %s: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("linearize %s: %s", e.Model, e.Reason)
}

func (e *LinearizationError) Unwrap() error { return e.Err }

// relative central-difference step, cbrt(machine epsilon)
const fdStep = 6.055454452393343e-6

// Analytic computes the exact Jacobian at the model's current state by
// seeding the dual channel of one state dimension per evaluator call.
// The concrete representation makes the requirement visible at the
// call site: only dual numbers carry derivatives through the equation
// steps and the linear subsystem solves.
func Analytic(m *model.SimulationModel[num.Dual], t float64) (*mat.Dense, error) {
	if err := positioned(m.Name, m.Initialized(), m.CurrentTime(), t); err != nil {
		return nil, err
	}

	n := m.NX()
	x := append([]float64(nil), m.State()...)
	col := make([]float64, n)
	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		if err := m.ProbeColumn(col, x, t, j); err != nil {
			return nil, &LinearizationError{Model: m.Name, Reason: "derivative probe failed", Err: err}
		}
		a.SetCol(j, col)
	}
	return a, nil
}

// Numeric approximates the Jacobian at the model's current state with
// central differences, two evaluator calls per state dimension. It
// works for every representation but inherits finite-difference error.
func Numeric[T num.Scalar[T]](m *model.SimulationModel[T], t float64) (*mat.Dense, error) {
	if err := positioned(m.Name, m.Initialized(), m.CurrentTime(), t); err != nil {
		return nil, err
	}

	n := m.NX()
	x := append([]float64(nil), m.State()...)
	fp := make([]float64, n)
	fm := make([]float64, n)
	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		h := fdStep * math.Max(1, math.Abs(x[j]))
		xj := x[j]

		x[j] = xj + h
		if err := m.Evaluate(fp, x, t, model.ModeNormal); err != nil {
			return nil, &LinearizationError{Model: m.Name, Reason: "derivative evaluation failed", Err: err}
		}
		x[j] = xj - h
		if err := m.Evaluate(fm, x, t, model.ModeNormal); err != nil {
			return nil, &LinearizationError{Model: m.Name, Reason: "derivative evaluation failed", Err: err}
		}
		x[j] = xj

		inv := 1 / (2 * h)
		for i := 0; i < n; i++ {
			a.Set(i, j, (fp[i]-fm[i])*inv)
		}
	}
	return a, nil
}

// Eigenvalues factorizes A for stability reporting.
func Eigenvalues(a *mat.Dense) ([]complex128, error) {
	var eig mat.Eigen
	if !eig.Factorize(a, mat.EigenNone) {
		return nil, fmt.Errorf("linearize: eigenvalue factorization failed")
	}
	return eig.Values(nil), nil
}

func positioned(name string, initialized bool, current, want float64) error {
	if !initialized {
		return &LinearizationError{Model: name, Reason: "model is not initialized"}
	}
	if math.Abs(current-want) > 1e-12*math.Max(1, math.Abs(want)) {
		return &LinearizationError{
			Model:  name,
			Reason: fmt.Sprintf("model is positioned at t=%g, not at requested t=%g; simulate to that time first", current, want),
		}
	}
	return nil
}
