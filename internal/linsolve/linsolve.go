// Package linsolve solves the small dense linear blocks a reduced
// equation set contains. The blocks must be solvable over every
// scalar representation the evaluator runs on (duals propagate
// Jacobian information straight through the solve), so the in-plan
// solver is generic elimination; gonum handles the float64-only
// matrix surfaces elsewhere in the module.
package linsolve

import (
	"fmt"
	"math"

	"github.com/modiasim/tinymodia/internal/num"
)

// SingularSystemError reports a linear block with no unique solution
// at the current state. It is fatal to the evaluation that produced
// it; the integrator decides what happens next.
type SingularSystemError struct {
	Size  int
	Pivot float64
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("linsolve: singular %dx%d system (pivot %.3e)", e.Size, e.Size, e.Pivot)
}

const pivotTol = 1e-13

// Solve performs in-place Gaussian elimination with partial pivoting
// on a and b, writing the solution into x. a and b are scratch owned
// by the caller and are destroyed.
func Solve[T num.Scalar[T]](a [][]T, b []T, x []T) error {
	n := len(b)
	scale := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := math.Abs(a[i][j].Value()); v > scale {
				scale = v
			}
		}
	}
	if scale == 0 {
		scale = 1
	}

	for col := 0; col < n; col++ {
		// partial pivot on the real magnitude
		pivot := col
		best := math.Abs(a[col][col].Value())
		for r := col + 1; r < n; r++ {
			if v := math.Abs(a[r][col].Value()); v > best {
				best, pivot = v, r
			}
		}
		if best < pivotTol*scale {
			return &SingularSystemError{Size: n, Pivot: best}
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
			b[col], b[pivot] = b[pivot], b[col]
		}

		for r := col + 1; r < n; r++ {
			f := a[r][col].Div(a[col][col])
			for c := col; c < n; c++ {
				a[r][c] = a[r][c].Sub(f.Mul(a[col][c]))
			}
			b[r] = b[r].Sub(f.Mul(b[col]))
		}
	}

	for i := n - 1; i >= 0; i-- {
		acc := b[i]
		for j := i + 1; j < n; j++ {
			acc = acc.Sub(a[i][j].Mul(x[j]))
		}
		x[i] = acc.Div(a[i][i])
	}
	return nil
}
