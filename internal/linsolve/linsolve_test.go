package linsolve

import (
	"errors"
	"math"
	"testing"

	"github.com/modiasim/tinymodia/internal/num"
)

func realMat(rows [][]float64) [][]num.Real {
	m := make([][]num.Real, len(rows))
	for i, r := range rows {
		m[i] = make([]num.Real, len(r))
		for j, v := range r {
			m[i][j] = num.Real(v)
		}
	}
	return m
}

func realVec(vals []float64) []num.Real {
	v := make([]num.Real, len(vals))
	for i, x := range vals {
		v[i] = num.Real(x)
	}
	return v
}

func TestSolveReal(t *testing.T) {
	// [2 1; 1 3] x = [5; 10] -> x = [1; 3]
	a := realMat([][]float64{{2, 1}, {1, 3}})
	b := realVec([]float64{5, 10})
	x := make([]num.Real, 2)

	if err := Solve(a, b, x); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(float64(x[0])-1) > 1e-12 || math.Abs(float64(x[1])-3) > 1e-12 {
		t.Errorf("x = %v, want [1 3]", x)
	}
}

func TestSolveNeedsPivoting(t *testing.T) {
	// zero on the diagonal forces a row swap
	a := realMat([][]float64{{0, 1}, {1, 0}})
	b := realVec([]float64{2, 3})
	x := make([]num.Real, 2)

	if err := Solve(a, b, x); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if float64(x[0]) != 3 || float64(x[1]) != 2 {
		t.Errorf("x = %v, want [3 2]", x)
	}
}

func TestSolveSingular(t *testing.T) {
	a := realMat([][]float64{{1, 2}, {2, 4}})
	b := realVec([]float64{1, 2})
	x := make([]num.Real, 2)

	err := Solve(a, b, x)
	if err == nil {
		t.Fatal("expected singular system error")
	}
	var sing *SingularSystemError
	if !errors.As(err, &sing) {
		t.Fatalf("expected *SingularSystemError, got %T", err)
	}
	if sing.Size != 2 {
		t.Errorf("size = %d, want 2", sing.Size)
	}
}

func TestSolveDualPropagatesDerivatives(t *testing.T) {
	// a*x = b with a = 2 (constant), b = y where dy/dy = 1.
	// Then x = y/2 and dx/dy must be 0.5.
	a := [][]num.Dual{{{Re: 2}}}
	b := []num.Dual{{Re: 6, Ep: 1}}
	x := make([]num.Dual, 1)

	if err := Solve(a, b, x); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if x[0].Re != 3 || math.Abs(x[0].Ep-0.5) > 1e-15 {
		t.Errorf("x = %+v, want {3 0.5}", x[0])
	}
}
