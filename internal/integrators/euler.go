package integrators

import "context"

// Euler is the first-order fixed-step method. It is the baseline the
// higher-order methods are measured against; production runs should
// prefer rk4 or rk45.
type Euler struct{}

func (Euler) Name() string { return "euler" }

func (Euler) Integrate(ctx context.Context, f RHS, x []float64, t0, t1 float64, cfg Config) (Stats, error) {
	dx := make([]float64, len(x))
	step := func(t float64, x0 []float64, dt float64, out []float64) error {
		if err := f(t, x0, dx); err != nil {
			return err
		}
		for i := range x0 {
			out[i] = x0[i] + dt*dx[i]
		}
		return nil
	}
	return runFixed(ctx, step, x, t0, t1, cfg)
}
