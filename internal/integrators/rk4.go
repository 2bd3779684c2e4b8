package integrators

import "context"

// RK4 is the classic fourth-order fixed-step method.
type RK4 struct{}

func (RK4) Name() string { return "rk4" }

func (RK4) Integrate(ctx context.Context, f RHS, x []float64, t0, t1 float64, cfg Config) (Stats, error) {
	return runFixed(ctx, rk4Stepper(f, len(x)), x, t0, t1, cfg)
}

// rk4Stepper builds a single-step closure over shared scratch. The
// adaptive driver reuses it for the substeps taken during event
// bisection.
func rk4Stepper(f RHS, n int) stepper {
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	stage := make([]float64, n)

	return func(t float64, x0 []float64, dt float64, out []float64) error {
		if err := f(t, x0, k1); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			stage[i] = x0[i] + dt*0.5*k1[i]
		}
		if err := f(t+dt*0.5, stage, k2); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			stage[i] = x0[i] + dt*0.5*k2[i]
		}
		if err := f(t+dt*0.5, stage, k3); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			stage[i] = x0[i] + dt*k3[i]
		}
		if err := f(t+dt, stage, k4); err != nil {
			return err
		}

		dt6 := dt / 6.0
		for i := 0; i < n; i++ {
			out[i] = x0[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
		}
		return nil
	}
}
