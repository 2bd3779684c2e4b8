package integrators

import (
	"context"
	"fmt"
	"math"
)

// stepper advances from (t0, x0) by dt into out. Event bisection uses
// it to re-evaluate candidate states inside an accepted step.
type stepper func(t0 float64, x0 []float64, dt float64, out []float64) error

// runFixed is the shared fixed-step driver behind Euler and RK4.
func runFixed(ctx context.Context, step stepper, x []float64, t0, t1 float64, cfg Config) (Stats, error) {
	var stats Stats
	if cfg.Dt <= 0 {
		return stats, fmt.Errorf("integrators: step size must be positive, got %g", cfg.Dt)
	}

	w, err := newEventWindow(cfg.Events, step, t0, x)
	if err != nil {
		return stats, err
	}

	out := make([]float64, len(x))
	t := t0
	for t < t1-timeEps {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		dt := math.Min(cfg.Dt, t1-t)
		if err := step(t, x, dt, out); err != nil {
			return stats, err
		}
		tNext := t + dt

		if w != nil {
			tNext, err = w.apply(t, x, tNext, out, &stats)
			if err != nil {
				return stats, err
			}
		}

		copy(x, out)
		t = tNext
		stats.Steps++
		stats.LastDt = dt
		if cfg.OnAccept != nil {
			if err := cfg.OnAccept(t, x); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}
