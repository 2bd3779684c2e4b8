package integrators

import (
	"context"
	"fmt"
	"math"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the adaptive Dormand-Prince pair. Trial steps whose local
// error exceeds the tolerance are rejected and retried with a smaller
// step; only accepted steps reach the callbacks.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

func (r *RK45) Integrate(ctx context.Context, f RHS, x []float64, t0, t1 float64, cfg Config) (Stats, error) {
	var stats Stats
	if cfg.Dt <= 0 {
		return stats, fmt.Errorf("integrators: step size must be positive, got %g", cfg.Dt)
	}
	tol := cfg.Tol
	if tol <= 0 {
		tol = 1e-6
	}
	minDt := cfg.MinDt
	if minDt <= 0 {
		minDt = 1e-9
	}
	maxDt := cfg.MaxDt
	if maxDt <= 0 {
		maxDt = t1 - t0
	}

	n := len(x)
	st := &rk45Scratch{
		k1: make([]float64, n), k2: make([]float64, n), k3: make([]float64, n),
		k4: make([]float64, n), k5: make([]float64, n), k6: make([]float64, n),
		k7: make([]float64, n), stage: make([]float64, n), xNew: make([]float64, n),
	}

	// Event substeps use a classic RK4 step over the same RHS; its
	// local error within one accepted step is below the pair's own.
	sub := rk4Stepper(f, n)
	w, err := newEventWindow(cfg.Events, sub, t0, x)
	if err != nil {
		return stats, err
	}

	t := t0
	dt := math.Min(math.Max(cfg.Dt, minDt), maxDt)
	for t < t1-timeEps {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		dt = math.Min(dt, t1-t)
		errRatio, err := r.trial(f, t, x, dt, tol, st)
		if err != nil {
			return stats, err
		}
		if errRatio > 1 && dt > minDt+timeEps {
			stats.Rejected++
			dt = math.Max(minDt, dt*math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25)))
			continue
		}

		tNext := t + dt
		if w != nil {
			tNext, err = w.apply(t, x, tNext, st.xNew, &stats)
			if err != nil {
				return stats, err
			}
		}

		copy(x, st.xNew)
		stats.Steps++
		stats.LastDt = tNext - t
		t = tNext
		if cfg.OnAccept != nil {
			if err := cfg.OnAccept(t, x); err != nil {
				return stats, err
			}
		}

		if errRatio > 0 {
			dt *= math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
		} else {
			dt *= r.maxScale
		}
		dt = math.Min(math.Max(dt, minDt), maxDt)
	}
	return stats, nil
}

type rk45Scratch struct {
	k1, k2, k3, k4, k5, k6, k7 []float64
	stage, xNew                []float64
}

// trial takes one Dormand-Prince step into st.xNew and returns the
// local error estimate relative to tol.
func (r *RK45) trial(f RHS, t float64, x []float64, dt, tol float64, st *rk45Scratch) (float64, error) {
	n := len(x)

	if err := f(t, x, st.k1); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		st.stage[i] = x[i] + dt*b21*st.k1[i]
	}
	if err := f(t+a2*dt, st.stage, st.k2); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		st.stage[i] = x[i] + dt*(b31*st.k1[i]+b32*st.k2[i])
	}
	if err := f(t+a3*dt, st.stage, st.k3); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		st.stage[i] = x[i] + dt*(b41*st.k1[i]+b42*st.k2[i]+b43*st.k3[i])
	}
	if err := f(t+a4*dt, st.stage, st.k4); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		st.stage[i] = x[i] + dt*(b51*st.k1[i]+b52*st.k2[i]+b53*st.k3[i]+b54*st.k4[i])
	}
	if err := f(t+a5*dt, st.stage, st.k5); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		st.stage[i] = x[i] + dt*(b61*st.k1[i]+b62*st.k2[i]+b63*st.k3[i]+b64*st.k4[i]+b65*st.k5[i])
	}
	if err := f(t+dt, st.stage, st.k6); err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		st.xNew[i] = x[i] + dt*(c1*st.k1[i]+c3*st.k3[i]+c4*st.k4[i]+c5*st.k5[i]+c6*st.k6[i])
	}
	if err := f(t+dt, st.xNew, st.k7); err != nil {
		return 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*st.k1[i] + dc3*st.k3[i] + dc4*st.k4[i] + dc5*st.k5[i] + dc6*st.k6[i] + dc7*st.k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*st.k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	return errMax / tol, nil
}
