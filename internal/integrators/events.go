package integrators

import (
	"math"

	"github.com/modiasim/tinymodia/internal/equ"
)

// eventWindow tracks crossing residuals across accepted steps. The
// residual at the left end of the current step is kept so that a sign
// change against the trial endpoint marks a crossing inside the step.
type eventWindow struct {
	ev   *EventConfig
	step stepper
	r0   []float64
}

func newEventWindow(ev *EventConfig, step stepper, t float64, x []float64) (*eventWindow, error) {
	if ev == nil {
		return nil, nil
	}
	res, err := ev.Residuals(t, x)
	if err != nil {
		return nil, err
	}
	return &eventWindow{ev: ev, step: step, r0: append([]float64(nil), res...)}, nil
}

// apply checks the trial step (t, x) -> (tNext, xNew) for crossings.
// Without one it rolls the residual window forward and returns tNext
// unchanged. With one it bisects the earliest crossing, rewrites xNew
// to the event state, runs the handler (which may adjust the state in
// place, e.g. a bounce impulse), and returns the event time; the
// caller then accepts the shortened step as usual.
func (w *eventWindow) apply(t float64, x []float64, tNext float64, xNew []float64, stats *Stats) (float64, error) {
	res, err := w.ev.Residuals(tNext, xNew)
	if err != nil {
		return 0, err
	}
	r1 := append([]float64(nil), res...)

	sig := -1
	te := math.Inf(1)
	var xe []float64
	for s, dir := range w.ev.Dirs {
		if !crossed(dir, w.r0[s], r1[s]) {
			continue
		}
		ts, xs, err := w.bisect(s, dir, t, x, w.r0[s], tNext)
		if err != nil {
			return 0, err
		}
		if ts < te {
			te, xe, sig = ts, xs, s
		}
	}

	if sig < 0 {
		w.r0 = append(w.r0[:0], r1...)
		return tNext, nil
	}

	copy(xNew, xe)
	stats.Events++
	if w.ev.OnEvent != nil {
		if err := w.ev.OnEvent(te, xNew, sig); err != nil {
			return 0, err
		}
	}
	// Re-probe after the handler: the residual sign at the event
	// state is what guards against an immediate re-trigger.
	res, err = w.ev.Residuals(te, xNew)
	if err != nil {
		return 0, err
	}
	w.r0 = append(w.r0[:0], res...)
	return te, nil
}

// bisect narrows the crossing of one signal inside (t0, t1] by
// repeated substeps from the left endpoint.
func (w *eventWindow) bisect(s int, dir equ.Direction, t0 float64, x0 []float64, r0 float64, t1 float64) (float64, []float64, error) {
	lo, hi := t0, t1
	rlo := r0
	xm := make([]float64, len(x0))
	tol := 1e-10 * math.Max(1, math.Abs(t1))

	for i := 0; i < 80 && hi-lo > tol; i++ {
		mid := lo + 0.5*(hi-lo)
		if err := w.step(t0, x0, mid-t0, xm); err != nil {
			return 0, nil, err
		}
		res, err := w.ev.Residuals(mid, xm)
		if err != nil {
			return 0, nil, err
		}
		if crossed(dir, rlo, res[s]) {
			hi = mid
		} else {
			lo, rlo = mid, res[s]
		}
	}

	xe := make([]float64, len(x0))
	if err := w.step(t0, x0, hi-t0, xe); err != nil {
		return 0, nil, err
	}
	return hi, xe, nil
}

// crossed tests a sign change against the trigger direction. The left
// side is strict, so a residual sitting exactly on zero after an event
// cannot fire again until it leaves zero first.
func crossed(dir equ.Direction, r0, r1 float64) bool {
	switch dir {
	case equ.Rising:
		return r0 < 0 && r1 >= 0
	case equ.Falling:
		return r0 > 0 && r1 <= 0
	default:
		return (r0 < 0 && r1 >= 0) || (r0 > 0 && r1 <= 0)
	}
}
