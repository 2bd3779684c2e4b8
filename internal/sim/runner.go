// Package sim drives a compiled model through an integrator: option
// validation, model initialization, communication-point recording and
// event bookkeeping for one run.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/integrators"
	"github.com/modiasim/tinymodia/internal/model"
	"github.com/modiasim/tinymodia/internal/num"
)

// Options selects the time window and integrator policy of one run.
type Options struct {
	StartTime float64
	StopTime  float64
	// Interval is the fixed step of euler/rk4 and the initial step
	// of rk45; every accepted step ends in a recorded point.
	Interval  float64
	Tolerance float64
	MinDt     float64
	MaxDt     float64
	Method    string
}

// Event is one localized zero crossing.
type Event struct {
	Time   float64
	Label  string
	Signal int
}

// Outcome summarizes a finished run. The trajectory itself lives in
// the model's result store.
type Outcome struct {
	Stats     integrators.Stats
	Events    []Event
	FinalTime float64
	Elapsed   time.Duration
}

// Run initializes the model at StartTime and integrates to StopTime,
// recording a result tuple at every accepted communication point.
func Run[T num.Scalar[T]](ctx context.Context, m *model.SimulationModel[T], opts Options) (*Outcome, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}
	integ, err := integrators.New(opts.Method)
	if err != nil {
		return nil, err
	}
	if err := m.Init(opts.StartTime); err != nil {
		return nil, err
	}
	m.Algorithm = integ.Name()

	f := func(t float64, x, dx []float64) error {
		return m.Evaluate(dx, x, t, model.ModeNormal)
	}
	cfg := integrators.Config{
		Dt:    opts.Interval,
		MinDt: opts.MinDt,
		MaxDt: opts.MaxDt,
		Tol:   opts.Tolerance,
		OnAccept: func(t float64, x []float64) error {
			return m.RecordStep(x, t)
		},
	}

	out := &Outcome{}
	if sigs := m.Signals(); len(sigs) > 0 {
		dirs := make([]equ.Direction, len(sigs))
		for i, s := range sigs {
			dirs[i] = s.Dir
		}
		cfg.Events = &integrators.EventConfig{
			Residuals: m.CrossingResiduals,
			Dirs:      dirs,
			OnEvent: func(t float64, x []float64, sig int) error {
				out.Events = append(out.Events, Event{Time: t, Label: sigs[sig].Label, Signal: sig})
				return nil
			},
		}
	}

	x := append([]float64(nil), m.State()...)
	started := time.Now()
	out.Stats, err = integ.Integrate(ctx, f, x, opts.StartTime, opts.StopTime, cfg)
	out.Elapsed = time.Since(started)
	out.FinalTime = m.CurrentTime()
	if err != nil {
		return out, err
	}
	return out, nil
}

func validate(opts Options) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("sim: interval must be positive, got %g", opts.Interval)
	}
	if opts.StopTime <= opts.StartTime {
		return fmt.Errorf("sim: stop time %g must be after start time %g", opts.StopTime, opts.StartTime)
	}
	if opts.Tolerance < 0 {
		return fmt.Errorf("sim: tolerance must not be negative, got %g", opts.Tolerance)
	}
	if opts.MinDt < 0 || opts.MaxDt < 0 {
		return fmt.Errorf("sim: step bounds must not be negative")
	}
	if opts.MinDt > 0 && opts.MaxDt > 0 && opts.MinDt > opts.MaxDt {
		return fmt.Errorf("sim: min step %g exceeds max step %g", opts.MinDt, opts.MaxDt)
	}
	return nil
}
