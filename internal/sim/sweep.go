package sim

import (
	"context"
	"sync"

	"github.com/modiasim/tinymodia/internal/model"
	"github.com/modiasim/tinymodia/internal/num"
)

// Variant is one parameter override set in a sweep.
type Variant struct {
	Label  string
	Params map[string]float64
}

// SweepRun is the result of one variant: its own model instance (a
// model is single-threaded, so every variant gets a fresh one) and
// the run outcome.
type SweepRun[T num.Scalar[T]] struct {
	Label   string
	Model   *model.SimulationModel[T]
	Outcome *Outcome
	Err     error
}

// Sweep runs every variant concurrently. Failures are reported per
// variant rather than aborting the whole sweep.
func Sweep[T num.Scalar[T]](ctx context.Context, build func(params map[string]float64) (*model.SimulationModel[T], error), variants []Variant, opts Options) []SweepRun[T] {
	runs := make([]SweepRun[T], len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v Variant) {
			defer wg.Done()
			runs[i].Label = v.Label
			m, err := build(v.Params)
			if err != nil {
				runs[i].Err = err
				return
			}
			runs[i].Model = m
			runs[i].Outcome, runs[i].Err = Run(ctx, m, opts)
		}(i, v)
	}
	wg.Wait()
	return runs
}
