package models

import (
	"fmt"
	"strings"

	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/num"
)

// Info describes one library model for listings.
type Info struct {
	Name        string
	Description string
	States      int
}

// List enumerates the library in a stable order.
func List() []Info {
	return []Info{
		{"geartrain", "two inertias coupled by an ideal gear, torque switch at t=2s", 2},
		{"bouncer", "point mass bouncing on a compliant floor", 2},
		{"pendulum", "damped planar pendulum", 2},
	}
}

// Names lists the registered model names.
func Names() []string {
	infos := List()
	names := make([]string, len(infos))
	for i, in := range infos {
		names[i] = in.Name
	}
	return names
}

// Build instantiates a library model over the chosen representation
// and returns the definition together with its default initial state.
func Build[T num.Scalar[T]](name string) (*equ.Definition[T], []float64, error) {
	switch name {
	case "geartrain":
		d, x0 := GearTrain[T]()
		return d, x0, nil
	case "bouncer":
		d, x0 := Bouncer[T]()
		return d, x0, nil
	case "pendulum":
		d, x0 := Pendulum[T]()
		return d, x0, nil
	default:
		return nil, nil, fmt.Errorf("models: unknown model %q (have %s)", name, strings.Join(Names(), ", "))
	}
}
