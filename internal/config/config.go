// Package config reads and writes simulation scenarios: which model to
// run, over which representation, with which integrator policy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modiasim/tinymodia/internal/sim"
)

const (
	DefaultInterval  = 0.01
	DefaultDuration  = 10.0
	DefaultTolerance = 1e-6
)

// Representations lists the scalar representations a scenario may
// select. "units" checks dimensions on every operation, "dual" carries
// forward-mode derivatives, "uncertain" propagates parameter spread.
func Representations() []string {
	return []string{"real", "units", "dual", "uncertain"}
}

type Scenario struct {
	Model          string             `yaml:"model"`
	Integrator     string             `yaml:"integrator"`
	Representation string             `yaml:"representation"`
	StartTime      float64            `yaml:"start_time"`
	Duration       float64            `yaml:"duration"`
	Interval       float64            `yaml:"interval"`
	Tolerance      float64            `yaml:"tolerance"`
	MinStep        float64            `yaml:"min_step,omitempty"`
	MaxStep        float64            `yaml:"max_step,omitempty"`
	InitState      []float64          `yaml:"init_state,omitempty"`
	Parameters     map[string]float64 `yaml:"parameters,omitempty"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Model:          "pendulum",
		Integrator:     "rk45",
		Representation: "real",
		Duration:       DefaultDuration,
		Interval:       DefaultInterval,
		Tolerance:      DefaultTolerance,
	}
}

// Options translates the scenario's time and stepping fields into run
// options.
func (s *Scenario) Options() sim.Options {
	return sim.Options{
		StartTime: s.StartTime,
		StopTime:  s.StartTime + s.Duration,
		Interval:  s.Interval,
		Tolerance: s.Tolerance,
		MinDt:     s.MinStep,
		MaxDt:     s.MaxStep,
		Method:    s.Integrator,
	}
}

// Validate checks the fields the run driver does not see.
func (s *Scenario) Validate() error {
	for _, r := range Representations() {
		if s.Representation == r {
			return nil
		}
	}
	return fmt.Errorf("config: unknown representation %q", s.Representation)
}

// Load reads a scenario file; missing fields keep their defaults.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultScenario()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
