package config

import "sort"

var Presets = map[string]map[string]*Scenario{
	"geartrain": {
		"reference": {
			Model: "geartrain", Integrator: "rk45", Representation: "real",
			Duration: 4.0, Interval: 0.1, Tolerance: 1e-9,
		},
		"checked": {
			Model: "geartrain", Integrator: "rk45", Representation: "units",
			Duration: 4.0, Interval: 0.1, Tolerance: 1e-9,
		},
		"coast": {
			Model: "geartrain", Integrator: "rk45", Representation: "real",
			Duration: 12.0, Interval: 0.1, Tolerance: 1e-7,
			Parameters: map[string]float64{"tau_brake": 0},
		},
	},
	"bouncer": {
		"drop": {
			Model: "bouncer", Integrator: "rk45", Representation: "real",
			Duration: 2.0, Interval: 0.01, Tolerance: 1e-8,
		},
		"high": {
			Model: "bouncer", Integrator: "rk45", Representation: "real",
			Duration: 5.0, Interval: 0.01, Tolerance: 1e-8,
			InitState: []float64{5, 0},
		},
		"soft": {
			Model: "bouncer", Integrator: "rk45", Representation: "real",
			Duration: 3.0, Interval: 0.01, Tolerance: 1e-8,
			Parameters: map[string]float64{"c": 500, "d": 4},
		},
	},
	"pendulum": {
		"small": {
			Model: "pendulum", Integrator: "rk4", Representation: "real",
			Duration: 20.0, Interval: 0.01,
			InitState: []float64{0.2, 0},
		},
		"large": {
			Model: "pendulum", Integrator: "rk45", Representation: "real",
			Duration: 20.0, Interval: 0.01, Tolerance: 1e-8,
			InitState: []float64{2.5, 0},
		},
		"spread": {
			Model: "pendulum", Integrator: "rk4", Representation: "uncertain",
			Duration: 10.0, Interval: 0.01,
			InitState: []float64{0.5, 0},
		},
	},
}

func GetPreset(model, preset string) *Scenario {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	s, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return s
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
