package model

import "fmt"

// ConfigurationError reports a model that cannot be constructed or
// initialized: mismatched state-vector length, wrong count of initial
// conditions, unknown parameter names. It aborts the run before any
// time stepping.
type ConfigurationError struct {
	Model  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model %s: configuration: %s", e.Model, e.Reason)
}

// EvaluationError reports a failed evaluator call: a domain error in
// an equation step or a singular linear subsystem. It is fatal to the
// call and propagates to the integrator unchanged; retrying is the
// integrator's decision, never the model's.
type EvaluationError struct {
	Model string
	Time  float64
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("model %s: evaluation at t=%g: %v", e.Model, e.Time, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
