// Package model holds the mutable simulation runtime: the flat state
// and derivative vectors, the compiled evaluation plan, result
// recording and event bookkeeping. One model supports at most one
// in-flight evaluator call; concurrent simulations need independent
// model instances.
package model

import (
	"fmt"
	"strings"

	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/num"
)

// Mode tells one evaluator invocation what it is for. Passing the
// mode explicitly keeps the single-call-at-a-time contract visible at
// every call site instead of hiding it in toggled flags.
type Mode int

const (
	// ModeNormal is a plain derivative evaluation (integrator
	// steps, trial or accepted, and linearization probes).
	ModeNormal Mode = iota
	// ModeInitial is the one evaluation Init performs: it primes
	// linear subsystems and event residuals and records the
	// initial outputs.
	ModeInitial
	// ModeRecord marks an accepted communication point whose
	// outputs are appended to the results.
	ModeRecord
)

// SimulationModel owns the numeric state of one simulation run.
type SimulationModel[T num.Scalar[T]] struct {
	Name string
	// Algorithm is the integrator tag, metadata for reporting.
	Algorithm string

	plan   *equ.Plan[T]
	env    *equ.Env[T]
	events *equ.Monitor

	paramValues []float64
	paramIndex  map[string]int

	x0         []float64
	x          []float64
	derX       []float64
	scratchDer []float64

	recordNames []string
	resultIndex map[string]int // 1-based record column, sign = alias flip, 0 = structurally zero
	results     [][]T

	nGetDerivatives int
	seed            int
	startTime       float64
	current         float64
	initialized     bool
}

// New compiles the definition and builds the runtime for it. The
// definition is owned by the model afterwards (state offsets are
// assigned in place). The initial-state vector must match the summed
// descriptor lengths exactly.
func New[T num.Scalar[T]](def *equ.Definition[T], x0 []float64, params map[string]float64) (*SimulationModel[T], error) {
	plan, err := equ.Compile(def)
	if err != nil {
		return nil, &ConfigurationError{Model: def.Name, Reason: err.Error()}
	}

	if len(x0) != plan.NX {
		return nil, &ConfigurationError{
			Model:  def.Name,
			Reason: initialConditionMismatch(def, plan.NX, len(x0)),
		}
	}

	m := &SimulationModel[T]{
		Name:        def.Name,
		plan:        plan,
		events:      equ.NewMonitor(def.Signals),
		paramValues: make([]float64, len(def.Params)),
		paramIndex:  make(map[string]int, len(def.Params)),
		x0:          append([]float64(nil), x0...),
		x:           append([]float64(nil), x0...),
		derX:        make([]float64, plan.NX),
		scratchDer:  make([]float64, plan.NX),
		seed:        -1,
	}

	for i, ps := range def.Params {
		m.paramValues[i] = ps.Default
		m.paramIndex[ps.Name] = i
	}
	for name, v := range params {
		i, ok := m.paramIndex[name]
		if !ok {
			return nil, &ConfigurationError{Model: def.Name, Reason: fmt.Sprintf("unknown parameter %q", name)}
		}
		m.paramValues[i] = v
	}

	m.env = plan.NewEnv(m.events)
	plan.LiftParams(m.env, m.paramValues)

	if err := m.buildResultIndex(def); err != nil {
		return nil, err
	}
	return m, nil
}

func initialConditionMismatch[T num.Scalar[T]](def *equ.Definition[T], nx, got int) string {
	if got < nx {
		var missing []string
		for _, sv := range def.States {
			if sv.Name != "" && sv.Start+sv.Length > got {
				missing = append(missing, sv.Name)
			}
		}
		return fmt.Sprintf("too few initial conditions: got %d, need %d (unspecified: %s)",
			got, nx, strings.Join(missing, ", "))
	}
	return fmt.Sprintf("too many initial conditions: got %d, need %d (%d extra values)", got, nx, got-nx)
}

func (m *SimulationModel[T]) buildResultIndex(def *equ.Definition[T]) error {
	m.resultIndex = make(map[string]int)
	m.recordNames = []string{"time"}

	width := make(map[string]int)
	for _, sv := range def.States {
		if sv.Name == "" {
			continue
		}
		width[sv.Name] = sv.Length
		width[sv.Der] = sv.Length
	}

	col := 1
	for _, name := range def.Variables[1:] {
		w := width[name]
		if w == 0 {
			w = 1
		}
		if w == 1 {
			m.recordNames = append(m.recordNames, name)
			m.resultIndex[name] = col
			col++
			continue
		}
		for k := 0; k < w; k++ {
			elem := fmt.Sprintf("%s[%d]", name, k)
			m.recordNames = append(m.recordNames, elem)
			m.resultIndex[elem] = col
			col++
		}
	}
	m.resultIndex["time"] = 0

	for _, a := range def.Aliases {
		switch a.Kind {
		case equ.AliasZero:
			m.resultIndex[a.Name] = 0
		default:
			idx, ok := m.resultIndex[a.Target]
			if !ok || idx == 0 {
				return &ConfigurationError{Model: def.Name,
					Reason: fmt.Sprintf("alias %q targets unknown variable %q", a.Name, a.Target)}
			}
			if a.Kind == equ.AliasNeg {
				idx = -idx
			}
			m.resultIndex[a.Name] = idx
		}
	}
	return nil
}

// Evaluate runs the compiled plan once: unpack x, execute the
// equation steps in order, pack der_x. The call counter increments
// unconditionally, rejected trial steps included. Modes other than
// ModeNormal also append one result record.
func (m *SimulationModel[T]) Evaluate(derX, x []float64, t float64, mode Mode) (err error) {
	m.nGetDerivatives++
	defer func() {
		if r := recover(); r != nil {
			ne, ok := r.(*num.Error)
			if !ok {
				panic(r)
			}
			err = &EvaluationError{Model: m.Name, Time: t, Err: ne}
		}
	}()

	m.plan.Unpack(m.env, x, t, m.seed)
	if runErr := m.plan.Run(m.env); runErr != nil {
		return &EvaluationError{Model: m.Name, Time: t, Err: runErr}
	}
	m.plan.Pack(m.env, derX, x)

	if mode != ModeNormal {
		m.appendResult(m.plan.Record(m.env))
	}
	return nil
}

// Probe is Evaluate with the forward-mode channel of one state
// dimension seeded to one; used by analytic linearization. seed < 0
// degenerates to a plain evaluation.
func (m *SimulationModel[T]) Probe(derX, x []float64, t float64, seed int) error {
	m.seed = seed
	defer func() { m.seed = -1 }()
	return m.Evaluate(derX, x, t, ModeNormal)
}

// ProbeColumn evaluates at (t, x) with the forward channel of state j
// seeded to one and writes the secondary channel of the derivatives,
// d(der_x)/dx_j for a forward-mode representation, into col.
func (m *SimulationModel[T]) ProbeColumn(col, x []float64, t float64, j int) error {
	if err := m.Probe(m.scratchDer, x, t, j); err != nil {
		return err
	}
	m.plan.PackAux(m.env, col, j)
	return nil
}

// Init clears any previous results and performs the single priming
// evaluation at startTime. It must run before the first integrator
// step; re-running it resets the model for a fresh run.
func (m *SimulationModel[T]) Init(startTime float64) error {
	m.results = m.results[:0]
	m.events.Reset()
	copy(m.x, m.x0)
	if err := m.Evaluate(m.derX, m.x, startTime, ModeInitial); err != nil {
		return err
	}
	m.startTime = startTime
	m.current = startTime
	m.initialized = true
	return nil
}

// RecordStep adopts the accepted state at a communication point and
// appends one result record. Never called for rejected trial steps.
func (m *SimulationModel[T]) RecordStep(x []float64, t float64) error {
	copy(m.x, x)
	m.current = t
	return m.Evaluate(m.derX, m.x, t, ModeRecord)
}

// CrossingResiduals evaluates at (t, x) and returns the crossing
// residual vector, for the integrator's root finder. The returned
// slice is reused by the next evaluation.
func (m *SimulationModel[T]) CrossingResiduals(t float64, x []float64) ([]float64, error) {
	if err := m.Evaluate(m.scratchDer, x, t, ModeNormal); err != nil {
		return nil, err
	}
	return m.events.Residuals(), nil
}

func (m *SimulationModel[T]) appendResult(rec []T) {
	m.results = append(m.results, rec)
}

// State returns the model's current state vector, owned by the model.
func (m *SimulationModel[T]) State() []float64 { return m.x }

// NX is the flat state-vector length.
func (m *SimulationModel[T]) NX() int { return m.plan.NX }

// StateNames lists the flat state slots in offset order, vector
// states element by element.
func (m *SimulationModel[T]) StateNames() []string {
	names := make([]string, 0, m.plan.NX)
	for _, sv := range m.plan.Def.States {
		if sv.Name == "" {
			names = append(names, "")
			continue
		}
		if sv.Length == 1 {
			names = append(names, sv.Name)
			continue
		}
		for k := 0; k < sv.Length; k++ {
			names = append(names, fmt.Sprintf("%s[%d]", sv.Name, k))
		}
	}
	return names
}

// NGetDerivatives is the evaluator call counter: one per invocation,
// trial steps and probes included.
func (m *SimulationModel[T]) NGetDerivatives() int { return m.nGetDerivatives }

// Representation names the scalar representation in use.
func (m *SimulationModel[T]) Representation() string {
	var zero T
	return zero.Repr()
}

// Signals exposes the registered crossing specs.
func (m *SimulationModel[T]) Signals() []equ.SignalSpec { return m.plan.Def.Signals }

// CurrentTime is the time of the last Init or RecordStep.
func (m *SimulationModel[T]) CurrentTime() float64 { return m.current }

// StartTime is the time passed to the last Init.
func (m *SimulationModel[T]) StartTime() float64 { return m.startTime }

// Initialized reports whether Init has run.
func (m *SimulationModel[T]) Initialized() bool { return m.initialized }

// Parameter returns the resolved value of a named parameter.
func (m *SimulationModel[T]) Parameter(name string) (float64, bool) {
	i, ok := m.paramIndex[name]
	if !ok {
		return 0, false
	}
	return m.paramValues[i], true
}
