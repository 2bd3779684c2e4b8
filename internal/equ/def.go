package equ

import (
	"fmt"

	"github.com/modiasim/tinymodia/internal/num"
)

// StateVar describes one differential state: its name, the name its
// derivative is published under, an optional unit, the vector length
// and the start offset into the flat state array. Start is assigned
// densely, in declaration order, at model construction.
type StateVar struct {
	Name   string
	Der    string
	Unit   num.Unit
	Length int
	Start  int
}

// AliasKind classifies variables eliminated by the upstream sorter.
type AliasKind int

const (
	// AliasZero marks a variable that is structurally zero.
	AliasZero AliasKind = iota
	// AliasOf marks a variable equal to its target.
	AliasOf
	// AliasNeg marks a variable equal to the negated target.
	AliasNeg
)

// Alias records an eliminated variable. Targets are never themselves
// aliases; the elimination pass guarantees one-hop resolution.
type Alias struct {
	Name   string
	Kind   AliasKind
	Target string
}

// ParamSpec declares a model parameter. Sigma feeds the secondary
// channel of uncertainty-carrying representations and is ignored by
// the others.
type ParamSpec struct {
	Name    string
	Unit    num.Unit
	Default float64
	Sigma   float64
}

// Definition is the pre-sorted, alias-eliminated equation set handed
// over by the symbolic reduction stage, in executable order. It is
// consumed, not validated: solvability is the sorter's problem.
type Definition[T num.Scalar[T]] struct {
	Name      string
	States    []*StateVar
	Params    []ParamSpec
	Variables []string // observable names, time first
	Steps     []Step[T]
	Aliases   []Alias
	Signals   []SignalSpec
}

func NewDefinition[T num.Scalar[T]](name string) *Definition[T] {
	return &Definition[T]{Name: name, Variables: []string{"time"}}
}

// State declares a differential state and returns its descriptor.
func (d *Definition[T]) State(name, der, unit string, length int) *StateVar {
	sv := &StateVar{Name: name, Der: der, Unit: num.MustUnit(unit), Length: length}
	d.States = append(d.States, sv)
	return sv
}

func (d *Definition[T]) Param(name, unit string, def float64) {
	d.Params = append(d.Params, ParamSpec{Name: name, Unit: num.MustUnit(unit), Default: def})
}

func (d *Definition[T]) UncertainParam(name, unit string, def, sigma float64) {
	d.Params = append(d.Params, ParamSpec{Name: name, Unit: num.MustUnit(unit), Default: def, Sigma: sigma})
}

// Observe appends names to the ordered observable-variable list.
func (d *Definition[T]) Observe(names ...string) {
	d.Variables = append(d.Variables, names...)
}

// Let appends an assignment step. Steps execute verbatim in the
// order they were appended; ordering is the sorter's responsibility.
func (d *Definition[T]) Let(target string, e Expr[T]) {
	d.Steps = append(d.Steps, &assignStep[T]{target: target, expr: e})
}

// Solve appends a linear-subsystem step.
func (d *Definition[T]) Solve(b *LinearBlock[T]) {
	d.Steps = append(d.Steps, &solveStep[T]{block: b})
}

// AliasVar records an eliminated variable resolving to ±target.
func (d *Definition[T]) AliasVar(name, target string, negated bool) {
	kind := AliasOf
	if negated {
		kind = AliasNeg
	}
	d.Aliases = append(d.Aliases, Alias{Name: name, Kind: kind, Target: target})
}

// ZeroVar records a structurally zero variable.
func (d *Definition[T]) ZeroVar(name string) {
	d.Aliases = append(d.Aliases, Alias{Name: name, Kind: AliasZero})
}

// Crossing registers an event signal and returns the predicate
// "signal > 0" for use inside equations. The residual is exposed per
// signal ID for the integrator's root finder.
func (d *Definition[T]) Crossing(signal Expr[T], dir Direction, label string) Cond[T] {
	id := len(d.Signals)
	d.Signals = append(d.Signals, SignalSpec{ID: id, Label: label, Dir: dir})
	return &crossingNode[T]{id: id, signal: signal}
}

// AssignOffsets numbers the states densely in declaration order and
// returns the total state-vector size.
func (d *Definition[T]) AssignOffsets() int {
	nx := 0
	for _, sv := range d.States {
		if sv.Length <= 0 {
			sv.Length = 1
		}
		sv.Start = nx
		nx += sv.Length
	}
	return nx
}

// Algebraic reports whether the definition has no true differential
// state: exactly one descriptor with an empty name.
func (d *Definition[T]) Algebraic() bool {
	return len(d.States) == 1 && d.States[0].Name == ""
}

// ParamIndex returns the position of a named parameter.
func (d *Definition[T]) ParamIndex(name string) (int, error) {
	for i, p := range d.Params {
		if p.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}
