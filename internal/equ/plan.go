package equ

import (
	"fmt"

	"github.com/modiasim/tinymodia/internal/num"
)

// BindError reports a definition that cannot be compiled into a plan.
type BindError struct {
	Msg string
}

func (e *BindError) Error() string { return "equ: " + e.Msg }

func errBind(format string, args ...any) error {
	return &BindError{Msg: fmt.Sprintf(format, args...)}
}

type slotInfo struct {
	slot  int
	width int
}

type binder struct {
	slots  map[string]slotInfo
	params map[string]int
}

func (b *binder) slotOf(name string, offset int) (int, error) {
	if name == "time" {
		if offset != 0 {
			return 0, errBind("time is scalar")
		}
		return timeSlot, nil
	}
	info, ok := b.slots[name]
	if !ok {
		return 0, errBind("unknown variable %q", name)
	}
	if offset < 0 || offset >= info.width {
		return 0, errBind("index %d out of range for %q (length %d)", offset, name, info.width)
	}
	return info.slot + offset, nil
}

func (b *binder) paramOf(name string) (int, error) {
	i, ok := b.params[name]
	if !ok {
		return 0, errBind("unknown parameter %q", name)
	}
	return i, nil
}

type span struct {
	slot   int
	start  int
	length int
	unit   num.Unit
}

type recCol struct {
	slot  int
	width int
}

// Plan is the compiled, name-free evaluation plan: unpack the flat
// state into local slots, run the steps in the supplied order, pack
// the derivative slots back, and expose the record column layout.
// A plan is built once per model and never re-ordered.
type Plan[T num.Scalar[T]] struct {
	Def     *Definition[T]
	NX      int
	NLocals int
	// Dummy marks a purely algebraic system that gets the
	// stabilizing der_x[0] = -x[0] equation instead of a packed
	// derivative, so the integrator still sees a well-posed ODE.
	Dummy bool

	unpack []span
	pack   []span
	record []recCol
	timeU  num.Unit
}

// Compile resolves every name in the definition to a slot and fixes
// the unpack/pack layout. The definition is owned by the resulting
// plan afterwards.
func Compile[T num.Scalar[T]](def *Definition[T]) (*Plan[T], error) {
	p := &Plan[T]{
		Def:   def,
		NX:    def.AssignOffsets(),
		Dummy: def.Algebraic(),
		timeU: num.MustUnit("s"),
	}

	if len(def.Variables) == 0 || def.Variables[0] != "time" {
		return nil, errBind("variable list must start with time")
	}

	width := make(map[string]int)
	unitOf := make(map[string]num.Unit)
	for _, sv := range def.States {
		if sv.Name == "" {
			continue
		}
		width[sv.Name] = sv.Length
		width[sv.Der] = sv.Length
		unitOf[sv.Name] = sv.Unit
	}

	b := &binder{slots: make(map[string]slotInfo), params: make(map[string]int)}
	next := 0
	for _, name := range def.Variables[1:] {
		if _, dup := b.slots[name]; dup || name == "time" {
			return nil, errBind("duplicate variable %q", name)
		}
		w := width[name]
		if w == 0 {
			w = 1
		}
		b.slots[name] = slotInfo{slot: next, width: w}
		next += w
	}
	p.NLocals = next

	for i, ps := range def.Params {
		if _, dup := b.params[ps.Name]; dup {
			return nil, errBind("duplicate parameter %q", ps.Name)
		}
		b.params[ps.Name] = i
	}

	for _, sv := range def.States {
		if sv.Name == "" {
			continue
		}
		si, ok := b.slots[sv.Name]
		if !ok {
			return nil, errBind("state %q is not an observable variable", sv.Name)
		}
		p.unpack = append(p.unpack, span{slot: si.slot, start: sv.Start, length: sv.Length, unit: sv.Unit})
		di, ok := b.slots[sv.Der]
		if !ok {
			return nil, errBind("derivative %q of state %q is not an observable variable", sv.Der, sv.Name)
		}
		p.pack = append(p.pack, span{slot: di.slot, start: sv.Start, length: sv.Length})
	}

	for _, step := range def.Steps {
		if err := step.bind(b); err != nil {
			return nil, err
		}
	}

	for _, name := range def.Variables[1:] {
		info := b.slots[name]
		p.record = append(p.record, recCol{slot: info.slot, width: info.width})
	}
	return p, nil
}

// NewEnv allocates the evaluation context for this plan.
func (p *Plan[T]) NewEnv(monitor *Monitor) *Env[T] {
	return &Env[T]{
		Locals: make([]T, p.NLocals),
		Params: make([]T, len(p.Def.Params)),
		Events: monitor,
	}
}

// LiftParams fills env.Params from the flat parameter vector,
// attaching declared units and uncertainty channels.
func (p *Plan[T]) LiftParams(env *Env[T], values []float64) {
	var zero T
	for i, ps := range p.Def.Params {
		env.Params[i] = zero.Seed(values[i], ps.Sigma).WithUnit(ps.Unit)
	}
}

// Unpack spreads the flat state vector into the local slots. seed
// selects the state index whose secondary channel is set to one
// (forward-mode probing); pass -1 for plain evaluation.
func (p *Plan[T]) Unpack(env *Env[T], x []float64, t float64, seed int) {
	var zero T
	env.Time = zero.Lift(t).WithUnit(p.timeU)
	for _, sp := range p.unpack {
		for k := 0; k < sp.length; k++ {
			aux := 0.0
			if sp.start+k == seed {
				aux = 1
			}
			env.Locals[sp.slot+k] = zero.Seed(x[sp.start+k], aux).WithUnit(sp.unit)
		}
	}
}

// Run executes the equation steps verbatim, in order.
func (p *Plan[T]) Run(env *Env[T]) error {
	for _, step := range p.Def.Steps {
		if err := step.run(env); err != nil {
			return err
		}
	}
	return nil
}

// Pack writes the derivative slots back into the flat derivative
// vector, units stripped. For a purely algebraic system it emits the
// stabilizing dummy equation instead.
func (p *Plan[T]) Pack(env *Env[T], derX, x []float64) {
	if p.Dummy {
		derX[0] = -x[0]
		return
	}
	for _, sp := range p.pack {
		for k := 0; k < sp.length; k++ {
			derX[sp.start+k] = env.Locals[sp.slot+k].Value()
		}
	}
}

// PackAux writes the secondary channel of the derivative slots into
// out. After a seeded evaluation over a forward-mode representation
// this is one Jacobian column, d(der_x)/dx_seed. The dummy equation of
// an algebraic system is differentiated directly.
func (p *Plan[T]) PackAux(env *Env[T], out []float64, seed int) {
	if p.Dummy {
		for i := range out {
			out[i] = 0
		}
		if seed == 0 {
			out[0] = -1
		}
		return
	}
	for _, sp := range p.pack {
		for k := 0; k < sp.length; k++ {
			out[sp.start+k] = env.Locals[sp.slot+k].Aux()
		}
	}
}

// Record builds one result tuple: time first, then every observable
// variable in declared order, representation preserved.
func (p *Plan[T]) Record(env *Env[T]) []T {
	rec := make([]T, 0, 1+p.NLocals)
	rec = append(rec, env.Time)
	for _, col := range p.record {
		for k := 0; k < col.width; k++ {
			rec = append(rec, env.Locals[col.slot+k])
		}
	}
	return rec
}

// RecordWidth is the tuple length produced by Record.
func (p *Plan[T]) RecordWidth() int { return 1 + p.NLocals }
