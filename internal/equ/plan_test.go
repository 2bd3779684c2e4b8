package equ

import (
	"math"
	"testing"

	"github.com/modiasim/tinymodia/internal/num"
)

// harmonic oscillator: der(pos) = vel, der(vel) = -k/m * pos
func oscillator() *Definition[num.Real] {
	d := NewDefinition[num.Real]("oscillator")
	d.State("pos", "der(pos)", "m", 1)
	d.State("vel", "der(vel)", "m/s", 1)
	d.Param("k", "N/m", 4.0)
	d.Param("m", "kg", 1.0)
	d.Observe("pos", "vel", "der(pos)", "der(vel)")

	d.Let("der(pos)", Var[num.Real]("vel"))
	d.Let("der(vel)", Neg(Mul(Div(Param[num.Real]("k"), Param[num.Real]("m")), Var[num.Real]("pos"))))
	return d
}

func evalOnce(t *testing.T, p *Plan[num.Real], x []float64, tm float64) (*Env[num.Real], []float64) {
	t.Helper()
	env := p.NewEnv(NewMonitor(p.Def.Signals))
	params := make([]float64, len(p.Def.Params))
	for i, ps := range p.Def.Params {
		params[i] = ps.Default
	}
	p.LiftParams(env, params)
	p.Unpack(env, x, tm, -1)
	if err := p.Run(env); err != nil {
		t.Fatalf("run: %v", err)
	}
	derX := make([]float64, p.NX)
	p.Pack(env, derX, x)
	return env, derX
}

func TestCompileOffsets(t *testing.T) {
	d := oscillator()
	p, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.NX != 2 {
		t.Errorf("NX = %d, want 2", p.NX)
	}
	if d.States[0].Start != 0 || d.States[1].Start != 1 {
		t.Errorf("offsets = %d,%d, want 0,1", d.States[0].Start, d.States[1].Start)
	}
}

func TestPlanEvaluation(t *testing.T) {
	p, err := Compile(oscillator())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, derX := evalOnce(t, p, []float64{0.5, 2.0}, 0)

	if derX[0] != 2.0 {
		t.Errorf("der(pos) = %g, want 2", derX[0])
	}
	if derX[1] != -2.0 {
		t.Errorf("der(vel) = %g, want -2 (= -k/m * pos)", derX[1])
	}
}

func TestRecordOrder(t *testing.T) {
	p, err := Compile(oscillator())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	env, _ := evalOnce(t, p, []float64{0.5, 2.0}, 1.5)

	rec := p.Record(env)
	if len(rec) != p.RecordWidth() {
		t.Fatalf("record width = %d, want %d", len(rec), p.RecordWidth())
	}
	want := []float64{1.5, 0.5, 2.0, 2.0, -2.0}
	for i, w := range want {
		if rec[i].Value() != w {
			t.Errorf("rec[%d] = %g, want %g", i, rec[i].Value(), w)
		}
	}
}

func TestCompileUnknownName(t *testing.T) {
	d := NewDefinition[num.Real]("bad")
	d.State("x", "der(x)", "", 1)
	d.Observe("x", "der(x)")
	d.Let("der(x)", Var[num.Real]("nope"))

	if _, err := Compile(d); err == nil {
		t.Error("expected bind error for unknown variable")
	}
}

func TestCompileMissingDerivative(t *testing.T) {
	d := NewDefinition[num.Real]("bad")
	d.State("x", "der(x)", "", 1)
	d.Observe("x") // der(x) not observable

	if _, err := Compile(d); err == nil {
		t.Error("expected bind error for missing derivative variable")
	}
}

func TestVectorStateUnpack(t *testing.T) {
	d := NewDefinition[num.Real]("vec")
	d.State("q", "der(q)", "m", 2)
	d.Observe("q", "der(q)")
	d.Let("der(q)", Elem[num.Real]("q", 1)) // der(q)[0] = q[1]; q's second slot

	p, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if p.NX != 2 {
		t.Fatalf("NX = %d, want 2", p.NX)
	}

	_, derX := evalOnce(t, p, []float64{7, 9}, 0)
	if derX[0] != 9 {
		t.Errorf("der(q)[0] = %g, want 9", derX[0])
	}
}

func TestAlgebraicDummyEquation(t *testing.T) {
	d := NewDefinition[num.Real]("algebraic")
	d.State("", "", "", 1)
	d.Observe("y")
	d.Let("y", Add(Var[num.Real]("time"), Const[num.Real](1)))

	p, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !p.Dummy {
		t.Fatal("expected dummy plan for algebraic-only system")
	}

	env := p.NewEnv(NewMonitor(nil))
	p.LiftParams(env, nil)
	x := []float64{0.25}
	p.Unpack(env, x, 2.0, -1)
	if err := p.Run(env); err != nil {
		t.Fatalf("run: %v", err)
	}
	derX := make([]float64, 1)
	p.Pack(env, derX, x)

	if derX[0] != -0.25 {
		t.Errorf("dummy derivative = %g, want -x[0] = -0.25", derX[0])
	}
	if got := env.Locals[0].Value(); got != 3.0 {
		t.Errorf("y = %g, want time+1 = 3", got)
	}
}

func TestCrossingRecordsResidual(t *testing.T) {
	d := NewDefinition[num.Real]("contact")
	d.State("s", "der(s)", "m", 1)
	d.Observe("s", "der(s)", "f")
	contact := d.Crossing(Neg(Var[num.Real]("s")), Rising, "touch")
	d.Let("f", If(contact, Const[num.Real](1), Const[num.Real](0)))
	d.Let("der(s)", Const[num.Real](-1))

	p, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	mon := NewMonitor(d.Signals)
	env := p.NewEnv(mon)
	p.LiftParams(env, nil)

	for _, tt := range []struct {
		s        float64
		residual float64
		f        float64
	}{
		{0.5, -0.5, 0}, // above the floor: predicate false
		{-0.3, 0.3, 1}, // below: predicate true
	} {
		p.Unpack(env, []float64{tt.s}, 0, -1)
		if err := p.Run(env); err != nil {
			t.Fatalf("run: %v", err)
		}
		if r := mon.Residuals()[0]; math.Abs(r-tt.residual) > 1e-15 {
			t.Errorf("s=%g: residual = %g, want %g", tt.s, r, tt.residual)
		}
		if f := env.Locals[1].Value(); f != tt.f {
			t.Errorf("s=%g: f = %g, want %g", tt.s, f, tt.f)
		}
	}
}

func TestUnitsFlowThroughPlan(t *testing.T) {
	d := NewDefinition[num.Quantity]("fall")
	d.State("v", "der(v)", "m/s", 1)
	d.Param("g", "m/s^2", 9.81)
	d.Observe("v", "der(v)")
	d.Let("der(v)", Neg(Param[num.Quantity]("g")))

	p, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	env := p.NewEnv(NewMonitor(nil))
	p.LiftParams(env, []float64{9.81})
	x := []float64{3}
	p.Unpack(env, x, 0, -1)

	// unpacked state carries its declared unit
	q := env.Locals[0]
	if q.U != num.MustUnit("m/s") {
		t.Errorf("unpacked unit = %s, want m/s", q.U)
	}

	if err := p.Run(env); err != nil {
		t.Fatalf("run: %v", err)
	}
	derX := make([]float64, 1)
	p.Pack(env, derX, x)
	// flat vector is unit-free
	if derX[0] != -9.81 {
		t.Errorf("der(v) = %g, want -9.81", derX[0])
	}
}
