package model

import (
	"errors"
	"math"
	"testing"

	"github.com/modiasim/tinymodia/internal/equ"
	"github.com/modiasim/tinymodia/internal/linsolve"
	"github.com/modiasim/tinymodia/internal/num"
)

// decay: der(x) = -a*x, plus a negated-alias observable
func decayDef() *equ.Definition[num.Real] {
	d := equ.NewDefinition[num.Real]("decay")
	d.State("x", "der(x)", "", 1)
	d.Param("a", "", 1.0)
	d.Observe("x", "der(x)")
	d.Let("der(x)", equ.Neg(equ.Mul(equ.Param[num.Real]("a"), equ.Var[num.Real]("x"))))
	d.AliasVar("minus_x", "x", true)
	d.AliasVar("also_x", "x", false)
	d.ZeroVar("ground")
	return d
}

func TestNewValidatesInitialStateLength(t *testing.T) {
	tests := []struct {
		name string
		x0   []float64
	}{
		{"too few", []float64{}},
		{"too many", []float64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(decayDef(), tt.x0, nil)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var cfg *ConfigurationError
			if !errors.As(err, &cfg) {
				t.Fatalf("expected *ConfigurationError, got %T", err)
			}
		})
	}
}

func TestNewRejectsUnknownParameter(t *testing.T) {
	_, err := New(decayDef(), []float64{1}, map[string]float64{"bogus": 3})
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
}

func TestInitRecordsOnce(t *testing.T) {
	m, err := New(decayDef(), []float64{2}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0.5); err != nil {
		t.Fatalf("init: %v", err)
	}

	if m.NumResults() != 1 {
		t.Fatalf("results = %d, want 1", m.NumResults())
	}
	if ts := m.Times(); ts[0] != 0.5 {
		t.Errorf("first record time = %g, want 0.5", ts[0])
	}
}

func TestReInitResetsResults(t *testing.T) {
	m, err := New(decayDef(), []float64{2}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := m.RecordStep([]float64{1.5}, 0.1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("re-init: %v", err)
	}

	if m.NumResults() != 1 {
		t.Errorf("results after re-init = %d, want 1", m.NumResults())
	}
	x, err := m.Column("x")
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	if x[0] != 2 {
		t.Errorf("x[0] = %g, want the fresh initial value 2", x[0])
	}
}

func TestCallCounter(t *testing.T) {
	m, err := New(decayDef(), []float64{1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	derX := make([]float64, 1)

	if err := m.Init(0); err != nil { // 1 call
		t.Fatalf("init: %v", err)
	}
	for i := 0; i < 3; i++ { // 3 calls
		if err := m.Evaluate(derX, []float64{1}, 0, ModeNormal); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if err := m.Probe(derX, []float64{1}, 0, 0); err != nil { // 1 call
		t.Fatalf("probe: %v", err)
	}
	if err := m.RecordStep([]float64{1}, 0.1); err != nil { // 1 call
		t.Fatalf("record: %v", err)
	}

	if n := m.NGetDerivatives(); n != 6 {
		t.Errorf("nGetDerivatives = %d, want 6", n)
	}
}

func TestNegatedAliasResolution(t *testing.T) {
	m, err := New(decayDef(), []float64{2}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("init: %v", err)
	}

	minus, err := m.Column("minus_x")
	if err != nil {
		t.Fatalf("column minus_x: %v", err)
	}
	if minus[0] != -2 {
		t.Errorf("minus_x[0] = %g, want -2", minus[0])
	}

	same, err := m.Column("also_x")
	if err != nil {
		t.Fatalf("column also_x: %v", err)
	}
	if same[0] != 2 {
		t.Errorf("also_x[0] = %g, want 2", same[0])
	}

	ground, err := m.Column("ground")
	if err != nil {
		t.Fatalf("column ground: %v", err)
	}
	if ground[0] != 0 {
		t.Errorf("ground[0] = %g, want 0", ground[0])
	}

	// resolving the sign twice is the identity
	idx, _ := m.ResultIndex("minus_x")
	tgt, _ := m.ResultIndex("x")
	if -idx != tgt {
		t.Errorf("signed index = %d, want -%d", idx, tgt)
	}
}

func TestEvaluationErrorPropagates(t *testing.T) {
	d := equ.NewDefinition[num.Real]("bad")
	d.State("x", "der(x)", "", 1)
	d.Observe("x", "der(x)")
	d.Let("der(x)", equ.Log(equ.Var[num.Real]("x"))) // log of negative state fails

	m, err := New(d, []float64{-1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = m.Init(0)
	if err == nil {
		t.Fatal("expected evaluation error")
	}
	var ev *EvaluationError
	if !errors.As(err, &ev) {
		t.Fatalf("expected *EvaluationError, got %T", err)
	}
	var ne *num.Error
	if !errors.As(err, &ne) {
		t.Fatalf("expected wrapped *num.Error, got %v", err)
	}
}

func TestSingularSubsystemPropagates(t *testing.T) {
	d := equ.NewDefinition[num.Real]("singular")
	d.State("x", "der(x)", "", 1)
	d.Observe("x", "der(x)", "u", "v")
	one := equ.Const[num.Real](1)
	two := equ.Const[num.Real](2)
	blk := equ.NewLinearBlock(
		[]string{"u", "v"},
		[][]equ.Expr[num.Real]{{one, two}, {two, equ.Const[num.Real](4)}},
		[]equ.Expr[num.Real]{one, two},
	)
	d.Solve(blk)
	d.Let("der(x)", equ.Var[num.Real]("u"))

	m, err := New(d, []float64{0}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = m.Init(0)
	var sing *linsolve.SingularSystemError
	if !errors.As(err, &sing) {
		t.Fatalf("expected *SingularSystemError, got %v", err)
	}
}

func TestLinearSubsystemSolvedEachCall(t *testing.T) {
	// u is defined by 2u = x, so u must track the state.
	d := equ.NewDefinition[num.Real]("track")
	d.State("x", "der(x)", "", 1)
	d.Observe("x", "der(x)", "u")
	blk := equ.NewLinearBlock(
		[]string{"u"},
		[][]equ.Expr[num.Real]{{equ.Const[num.Real](2)}},
		[]equ.Expr[num.Real]{equ.Var[num.Real]("x")},
	)
	d.Solve(blk)
	d.Let("der(x)", equ.Neg(equ.Var[num.Real]("u")))

	m, err := New(d, []float64{4}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := m.RecordStep([]float64{1}, 1); err != nil {
		t.Fatalf("record: %v", err)
	}

	u, err := m.Column("u")
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	if u[0] != 2 || u[1] != 0.5 {
		t.Errorf("u = %v, want [2 0.5]", u)
	}
}

func TestAlgebraicDummyKeepsIntegratorBusy(t *testing.T) {
	d := equ.NewDefinition[num.Real]("algebraic")
	d.State("", "", "", 1)
	d.Observe("y")
	d.Let("y", equ.Scale(equ.Var[num.Real]("time"), 3))

	m, err := New(d, []float64{1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("init: %v", err)
	}

	derX := make([]float64, 1)
	if err := m.Evaluate(derX, []float64{0.5}, 2, ModeNormal); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if derX[0] != -0.5 {
		t.Errorf("dummy derivative = %g, want -0.5", derX[0])
	}
}

func TestRepresentationDiagnostic(t *testing.T) {
	m, err := New(decayDef(), []float64{1}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if r := m.Representation(); r != "float64" {
		t.Errorf("representation = %q, want float64", r)
	}
}

func TestUnitsStrippedOnPack(t *testing.T) {
	d := equ.NewDefinition[num.Quantity]("fall")
	d.State("v", "der(v)", "m/s", 1)
	d.Param("g", "m/s^2", 9.81)
	d.Observe("v", "der(v)")
	d.Let("der(v)", equ.Neg(equ.Param[num.Quantity]("g")))

	m, err := New(d, []float64{0}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Init(0); err != nil {
		t.Fatalf("init: %v", err)
	}

	derX := make([]float64, 1)
	if err := m.Evaluate(derX, []float64{0}, 0, ModeNormal); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(derX[0]+9.81) > 1e-15 {
		t.Errorf("der(v) = %g, want -9.81 (unit-free)", derX[0])
	}
	if r := m.Representation(); r != "float64+unit" {
		t.Errorf("representation = %q", r)
	}
}
