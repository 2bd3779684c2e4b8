package num

import (
	"math"
	"testing"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{"", Unit{}},
		{"1", Unit{}},
		{"rad", Unit{}},
		{"m", Unit{M: 1}},
		{"m/s", Unit{M: 1, S: -1}},
		{"m/s^2", Unit{M: 1, S: -2}},
		{"kg*m^2/s^2", Unit{M: 2, Kg: 1, S: -2}},
		{"N", Unit{M: 1, Kg: 1, S: -2}},
		{"N*m", Unit{M: 2, Kg: 1, S: -2}},
	}

	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		if err != nil {
			t.Fatalf("ParseUnit(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseUnit(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseUnitRejectsUnknown(t *testing.T) {
	if _, err := ParseUnit("furlong"); err == nil {
		t.Error("expected error for unknown unit")
	}
	if _, err := ParseUnit("m^x"); err == nil {
		t.Error("expected error for bad exponent")
	}
}

func TestQuantityUnits(t *testing.T) {
	torque := Q(2.0, "N*m")
	inertia := Q(0.5, "kg*m^2")

	accel := torque.Div(inertia)
	want := MustUnit("1/s^2") // rad is dimensionless
	if accel.U != want {
		t.Errorf("torque/inertia unit = %s, want %s", accel.U, want)
	}
	if accel.V != 4.0 {
		t.Errorf("torque/inertia = %g, want 4", accel.V)
	}
}

func TestQuantityMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on unit mismatch")
		}
		if _, ok := r.(*Error); !ok {
			t.Fatalf("expected *num.Error, got %T", r)
		}
	}()
	Q(1, "m").Add(Q(1, "s"))
}

func TestQuantitySinRequiresDimensionless(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for sin of a united value")
		}
	}()
	Q(1, "m").Sin()
}

func TestDualChainRule(t *testing.T) {
	// f(x) = sin(x)*x^2 at x=1.3, f'(x) = cos(x)*x^2 + 2x*sin(x)
	x := Dual{}.Seed(1.3, 1)
	f := x.Sin().Mul(x.Pow(2))

	wantV := math.Sin(1.3) * 1.3 * 1.3
	wantD := math.Cos(1.3)*1.3*1.3 + 2*1.3*math.Sin(1.3)

	if math.Abs(f.Value()-wantV) > 1e-12 {
		t.Errorf("value = %g, want %g", f.Value(), wantV)
	}
	if math.Abs(f.Aux()-wantD) > 1e-12 {
		t.Errorf("derivative = %g, want %g", f.Aux(), wantD)
	}
}

func TestDualDivision(t *testing.T) {
	x := Dual{Re: 2, Ep: 1}
	y := Dual{Re: 4, Ep: 0}
	q := x.Div(y)
	if q.Re != 0.5 || math.Abs(q.Ep-0.25) > 1e-15 {
		t.Errorf("got %+v, want {0.5 0.25}", q)
	}
}

func TestUncertainPropagation(t *testing.T) {
	a := Uncertain{Mean: 3, Sig: 0.3}
	b := Uncertain{Mean: 4, Sig: 0.4}

	sum := a.Add(b)
	if math.Abs(sum.Sig-0.5) > 1e-12 {
		t.Errorf("sum sigma = %g, want 0.5", sum.Sig)
	}

	prod := a.Mul(b)
	wantSig := math.Hypot(0.3*4, 0.4*3)
	if math.Abs(prod.Sig-wantSig) > 1e-12 {
		t.Errorf("product sigma = %g, want %g", prod.Sig, wantSig)
	}
}

func TestLiftIsDimensionless(t *testing.T) {
	q := Quantity{}.Lift(5).WithUnit(MustUnit("m/s"))
	if q.Value() != 5 {
		t.Errorf("value = %g, want 5", q.Value())
	}
	if q.U != MustUnit("m/s") {
		t.Errorf("unit = %s, want m/s", q.U)
	}
}

func TestReprNames(t *testing.T) {
	if Real(0).Repr() != "float64" {
		t.Error("Real repr")
	}
	if (Dual{}).Repr() != "dual(float64)" {
		t.Error("Dual repr")
	}
	if (Quantity{}).Repr() != "float64+unit" {
		t.Error("Quantity repr")
	}
	if (Uncertain{}).Repr() != "float64±sigma" {
		t.Error("Uncertain repr")
	}
}
