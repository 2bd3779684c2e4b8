// Package equ holds the executable form of a reduced equation set:
// an expression tree over a generic scalar representation, ordered
// assignment and solve steps, and the compiled evaluation plan that
// binds every name to a flat slot before the first evaluation.
package equ

import "github.com/modiasim/tinymodia/internal/num"

// Env is the mutable evaluation context for one evaluator call.
// Locals holds every named variable (states, derivatives and
// algebraics) at resolved slots; Params is lifted once at model
// construction and read-only afterwards.
type Env[T num.Scalar[T]] struct {
	Time   T
	Locals []T
	Params []T
	Events *Monitor
}

// Expr is a compiled expression node. Name resolution happens in
// bind; eval is pure slot arithmetic.
type Expr[T num.Scalar[T]] interface {
	eval(env *Env[T]) T
	bind(b *binder) error
}

const timeSlot = -1

type varNode[T num.Scalar[T]] struct {
	name   string
	offset int
	slot   int
}

// Var references a named variable. The special name "time" resolves
// to the current simulation time.
func Var[T num.Scalar[T]](name string) Expr[T] {
	return &varNode[T]{name: name}
}

// Elem references element i of a vector-valued variable.
func Elem[T num.Scalar[T]](name string, i int) Expr[T] {
	return &varNode[T]{name: name, offset: i}
}

func (n *varNode[T]) eval(env *Env[T]) T {
	if n.slot == timeSlot {
		return env.Time
	}
	return env.Locals[n.slot]
}

func (n *varNode[T]) bind(b *binder) error {
	s, err := b.slotOf(n.name, n.offset)
	if err != nil {
		return err
	}
	n.slot = s
	return nil
}

type constNode[T num.Scalar[T]] struct {
	v float64
	u num.Unit
}

// Const is a dimensionless literal.
func Const[T num.Scalar[T]](v float64) Expr[T] {
	return &constNode[T]{v: v}
}

// UnitConst is a literal carrying a unit; representations without
// units ignore the tag.
func UnitConst[T num.Scalar[T]](v float64, unit string) Expr[T] {
	return &constNode[T]{v: v, u: num.MustUnit(unit)}
}

func (n *constNode[T]) eval(*Env[T]) T {
	var zero T
	return zero.Lift(n.v).WithUnit(n.u)
}

func (n *constNode[T]) bind(*binder) error { return nil }

type paramNode[T num.Scalar[T]] struct {
	name string
	idx  int
}

// Param references a named model parameter.
func Param[T num.Scalar[T]](name string) Expr[T] {
	return &paramNode[T]{name: name}
}

func (n *paramNode[T]) eval(env *Env[T]) T { return env.Params[n.idx] }

func (n *paramNode[T]) bind(b *binder) error {
	i, err := b.paramOf(n.name)
	if err != nil {
		return err
	}
	n.idx = i
	return nil
}

type binNode[T num.Scalar[T]] struct {
	op   byte
	x, y Expr[T]
}

func Add[T num.Scalar[T]](x, y Expr[T]) Expr[T] { return &binNode[T]{'+', x, y} }
func Sub[T num.Scalar[T]](x, y Expr[T]) Expr[T] { return &binNode[T]{'-', x, y} }
func Mul[T num.Scalar[T]](x, y Expr[T]) Expr[T] { return &binNode[T]{'*', x, y} }
func Div[T num.Scalar[T]](x, y Expr[T]) Expr[T] { return &binNode[T]{'/', x, y} }

func (n *binNode[T]) eval(env *Env[T]) T {
	a, b := n.x.eval(env), n.y.eval(env)
	switch n.op {
	case '+':
		return a.Add(b)
	case '-':
		return a.Sub(b)
	case '*':
		return a.Mul(b)
	default:
		return a.Div(b)
	}
}

func (n *binNode[T]) bind(b *binder) error {
	if err := n.x.bind(b); err != nil {
		return err
	}
	return n.y.bind(b)
}

type unaryKind int

const (
	opNeg unaryKind = iota
	opSin
	opCos
	opSqrt
	opExp
	opLog
	opAbs
)

type unaryNode[T num.Scalar[T]] struct {
	kind unaryKind
	x    Expr[T]
}

func Neg[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opNeg, x} }
func Sin[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opSin, x} }
func Cos[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opCos, x} }
func Sqrt[T num.Scalar[T]](x Expr[T]) Expr[T] { return &unaryNode[T]{opSqrt, x} }
func Exp[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opExp, x} }
func Log[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opLog, x} }
func Abs[T num.Scalar[T]](x Expr[T]) Expr[T]  { return &unaryNode[T]{opAbs, x} }

func (n *unaryNode[T]) eval(env *Env[T]) T {
	v := n.x.eval(env)
	switch n.kind {
	case opNeg:
		return v.Neg()
	case opSin:
		return v.Sin()
	case opCos:
		return v.Cos()
	case opSqrt:
		return v.Sqrt()
	case opExp:
		return v.Exp()
	case opLog:
		return v.Log()
	default:
		return v.Abs()
	}
}

func (n *unaryNode[T]) bind(b *binder) error { return n.x.bind(b) }

type scaleNode[T num.Scalar[T]] struct {
	k float64
	x Expr[T]
}

// Scale multiplies by a plain real constant without touching units.
func Scale[T num.Scalar[T]](x Expr[T], k float64) Expr[T] {
	return &scaleNode[T]{k, x}
}

func (n *scaleNode[T]) eval(env *Env[T]) T   { return n.x.eval(env).Scale(n.k) }
func (n *scaleNode[T]) bind(b *binder) error { return n.x.bind(b) }

type powNode[T num.Scalar[T]] struct {
	k float64
	x Expr[T]
}

// Pow raises to a constant real exponent.
func Pow[T num.Scalar[T]](x Expr[T], k float64) Expr[T] {
	return &powNode[T]{k, x}
}

func (n *powNode[T]) eval(env *Env[T]) T   { return n.x.eval(env).Pow(n.k) }
func (n *powNode[T]) bind(b *binder) error { return n.x.bind(b) }

type ifNode[T num.Scalar[T]] struct {
	cond      Cond[T]
	then, alt Expr[T]
}

// If selects between two branches. Both the condition and the taken
// branch are evaluated every call; crossing conditions additionally
// refresh their residual.
func If[T num.Scalar[T]](cond Cond[T], then, alt Expr[T]) Expr[T] {
	return &ifNode[T]{cond, then, alt}
}

func (n *ifNode[T]) eval(env *Env[T]) T {
	if n.cond.test(env) {
		return n.then.eval(env)
	}
	return n.alt.eval(env)
}

func (n *ifNode[T]) bind(b *binder) error {
	if err := n.cond.bind(b); err != nil {
		return err
	}
	if err := n.then.bind(b); err != nil {
		return err
	}
	return n.alt.bind(b)
}
