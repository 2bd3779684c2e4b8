package equ

import (
	"github.com/modiasim/tinymodia/internal/linsolve"
	"github.com/modiasim/tinymodia/internal/num"
)

// Step is one executable unit of the reduced equation body.
type Step[T num.Scalar[T]] interface {
	run(env *Env[T]) error
	bind(b *binder) error
}

type assignStep[T num.Scalar[T]] struct {
	target string
	slot   int
	expr   Expr[T]
}

func (s *assignStep[T]) run(env *Env[T]) error {
	env.Locals[s.slot] = s.expr.eval(env)
	return nil
}

func (s *assignStep[T]) bind(b *binder) error {
	slot, err := b.slotOf(s.target, 0)
	if err != nil {
		return err
	}
	if slot == timeSlot {
		return errBind("cannot assign to time")
	}
	s.slot = slot
	return s.expr.bind(b)
}

// LinearBlock is one simultaneous linear subsystem A·x = b isolated
// by the reduction stage. A and b are re-evaluated and the block
// re-solved on every evaluator call that reaches its step. Scratch
// storage is sized once at bind time and owned exclusively by the
// enclosing model.
type LinearBlock[T num.Scalar[T]] struct {
	Unknowns []string
	A        [][]Expr[T]
	B        []Expr[T]

	slots []int
	a     [][]T
	b     []T
	x     []T
}

func NewLinearBlock[T num.Scalar[T]](unknowns []string, a [][]Expr[T], b []Expr[T]) *LinearBlock[T] {
	return &LinearBlock[T]{Unknowns: unknowns, A: a, B: b}
}

type solveStep[T num.Scalar[T]] struct {
	block *LinearBlock[T]
}

func (s *solveStep[T]) run(env *Env[T]) error {
	blk := s.block
	n := len(blk.Unknowns)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			blk.a[i][j] = blk.A[i][j].eval(env)
		}
		blk.b[i] = blk.B[i].eval(env)
	}
	if err := linsolve.Solve(blk.a, blk.b, blk.x); err != nil {
		return err
	}
	for i, slot := range blk.slots {
		env.Locals[slot] = blk.x[i]
	}
	return nil
}

func (s *solveStep[T]) bind(b *binder) error {
	blk := s.block
	n := len(blk.Unknowns)
	if len(blk.A) != n || len(blk.B) != n {
		return errBind("linear block %dx%d does not match %d unknowns", len(blk.A), len(blk.B), n)
	}
	blk.slots = make([]int, n)
	for i, name := range blk.Unknowns {
		slot, err := b.slotOf(name, 0)
		if err != nil {
			return err
		}
		blk.slots[i] = slot
	}
	for i := range blk.A {
		if len(blk.A[i]) != n {
			return errBind("linear block row %d has %d coefficients, want %d", i, len(blk.A[i]), n)
		}
		for j := range blk.A[i] {
			if err := blk.A[i][j].bind(b); err != nil {
				return err
			}
		}
		if err := blk.B[i].bind(b); err != nil {
			return err
		}
	}
	blk.a = make([][]T, n)
	for i := range blk.a {
		blk.a[i] = make([]T, n)
	}
	blk.b = make([]T, n)
	blk.x = make([]T, n)
	return nil
}
