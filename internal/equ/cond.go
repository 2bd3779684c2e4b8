package equ

import "github.com/modiasim/tinymodia/internal/num"

// Cond is a boolean predicate usable inside If. Ordinary comparisons
// are plain relational tests; Crossing additionally reports a signed
// residual for event localization.
type Cond[T num.Scalar[T]] interface {
	test(env *Env[T]) bool
	bind(b *binder) error
}

type cmpNode[T num.Scalar[T]] struct {
	op   byte // '<', '>', 'l' (<=), 'g' (>=)
	x, y Expr[T]
}

func Lt[T num.Scalar[T]](x, y Expr[T]) Cond[T] { return &cmpNode[T]{'<', x, y} }
func Gt[T num.Scalar[T]](x, y Expr[T]) Cond[T] { return &cmpNode[T]{'>', x, y} }
func Le[T num.Scalar[T]](x, y Expr[T]) Cond[T] { return &cmpNode[T]{'l', x, y} }
func Ge[T num.Scalar[T]](x, y Expr[T]) Cond[T] { return &cmpNode[T]{'g', x, y} }

func (n *cmpNode[T]) test(env *Env[T]) bool {
	c := n.x.eval(env).Cmp(n.y.eval(env))
	switch n.op {
	case '<':
		return c < 0
	case '>':
		return c > 0
	case 'l':
		return c <= 0
	default:
		return c >= 0
	}
}

func (n *cmpNode[T]) bind(b *binder) error {
	if err := n.x.bind(b); err != nil {
		return err
	}
	return n.y.bind(b)
}

type crossingNode[T num.Scalar[T]] struct {
	id     int
	signal Expr[T]
}

func (n *crossingNode[T]) test(env *Env[T]) bool {
	r := n.signal.eval(env).Value()
	if env.Events != nil {
		env.Events.record(n.id, r)
	}
	return r > 0
}

func (n *crossingNode[T]) bind(b *binder) error { return n.signal.bind(b) }
