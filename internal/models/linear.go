package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Linear is an exact discrete-time linear system x' = A*x + B*u. It carries
// its own Jacobians, so the solver never differentiates it numerically.
type Linear struct {
	a *mat.Dense
	b *mat.Dense
}

func NewLinear(a, b *mat.Dense) (*Linear, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != ac {
		return nil, fmt.Errorf("%w: A is %dx%d, want square", ocp.ErrShapeMismatch, ar, ac)
	}
	if br != ar {
		return nil, fmt.Errorf("%w: B has %d rows, want %d", ocp.ErrShapeMismatch, br, ar)
	}
	if bc < 1 {
		return nil, fmt.Errorf("%w: B has no columns", ocp.ErrShapeMismatch)
	}
	return &Linear{a: mat.DenseCopyOf(a), b: mat.DenseCopyOf(b)}, nil
}

func (l *Linear) StateDim() int {
	n, _ := l.a.Dims()
	return n
}

func (l *Linear) ControlDim() int {
	_, m := l.b.Dims()
	return m
}

func (l *Linear) Step(x ocp.State, u ocp.Control, k int) ocp.State {
	n, _ := l.a.Dims()
	_, m := l.b.Dims()

	next := make(ocp.State, n)
	for i := 0; i < n; i++ {
		v := 0.0
		for j := 0; j < n; j++ {
			v += l.a.At(i, j) * x[j]
		}
		for j := 0; j < m; j++ {
			v += l.b.At(i, j) * u[j]
		}
		next[i] = v
	}
	return next
}

func (l *Linear) Linearize(x ocp.State, u ocp.Control, k int) (A, B *mat.Dense) {
	return mat.DenseCopyOf(l.a), mat.DenseCopyOf(l.b)
}
