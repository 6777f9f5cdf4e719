package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// QuadraticCost penalizes squared weighted deviation from a goal state plus
// squared weighted action magnitude:
//
//	stage(x,u) = 0.5*e'Qe + 0.5*u'Ru,  final(x) = 0.5*e'Qf e
//
// where e = x - goal. Entries flagged in wrap are angles whose error is
// wrapped to [-pi, pi) before weighting, which keeps the cost continuous
// around any goal angle.
type QuadraticCost struct {
	stateW  *mat.SymDense
	actionW *mat.SymDense
	finalW  *mat.SymDense
	goal    ocp.State
	wrap    []bool
}

func NewQuadraticCost(stateW, actionW, finalW *mat.SymDense, goal ocp.State, wrapIdx []int) (*QuadraticCost, error) {
	n := len(goal)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty goal state", ocp.ErrShapeMismatch)
	}
	if !goal.IsValid() {
		return nil, fmt.Errorf("%w: goal state must be finite", ocp.ErrShapeMismatch)
	}
	if stateW.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: state weights are %dx%d, goal has %d entries",
			ocp.ErrShapeMismatch, stateW.SymmetricDim(), stateW.SymmetricDim(), n)
	}
	if finalW.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: final weights are %dx%d, goal has %d entries",
			ocp.ErrShapeMismatch, finalW.SymmetricDim(), finalW.SymmetricDim(), n)
	}
	if actionW.SymmetricDim() < 1 {
		return nil, fmt.Errorf("%w: empty action weights", ocp.ErrShapeMismatch)
	}

	wrap := make([]bool, n)
	for _, i := range wrapIdx {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: wrap index %d out of range for %d states",
				ocp.ErrShapeMismatch, i, n)
		}
		wrap[i] = true
	}

	c := &QuadraticCost{
		stateW:  mat.NewSymDense(n, nil),
		actionW: mat.NewSymDense(actionW.SymmetricDim(), nil),
		finalW:  mat.NewSymDense(n, nil),
		goal:    goal.Clone(),
		wrap:    wrap,
	}
	c.stateW.CopySym(stateW)
	c.actionW.CopySym(actionW)
	c.finalW.CopySym(finalW)
	return c, nil
}

// NewDiagonalCost builds a QuadraticCost from diagonal weight vectors.
func NewDiagonalCost(stateW, actionW, finalW []float64, goal ocp.State, wrapIdx []int) (*QuadraticCost, error) {
	return NewQuadraticCost(diagSym(stateW), diagSym(actionW), diagSym(finalW), goal, wrapIdx)
}

func diagSym(d []float64) *mat.SymDense {
	s := mat.NewSymDense(len(d), nil)
	for i, v := range d {
		s.SetSym(i, i, v)
	}
	return s
}

// Deviation returns x - goal with angle entries wrapped to [-pi, pi).
func (c *QuadraticCost) Deviation(x ocp.State) ocp.State {
	e := make(ocp.State, len(c.goal))
	for i := range e {
		e[i] = x[i] - c.goal[i]
		if c.wrap[i] {
			e[i] = WrapAngle(e[i])
		}
	}
	return e
}

func (c *QuadraticCost) Goal() ocp.State { return c.goal.Clone() }

func (c *QuadraticCost) ActionDim() int { return c.actionW.SymmetricDim() }

func (c *QuadraticCost) Stage(x ocp.State, u ocp.Control, k int) float64 {
	e := c.Deviation(x)
	ev := mat.NewVecDense(len(e), e)
	uv := mat.NewVecDense(len(u), u)

	var qe, ru mat.VecDense
	qe.MulVec(c.stateW, ev)
	ru.MulVec(c.actionW, uv)

	return 0.5*mat.Dot(ev, &qe) + 0.5*mat.Dot(uv, &ru)
}

func (c *QuadraticCost) Final(x ocp.State) float64 {
	e := c.Deviation(x)
	ev := mat.NewVecDense(len(e), e)

	var qe mat.VecDense
	qe.MulVec(c.finalW, ev)

	return 0.5 * mat.Dot(ev, &qe)
}

func (c *QuadraticCost) StageQuadratics(x ocp.State, u ocp.Control, k int) *ocp.StageExpansion {
	n := len(c.goal)
	m := c.actionW.SymmetricDim()

	e := c.Deviation(x)
	ev := mat.NewVecDense(n, e)
	uv := mat.NewVecDense(m, u)

	cx := mat.NewVecDense(n, nil)
	cu := mat.NewVecDense(m, nil)
	cx.MulVec(c.stateW, ev)
	cu.MulVec(c.actionW, uv)

	cxx := mat.NewSymDense(n, nil)
	cuu := mat.NewSymDense(m, nil)
	cxx.CopySym(c.stateW)
	cuu.CopySym(c.actionW)

	return &ocp.StageExpansion{
		Cx:  cx,
		Cu:  cu,
		Cxx: cxx,
		Cuu: cuu,
		Cux: mat.NewDense(m, n, nil),
	}
}

func (c *QuadraticCost) FinalQuadratics(x ocp.State) *ocp.FinalExpansion {
	n := len(c.goal)

	e := c.Deviation(x)
	ev := mat.NewVecDense(n, e)

	px := mat.NewVecDense(n, nil)
	px.MulVec(c.finalW, ev)

	pxx := mat.NewSymDense(n, nil)
	pxx.CopySym(c.finalW)

	return &ocp.FinalExpansion{Px: px, Pxx: pxx}
}
