package ocp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

func (u Control) IsValid() bool {
	for _, v := range u {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time model; Derive returns dx/dt at (x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Dynamics is a discrete transition map x_{k+1} = f(x_k, u_k, k).
type Dynamics interface {
	Step(x State, u Control, k int) State
	StateDim() int
	ControlDim() int
}

// CostModel scores a trajectory stage by stage plus a terminal term.
type CostModel interface {
	Stage(x State, u Control, k int) float64
	Final(x State) float64
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Linearizable supplies analytic dynamics Jacobians; models that do not
// implement it are differentiated numerically.
type Linearizable interface {
	Linearize(x State, u Control, k int) (A, B *mat.Dense)
}

// StageExpansion is a second-order expansion of the stage cost.
type StageExpansion struct {
	Cx  *mat.VecDense
	Cu  *mat.VecDense
	Cxx *mat.SymDense
	Cuu *mat.SymDense
	Cux *mat.Dense
}

// FinalExpansion is a second-order expansion of the terminal cost.
type FinalExpansion struct {
	Px  *mat.VecDense
	Pxx *mat.SymDense
}

// StageQuadratizer supplies analytic stage-cost expansions.
type StageQuadratizer interface {
	StageQuadratics(x State, u Control, k int) *StageExpansion
}

// FinalQuadratizer supplies an analytic terminal-cost expansion.
type FinalQuadratizer interface {
	FinalQuadratics(x State) *FinalExpansion
}
