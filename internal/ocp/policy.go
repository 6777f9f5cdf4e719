package ocp

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// LinearPolicy is a time-varying affine feedback law around a reference:
//
//	u_k = ref.Actions[k] + K[k]*(x - ref.States[k]) + Kff[k]
type LinearPolicy struct {
	K   []*mat.Dense // horizon gain matrices, each controlDim x stateDim
	Kff []Control    // horizon feedforward terms
}

// NewLinearPolicy returns a policy with zero gains and zero feedforward.
func NewLinearPolicy(horizon, stateDim, controlDim int) *LinearPolicy {
	p := &LinearPolicy{
		K:   make([]*mat.Dense, horizon),
		Kff: make([]Control, horizon),
	}
	for k := 0; k < horizon; k++ {
		p.K[k] = mat.NewDense(controlDim, stateDim, nil)
		p.Kff[k] = make(Control, controlDim)
	}
	return p
}

// NewRandomPolicy returns a zero-gain policy whose feedforward terms are
// drawn from scale*N(0,1). Breaks the symmetry of an all-zero warm start.
func NewRandomPolicy(horizon, stateDim, controlDim int, scale float64, rng *rand.Rand) *LinearPolicy {
	p := NewLinearPolicy(horizon, stateDim, controlDim)
	for k := 0; k < horizon; k++ {
		for i := 0; i < controlDim; i++ {
			p.Kff[k][i] = scale * rng.NormFloat64()
		}
	}
	return p
}

func (p *LinearPolicy) Horizon() int { return len(p.K) }

// Action evaluates the feedback law at step k around ref.
func (p *LinearPolicy) Action(k int, x State, ref *Trajectory) Control {
	return p.ScaledAction(k, x, ref, 1.0)
}

// ScaledAction evaluates the feedback law with the feedforward scaled by
// alpha. Gains are applied exactly regardless of alpha.
func (p *LinearPolicy) ScaledAction(k int, x State, ref *Trajectory, alpha float64) Control {
	gain := p.K[k]
	m, n := gain.Dims()
	u := make(Control, m)
	for i := 0; i < m; i++ {
		v := ref.Actions[k][i] + alpha*p.Kff[k][i]
		for j := 0; j < n; j++ {
			v += gain.At(i, j) * (x[j] - ref.States[k][j])
		}
		u[i] = v
	}
	return u
}

func (p *LinearPolicy) Clone() *LinearPolicy {
	c := &LinearPolicy{
		K:   make([]*mat.Dense, len(p.K)),
		Kff: make([]Control, len(p.Kff)),
	}
	for k := range p.K {
		c.K[k] = mat.DenseCopyOf(p.K[k])
		c.Kff[k] = p.Kff[k].Clone()
	}
	return c
}
