package ilqr

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Problem bundles the collaborators of a trajectory optimization: a discrete
// transition map, a cost model and the admissible boxes. The solver owns
// none of them.
type Problem struct {
	Dynamics    ocp.Dynamics
	Cost        ocp.CostModel
	StateSpace  *ocp.Box
	ActionSpace *ocp.Box
}

// Solution is the outcome of a solve: the accepted trajectory, the feedback
// policy it was generated by, and the accepted cost after each iteration.
// Trace[0] is the cost of the warm-start rollout; the sequence never
// increases.
type Solution struct {
	Policy    *ocp.LinearPolicy
	Reference *ocp.Trajectory
	Trace     []float64
}

// Solver iterates rollout, linearization, a regularized backward pass and a
// feedforward line search until the cost improvement stalls. A Solver is
// reused across receding-horizon steps; it is not safe for concurrent use.
type Solver struct {
	prob Problem
	opts Hyperparameters
	n, m int
	ws   *workspace
}

func NewSolver(prob Problem, opts Hyperparameters) (*Solver, error) {
	if prob.Dynamics == nil {
		return nil, fmt.Errorf("ilqr: nil dynamics")
	}
	if prob.Cost == nil {
		return nil, fmt.Errorf("ilqr: nil cost model")
	}
	if prob.StateSpace == nil || prob.ActionSpace == nil {
		return nil, fmt.Errorf("ilqr: nil state or action space")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	n := prob.Dynamics.StateDim()
	m := prob.Dynamics.ControlDim()
	if n < 1 || m < 1 {
		return nil, fmt.Errorf("%w: dynamics reports dimensions (%d,%d)", ocp.ErrShapeMismatch, n, m)
	}
	if prob.StateSpace.Dim() != n {
		return nil, fmt.Errorf("%w: state space has dimension %d, dynamics wants %d",
			ocp.ErrShapeMismatch, prob.StateSpace.Dim(), n)
	}
	if prob.ActionSpace.Dim() != m {
		return nil, fmt.Errorf("%w: action space has dimension %d, dynamics wants %d",
			ocp.ErrShapeMismatch, prob.ActionSpace.Dim(), m)
	}

	return &Solver{prob: prob, opts: opts, n: n, m: m}, nil
}

// Solve improves policy and reference starting from x0. The incoming
// arguments are read but never mutated; warm-starting means passing the
// previous Solution's policy and reference back in.
func (s *Solver) Solve(ctx context.Context, x0 ocp.State, policy *ocp.LinearPolicy, reference *ocp.Trajectory) (*Solution, error) {
	if len(x0) != s.n {
		return nil, fmt.Errorf("%w: initial state has %d entries, want %d", ocp.ErrShapeMismatch, len(x0), s.n)
	}
	if policy == nil || reference == nil {
		return nil, fmt.Errorf("%w: nil policy or reference", ocp.ErrShapeMismatch)
	}
	horizon := policy.Horizon()
	if horizon < 1 {
		return nil, fmt.Errorf("%w: empty policy horizon", ocp.ErrShapeMismatch)
	}
	if reference.Horizon() != horizon || len(reference.States) != horizon+1 {
		return nil, fmt.Errorf("%w: policy horizon %d, reference horizon %d",
			ocp.ErrShapeMismatch, horizon, reference.Horizon())
	}
	if len(reference.States[0]) != s.n || len(reference.Actions[0]) != s.m {
		return nil, fmt.Errorf("%w: reference dimensions do not match problem", ocp.ErrShapeMismatch)
	}
	if gr, gc := policy.K[0].Dims(); gr != s.m || gc != s.n {
		return nil, fmt.Errorf("%w: policy gains are %dx%d, want %dx%d",
			ocp.ErrShapeMismatch, gr, gc, s.m, s.n)
	}
	if !x0.IsValid() {
		return nil, &ocp.SolveError{Step: -1, Iter: 0, Wrapped: ocp.ErrNumericalDivergence}
	}

	s.ensureWorkspace(horizon)

	start := ocp.State(s.prob.StateSpace.Clip(x0))

	best, bestCost := s.rollout(policy, reference, start, 1.0)
	if !isFinite(bestCost) || !best.IsValid() {
		return nil, &ocp.SolveError{Step: -1, Iter: 0, Wrapped: ocp.ErrNumericalDivergence}
	}

	trace := make([]float64, 0, s.opts.MaxIter+1)
	trace = append(trace, bestCost)
	retPolicy := policy

	for iter := 1; iter <= s.opts.MaxIter; iter++ {
		select {
		case <-ctx.Done():
			return nil, &ocp.SolveError{
				Step:    -1,
				Iter:    iter,
				Wrapped: fmt.Errorf("%w: %w", ocp.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		s.linearize(best)
		if err := s.backwardPass(); err != nil {
			return nil, &ocp.SolveError{Step: -1, Iter: iter, Wrapped: err}
		}

		accepted := false
		prevCost := bestCost
		candidate := &ocp.LinearPolicy{K: s.ws.K, Kff: s.ws.kff}
		for _, alpha := range s.opts.Alphas {
			cand, candCost := s.rollout(candidate, best, start, alpha)
			if !isFinite(candCost) || !cand.IsValid() {
				continue
			}
			if candCost < bestCost {
				retPolicy = snapshotPolicy(s.ws.K, s.ws.kff, alpha)
				best = cand
				bestCost = candCost
				trace = append(trace, bestCost)
				accepted = true
				break
			}
		}

		if !accepted {
			// Line search exhausted: the current trajectory stands.
			break
		}
		if prevCost-bestCost < s.opts.CostTol*math.Max(math.Abs(prevCost), 1.0) {
			break
		}
	}

	return &Solution{Policy: retPolicy, Reference: best, Trace: trace}, nil
}

// rollout simulates the policy applied around ref from start, clipping
// actions and states into their boxes, and returns the trajectory with its
// total cost. A NaN cost signals divergence.
func (s *Solver) rollout(p *ocp.LinearPolicy, ref *ocp.Trajectory, start ocp.State, alpha float64) (*ocp.Trajectory, float64) {
	horizon := p.Horizon()
	traj := &ocp.Trajectory{
		States:  make([]ocp.State, horizon+1),
		Actions: make([]ocp.Control, horizon),
	}

	x := start.Clone()
	traj.States[0] = x
	total := 0.0

	for k := 0; k < horizon; k++ {
		u := ocp.Control(s.prob.ActionSpace.Clip(p.ScaledAction(k, x, ref, alpha)))
		traj.Actions[k] = u

		total += s.prob.Cost.Stage(x, u, k)

		next := ocp.State(s.prob.StateSpace.Clip(s.prob.Dynamics.Step(x, u, k)))
		traj.States[k+1] = next
		if !next.IsValid() {
			return traj, math.NaN()
		}
		x = next
	}

	total += s.prob.Cost.Final(traj.States[horizon])
	return traj, total
}

func snapshotPolicy(gains []*mat.Dense, feedforward []ocp.Control, alpha float64) *ocp.LinearPolicy {
	p := &ocp.LinearPolicy{
		K:   make([]*mat.Dense, len(gains)),
		Kff: make([]ocp.Control, len(feedforward)),
	}
	for k := range gains {
		p.K[k] = mat.DenseCopyOf(gains[k])
		ff := make(ocp.Control, len(feedforward[k]))
		for i := range ff {
			ff[i] = alpha * feedforward[k][i]
		}
		p.Kff[k] = ff
	}
	return p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
