package mpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Session steps one run incrementally. Loop.Run drives a Session to
// completion; the live terminal view drives one solve per frame instead.
type Session struct {
	loop      *Loop
	x         ocp.State
	policy    *ocp.LinearPolicy
	reference *ocp.Trajectory
	step      int
	result    *Result
}

// StepInfo describes one applied control step.
type StepInfo struct {
	Step   int
	State  ocp.State
	Action ocp.Control
	Cost   float64
	Iters  int
}

// Start prepares a run from x0: a zero-gain policy with a small seeded
// random feedforward, a zero reference, and reset metrics.
func (l *Loop) Start(x0 ocp.State) (*Session, error) {
	n := l.prob.Dynamics.StateDim()
	m := l.prob.Dynamics.ControlDim()
	if len(x0) != n {
		return nil, fmt.Errorf("%w: initial state has %d entries, want %d", ocp.ErrShapeMismatch, len(x0), n)
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("mpc: %w: initial state is not finite", ocp.ErrNumericalDivergence)
	}

	rng := rand.New(rand.NewSource(l.cfg.Seed))
	policy := ocp.NewRandomPolicy(l.cfg.Horizon, n, m, l.cfg.FeedforwardScale, rng)
	reference := ocp.NewTrajectory(l.cfg.Horizon, n, m)

	for _, metric := range l.metrics {
		metric.Reset()
	}

	result := &Result{
		States:  make([]ocp.State, 0, l.cfg.Steps+1),
		Actions: make([]ocp.Control, 0, l.cfg.Steps),
		Costs:   make([]float64, 0, l.cfg.Steps),
		Iters:   make([]int, 0, l.cfg.Steps),
		Times:   make([]float64, 0, l.cfg.Steps+1),
		Metrics: make(map[string]float64),
	}

	x := x0.Clone()
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, 0)

	return &Session{
		loop:      l,
		x:         x,
		policy:    policy,
		reference: reference,
		result:    result,
	}, nil
}

// Done reports whether all configured steps have been applied.
func (s *Session) Done() bool { return s.step >= s.loop.cfg.Steps }

// State returns a copy of the current true state.
func (s *Session) State() ocp.State { return s.x.Clone() }

// Step runs one solve-apply-advance cycle: re-plan from the current true
// state warm-started with the previous solution, apply the first planned
// action, advance the true state and clip it into the state space.
func (s *Session) Step(ctx context.Context) (StepInfo, error) {
	if s.Done() {
		return StepInfo{}, fmt.Errorf("mpc: run already complete after %d steps", s.loop.cfg.Steps)
	}
	select {
	case <-ctx.Done():
		return StepInfo{}, fmt.Errorf("mpc: step %d: %w", s.step, ctx.Err())
	default:
	}

	sol, err := s.loop.solver.Solve(ctx, s.x, s.policy, s.reference)
	if err != nil {
		var se *ocp.SolveError
		if errors.As(err, &se) {
			return StepInfo{}, &ocp.SolveError{Step: s.step, Iter: se.Iter, Wrapped: se.Wrapped}
		}
		return StepInfo{}, fmt.Errorf("mpc: step %d: %w", s.step, err)
	}

	u := sol.Reference.Actions[0].Clone()
	cost := sol.Trace[len(sol.Trace)-1]
	iters := len(sol.Trace) - 1
	now := float64(s.step) * s.loop.period

	for _, metric := range s.loop.metrics {
		metric.Observe(s.x, u, now)
	}
	for _, obs := range s.loop.observers {
		obs.OnStep(s.step, cost, iters)
	}

	next := ocp.State(s.loop.prob.StateSpace.Clip(s.loop.prob.Dynamics.Step(s.x, u, s.step)))
	if !next.IsValid() {
		return StepInfo{}, &ocp.SolveError{Step: s.step, Iter: 0, Wrapped: ocp.ErrNumericalDivergence}
	}

	s.x = next
	s.policy = sol.Policy
	s.reference = sol.Reference
	s.step++

	s.result.States = append(s.result.States, next.Clone())
	s.result.Actions = append(s.result.Actions, u)
	s.result.Costs = append(s.result.Costs, cost)
	s.result.Iters = append(s.result.Iters, iters)
	s.result.Times = append(s.result.Times, float64(s.step)*s.loop.period)

	return StepInfo{
		Step:   s.step - 1,
		State:  next.Clone(),
		Action: u.Clone(),
		Cost:   cost,
		Iters:  iters,
	}, nil
}

// Result returns the record accumulated so far with current metric values.
func (s *Session) Result() *Result {
	for _, metric := range s.loop.metrics {
		s.result.Metrics[metric.Name()] = metric.Value()
	}
	return s.result
}
