package ocp

import (
	"errors"
	"fmt"
)

// Domain errors for trajectory optimization.
var (
	// ErrShapeMismatch indicates collaborators disagree on dimensions.
	ErrShapeMismatch = errors.New("ocp: shape mismatch")

	// ErrBadBounds indicates malformed box bounds.
	ErrBadBounds = errors.New("ocp: invalid box bounds")

	// ErrNumericalDivergence indicates a rollout produced NaN or Inf.
	ErrNumericalDivergence = errors.New("ocp: numerical divergence (NaN or Inf in trajectory)")

	// ErrNotPositiveDefinite indicates the control Hessian stayed indefinite
	// after exhausting regularization.
	ErrNotPositiveDefinite = errors.New("ocp: control Hessian not positive definite")

	// ErrContextCanceled indicates the solve was interrupted.
	ErrContextCanceled = errors.New("ocp: solve canceled by context")
)

// SolveError wraps an error with solver context. Step is the receding-horizon
// step, or -1 for a standalone solve; Iter is the solver iteration.
type SolveError struct {
	Step    int
	Iter    int
	Wrapped error
}

func (e *SolveError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("solve iteration %d: %v", e.Iter, e.Wrapped)
	}
	return fmt.Sprintf("step %d, solve iteration %d: %v", e.Step, e.Iter, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
