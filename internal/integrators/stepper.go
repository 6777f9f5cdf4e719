package integrators

import "github.com/gokhanalcan/tox/internal/ocp"

// Stepper advances a continuous-time system by one fixed step. Implementations
// hold no mutable state and are safe for concurrent use.
type Stepper interface {
	Step(sys ocp.System, x ocp.State, u ocp.Control, t, dt float64) ocp.State
}
