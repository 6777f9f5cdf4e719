package integrators

import "github.com/gokhanalcan/tox/internal/ocp"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys ocp.System, x ocp.State, u ocp.Control, t, dt float64) ocp.State {
	dx := sys.Derive(x, u, t)
	result := make(ocp.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
