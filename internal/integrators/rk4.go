package integrators

import "github.com/gokhanalcan/tox/internal/ocp"

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys ocp.System, x ocp.State, u ocp.Control, t, dt float64) ocp.State {
	n := len(x)
	scratch := make(ocp.State, n)

	k1 := sys.Derive(x, u, t)
	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := sys.Derive(scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := sys.Derive(scratch, u, t+dt*0.5)

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4 := sys.Derive(scratch, u, t+dt)

	result := make(ocp.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result
}
