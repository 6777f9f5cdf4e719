package metrics

import (
	"github.com/gokhanalcan/tox/internal/ocp"
)

// Energy tracks the mean mechanical energy over a run. Useful for swing-up
// tasks where the controller has to pump energy into the system.
type Energy struct {
	name    string
	sys     ocp.Hamiltonian
	sum     float64
	samples int
}

func NewEnergy(sys ocp.Hamiltonian) *Energy {
	return &Energy{
		name: "energy",
		sys:  sys,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x ocp.State, u ocp.Control, t float64) {
	e.sum += e.sys.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Energy) Reset() {
	e.sum = 0
	e.samples = 0
}
