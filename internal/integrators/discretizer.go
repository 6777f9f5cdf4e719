package integrators

import (
	"fmt"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Discretizer turns a continuous-time system into a discrete transition map
// by integrating a fixed number of sub-steps under a zero-order hold: the
// action stays constant across the whole control step.
type Discretizer struct {
	sys      ocp.System
	stepper  Stepper
	dt       float64
	substeps int
}

func Discretize(sys ocp.System, st Stepper, simStep float64, downsampling int) (*Discretizer, error) {
	if sys == nil {
		return nil, fmt.Errorf("integrators: nil system")
	}
	if st == nil {
		return nil, fmt.Errorf("integrators: nil stepper")
	}
	if simStep <= 0 {
		return nil, fmt.Errorf("integrators: simulation step must be positive, got %v", simStep)
	}
	if downsampling < 1 {
		return nil, fmt.Errorf("integrators: downsampling must be at least 1, got %d", downsampling)
	}
	return &Discretizer{sys: sys, stepper: st, dt: simStep, substeps: downsampling}, nil
}

// ControlPeriod is the wall-clock duration of one discrete step.
func (d *Discretizer) ControlPeriod() float64 { return d.dt * float64(d.substeps) }

func (d *Discretizer) StateDim() int   { return d.sys.StateDim() }
func (d *Discretizer) ControlDim() int { return d.sys.ControlDim() }

// System returns the underlying continuous-time model.
func (d *Discretizer) System() ocp.System { return d.sys }

func (d *Discretizer) Step(x ocp.State, u ocp.Control, k int) ocp.State {
	t := float64(k) * d.ControlPeriod()
	cur := x
	for i := 0; i < d.substeps; i++ {
		cur = d.stepper.Step(d.sys, cur, u, t, d.dt)
		t += d.dt
	}
	return cur
}
