package models

import (
	"fmt"
	"math"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// DoublePendulum is a two-link pendulum driven by a torque on the first
// joint only. State is [angle1, angle2, velocity1, velocity2] with both
// angles zero hanging down, so the fully inverted equilibrium sits at
// [pi, pi].
type DoublePendulum struct {
	Mass1   float64
	Mass2   float64
	Length1 float64
	Length2 float64
	Gravity float64
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		Mass1:   1.0,
		Mass2:   1.0,
		Length1: 1.0,
		Length2: 1.0,
		Gravity: 9.81,
	}
}

func (d *DoublePendulum) StateDim() int {
	return 4
}

func (d *DoublePendulum) ControlDim() int {
	return 1
}

func (d *DoublePendulum) Derive(x ocp.State, u ocp.Control, t float64) ocp.State {
	theta1, theta2 := x[0], x[1]
	omega1, omega2 := x[2], x[3]
	m1, m2 := d.Mass1, d.Mass2
	l1, l2 := d.Length1, d.Length2
	g := d.Gravity

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}

	delta := theta2 - theta1
	sinD, cosD := math.Sin(delta), math.Cos(delta)

	den1 := (m1+m2)*l1 - m2*l1*cosD*cosD
	den2 := (l2 / l1) * den1

	alpha1 := (m2*l1*omega1*omega1*sinD*cosD +
		m2*g*math.Sin(theta2)*cosD +
		m2*l2*omega2*omega2*sinD -
		(m1+m2)*g*math.Sin(theta1) + torque) / den1

	alpha2 := (-m2*l2*omega2*omega2*sinD*cosD +
		(m1+m2)*g*math.Sin(theta1)*cosD -
		(m1+m2)*l1*omega1*omega1*sinD -
		(m1+m2)*g*math.Sin(theta2)) / den2

	return ocp.State{omega1, omega2, alpha1, alpha2}
}

// Energy is zero at rest in the hanging configuration.
func (d *DoublePendulum) Energy(x ocp.State) float64 {
	theta1, theta2 := x[0], x[1]
	omega1, omega2 := x[2], x[3]
	m1, m2 := d.Mass1, d.Mass2
	l1, l2 := d.Length1, d.Length2
	g := d.Gravity

	v1sq := l1 * l1 * omega1 * omega1
	v2sq := v1sq + l2*l2*omega2*omega2 +
		2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)
	ke := 0.5*m1*v1sq + 0.5*m2*v2sq

	h1 := l1 * (1 - math.Cos(theta1))
	h2 := h1 + l2*(1-math.Cos(theta2))
	pe := m1*g*h1 + m2*g*h2

	return ke + pe
}

func (d *DoublePendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass1":   d.Mass1,
		"mass2":   d.Mass2,
		"length1": d.Length1,
		"length2": d.Length2,
		"gravity": d.Gravity,
	}
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass1":
		d.Mass1 = value
	case "mass2":
		d.Mass2 = value
	case "length1":
		d.Length1 = value
	case "length2":
		d.Length2 = value
	case "gravity":
		d.Gravity = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
