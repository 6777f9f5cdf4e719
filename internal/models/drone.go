package models

import (
	"fmt"
	"math"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Drone is a planar birotor: two thrusters on arms either side of the
// center of mass. State is [x, y, angle, vx, vy, angular velocity] with
// angle zero level; controls are the left and right rotor thrusts. Thrust
// limits live in the action box, keeping the dynamics smooth for the
// planner.
type Drone struct {
	Mass      float64
	Inertia   float64
	ArmLength float64
	Gravity   float64
	Drag      float64
	AngDrag   float64
}

func NewDrone() *Drone {
	return &Drone{
		Mass:      1.0,
		Inertia:   0.1,
		ArmLength: 0.25,
		Gravity:   9.81,
		Drag:      0.1,
		AngDrag:   0.05,
	}
}

func (d *Drone) StateDim() int {
	return 6
}

func (d *Drone) ControlDim() int {
	return 2
}

func (d *Drone) Derive(x ocp.State, u ocp.Control, t float64) ocp.State {
	theta := x[2]
	vx, vy, omega := x[3], x[4], x[5]

	left, right := 0.0, 0.0
	if len(u) >= 2 {
		left, right = u[0], u[1]
	}

	thrust := left + right
	torque := (right - left) * d.ArmLength

	sint, cost := math.Sin(theta), math.Cos(theta)
	ax := (-thrust*sint - d.Drag*vx) / d.Mass
	ay := (thrust*cost-d.Drag*vy)/d.Mass - d.Gravity
	alpha := (torque - d.AngDrag*omega) / d.Inertia

	return ocp.State{vx, vy, omega, ax, ay, alpha}
}

// HoverThrust is the per-rotor thrust that cancels gravity in level flight.
func (d *Drone) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

func (d *Drone) Energy(x ocp.State) float64 {
	y := x[1]
	vx, vy, omega := x[3], x[4], x[5]
	ke := 0.5*d.Mass*(vx*vx+vy*vy) + 0.5*d.Inertia*omega*omega
	return ke + d.Mass*d.Gravity*y
}

func (d *Drone) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"inertia":    d.Inertia,
		"arm_length": d.ArmLength,
		"gravity":    d.Gravity,
		"drag":       d.Drag,
		"ang_drag":   d.AngDrag,
	}
}

func (d *Drone) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		d.Mass = value
	case "inertia":
		d.Inertia = value
	case "arm_length":
		d.ArmLength = value
	case "gravity":
		d.Gravity = value
	case "drag":
		d.Drag = value
	case "ang_drag":
		d.AngDrag = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
