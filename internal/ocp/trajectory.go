package ocp

// Trajectory holds a state sequence over [0, H] and the actions over
// [0, H-1] that produced it.
type Trajectory struct {
	States  []State
	Actions []Control
}

// NewTrajectory returns a zero trajectory with the given horizon.
func NewTrajectory(horizon, stateDim, controlDim int) *Trajectory {
	tr := &Trajectory{
		States:  make([]State, horizon+1),
		Actions: make([]Control, horizon),
	}
	for k := range tr.States {
		tr.States[k] = make(State, stateDim)
	}
	for k := range tr.Actions {
		tr.Actions[k] = make(Control, controlDim)
	}
	return tr
}

func (tr *Trajectory) Horizon() int { return len(tr.Actions) }

func (tr *Trajectory) Clone() *Trajectory {
	c := &Trajectory{
		States:  make([]State, len(tr.States)),
		Actions: make([]Control, len(tr.Actions)),
	}
	for k, x := range tr.States {
		c.States[k] = x.Clone()
	}
	for k, u := range tr.Actions {
		c.Actions[k] = u.Clone()
	}
	return c
}

// IsValid reports whether every state and action is finite.
func (tr *Trajectory) IsValid() bool {
	for _, x := range tr.States {
		if !x.IsValid() {
			return false
		}
	}
	for _, u := range tr.Actions {
		if !u.IsValid() {
			return false
		}
	}
	return true
}
