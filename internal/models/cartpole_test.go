package models

import (
	"math"
	"testing"

	"github.com/gokhanalcan/tox/internal/ocp"
)

func TestCartPoleDimensions(t *testing.T) {
	c := NewCartPole()

	if c.StateDim() != 4 {
		t.Errorf("expected state dim 4, got %d", c.StateDim())
	}
	if c.ControlDim() != 1 {
		t.Errorf("expected control dim 1, got %d", c.ControlDim())
	}
}

func TestCartPoleUprightEquilibrium(t *testing.T) {
	c := NewCartPole()

	dx := c.Derive(ocp.State{0, 0, 0, 0}, ocp.Control{0}, 0)

	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("expected zero derivative at upright rest, got dx[%d]=%f", i, v)
		}
	}
}

func TestCartPoleFallsFromTilt(t *testing.T) {
	c := NewCartPole()

	// Tilted with no force, the pole accelerates away from upright.
	dx := c.Derive(ocp.State{0, 0, 0.1, 0}, ocp.Control{0}, 0)

	if dx[3] <= 0 {
		t.Errorf("expected pole to fall further, got angular acceleration %f", dx[3])
	}
}

func TestCartPoleForceAcceleratesCart(t *testing.T) {
	c := NewCartPole()

	dx := c.Derive(ocp.State{0, 0, 0, 0}, ocp.Control{5}, 0)

	if dx[1] <= 0 {
		t.Errorf("expected positive cart acceleration under positive force, got %f", dx[1])
	}
}

func TestCartPoleParams(t *testing.T) {
	c := NewCartPole()

	if err := c.SetParam("pole_length", 0.5); err != nil {
		t.Fatal(err)
	}
	if c.GetParams()["pole_length"] != 0.5 {
		t.Error("SetParam did not update pole_length")
	}
	if err := c.SetParam("bogus", 1.0); err == nil {
		t.Error("SetParam accepted unknown name")
	}
}
