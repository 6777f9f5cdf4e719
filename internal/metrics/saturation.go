package metrics

import (
	"math"

	"github.com/gokhanalcan/tox/internal/ocp"
)

// Saturation measures the fraction of steps where the applied action sits on
// an action-space bound. Persistent saturation means the task is actuation
// limited at the current weights.
type Saturation struct {
	name      string
	box       *ocp.Box
	tol       float64
	saturated int
	samples   int
}

func NewSaturation(box *ocp.Box) *Saturation {
	return &Saturation{
		name: "saturation",
		box:  box,
		tol:  1e-9,
	}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(x ocp.State, u ocp.Control, t float64) {
	s.samples++
	for i, val := range u {
		if i >= s.box.Dim() {
			break
		}
		lo, hi := s.box.Bounds(i)
		if math.Abs(val-lo) <= s.tol || math.Abs(val-hi) <= s.tol {
			s.saturated++
			break
		}
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}
