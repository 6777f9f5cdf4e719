package metrics

import (
	"math"

	"github.com/gokhanalcan/tox/internal/models"
	"github.com/gokhanalcan/tox/internal/ocp"
)

// GoalDistance tracks how far the state is from a goal, wrapping the marked
// angular coordinates so that distance is measured along the circle.
type GoalDistance struct {
	name    string
	goal    ocp.State
	wrap    []bool
	current float64
	min     float64
	samples int
}

func NewGoalDistance(goal ocp.State, wrapIdx []int) *GoalDistance {
	wrap := make([]bool, len(goal))
	for _, i := range wrapIdx {
		if i >= 0 && i < len(goal) {
			wrap[i] = true
		}
	}
	return &GoalDistance{
		name: "goal_distance",
		goal: goal.Clone(),
		wrap: wrap,
		min:  math.Inf(1),
	}
}

func (g *GoalDistance) Name() string { return g.name }

func (g *GoalDistance) Observe(x ocp.State, u ocp.Control, t float64) {
	if len(x) != len(g.goal) {
		return
	}
	sum := 0.0
	for i := range x {
		d := x[i] - g.goal[i]
		if g.wrap[i] {
			d = models.WrapAngle(d)
		}
		sum += d * d
	}
	g.current = math.Sqrt(sum)
	g.min = math.Min(g.min, g.current)
	g.samples++
}

// Value reports the distance at the most recent observation.
func (g *GoalDistance) Value() float64 {
	if g.samples == 0 {
		return math.Inf(1)
	}
	return g.current
}

// Min reports the smallest distance seen during the run.
func (g *GoalDistance) Min() float64 { return g.min }

func (g *GoalDistance) Reset() {
	g.current = 0
	g.min = math.Inf(1)
	g.samples = 0
}
