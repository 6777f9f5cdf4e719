package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// PlotSeries renders one series as an ASCII chart with a caption.
func PlotSeries(data []float64, caption string) string {
	if len(data) < 2 {
		return fmt.Sprintf("%s: not enough samples to plot", caption)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotTrace charts solver cost over accepted iterations.
func PlotTrace(trace []float64) string {
	return PlotSeries(trace, "cost per accepted iteration")
}

// PlotStates charts each state component against the sample index, one
// chart per component. Components beyond len(labels) are captioned x<i>.
func PlotStates(states [][]float64, labels []string) string {
	if len(states) == 0 {
		return "no states to plot"
	}
	var b strings.Builder
	for i := range states[0] {
		data := make([]float64, len(states))
		for k := range states {
			data[k] = states[k][i]
		}
		caption := fmt.Sprintf("x%d", i)
		if i < len(labels) && labels[i] != "" {
			caption = labels[i]
		}
		b.WriteString(PlotSeries(data, caption))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// PlotActions charts each control component against the sample index.
func PlotActions(actions [][]float64) string {
	if len(actions) == 0 {
		return "no actions to plot"
	}
	var b strings.Builder
	for i := range actions[0] {
		data := make([]float64, len(actions))
		for k := range actions {
			data[k] = actions[k][i]
		}
		b.WriteString(PlotSeries(data, fmt.Sprintf("u%d (applied action)", i)))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// StateLabels returns chart captions for the built-in models, nil for
// anything else.
func StateLabels(model string) []string {
	switch model {
	case "pendulum":
		return []string{"theta (angle)", "omega (angular velocity)"}
	case "cartpole":
		return []string{"cart position", "cart velocity", "pole angle", "pole angular velocity"}
	case "double_pendulum":
		return []string{"joint 1 angle", "joint 2 angle", "joint 1 velocity", "joint 2 velocity"}
	case "drone":
		return []string{"x position", "y position", "tilt angle", "x velocity", "y velocity", "angular velocity"}
	}
	return nil
}
