package viz

import (
	"fmt"
	"math"
	"strings"
)

const (
	phaseWidth  = 40
	phaseHeight = 15
)

// PhaseIndices picks the two state components worth plotting against each
// other: an angle and its rate for the known models, the first two
// components otherwise.
func PhaseIndices(model string) (int, int) {
	switch model {
	case "cartpole":
		return 2, 3
	case "double_pendulum":
		return 0, 2
	case "drone":
		return 2, 5
	}
	return 0, 1
}

// PlotPhase draws the trajectory of two state components against each other
// on a braille canvas, with dotted zero axes where they cross the window.
func PlotPhase(states [][]float64, xIdx, yIdx int, labels []string) string {
	if len(states) < 2 {
		return "not enough samples for a phase portrait"
	}
	if xIdx < 0 || yIdx < 0 || xIdx >= len(states[0]) || yIdx >= len(states[0]) {
		return fmt.Sprintf("state has no component pair (%d, %d)", xIdx, yIdx)
	}

	minX, maxX := states[0][xIdx], states[0][xIdx]
	minY, maxY := states[0][yIdx], states[0][yIdx]
	for _, s := range states {
		minX = math.Min(minX, s[xIdx])
		maxX = math.Max(maxX, s[xIdx])
		minY = math.Min(minY, s[yIdx])
		maxY = math.Max(maxY, s[yIdx])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	c := NewCanvas(phaseWidth, phaseHeight)
	pw := phaseWidth*2 - 1
	ph := phaseHeight*4 - 1

	toPixel := func(x, y float64) (int, int) {
		px := int((x - minX) / rangeX * float64(pw))
		py := ph - int((y-minY)/rangeY*float64(ph))
		return px, py
	}

	if minX <= 0 && maxX >= 0 {
		ax, _ := toPixel(0, minY)
		for py := 0; py <= ph; py += 3 {
			c.Set(ax, py)
		}
	}
	if minY <= 0 && maxY >= 0 {
		_, ay := toPixel(minX, 0)
		for px := 0; px <= pw; px += 3 {
			c.Set(px, ay)
		}
	}

	x0, y0 := toPixel(states[0][xIdx], states[0][yIdx])
	for _, s := range states[1:] {
		x1, y1 := toPixel(s[xIdx], s[yIdx])
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}

	var b strings.Builder
	b.WriteString(c.String())
	fmt.Fprintf(&b, "phase portrait: %s vs %s\n", axisLabel(labels, yIdx), axisLabel(labels, xIdx))
	fmt.Fprintf(&b, "x: [%.2f, %.2f]  y: [%.2f, %.2f]", minX, maxX, minY, maxY)
	return b.String()
}

func axisLabel(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}
