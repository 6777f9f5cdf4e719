package store

import (
	"fmt"
	"io"
	"strings"
)

const (
	svgWidth  = 720
	svgHeight = 360
	svgMargin = 20
)

var svgPalette = []string{"#00ff88", "#ffcc00", "#ff4444", "#66aaff", "#cc66ff", "#00e5e5"}

// ExportSVG writes the state trajectory as a line chart, one path per state
// component, time along the horizontal axis. Components beyond len(labels)
// are legended x<i>.
func ExportSVG(w io.Writer, states [][]float64, times []float64, labels []string) error {
	if len(states) < 2 {
		return fmt.Errorf("store: need at least 2 samples to chart, got %d", len(states))
	}
	if len(times) != len(states) {
		return fmt.Errorf("store: %d states with %d times", len(states), len(times))
	}

	dim := len(states[0])
	minV, maxV := states[0][0], states[0][0]
	for _, s := range states {
		if len(s) != dim {
			return fmt.Errorf("store: ragged state rows: %d and %d", dim, len(s))
		}
		for _, v := range s {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}

	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	maxV += rangeV * 0.1
	rangeV = maxV - minV

	minT := times[0]
	rangeT := times[len(times)-1] - minT
	if rangeT == 0 {
		rangeT = 1
	}

	plotW := float64(svgWidth - 2*svgMargin)
	plotH := float64(svgHeight - 2*svgMargin)

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		svgWidth, svgHeight, svgWidth, svgHeight)
	b.WriteString("<rect width=\"100%\" height=\"100%\" fill=\"#0a0a0a\"/>\n")

	for i := 0; i < dim; i++ {
		fmt.Fprintf(&b, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", svgPalette[i%len(svgPalette)])
		for k, s := range states {
			x := svgMargin + (times[k]-minT)/rangeT*plotW
			y := svgMargin + plotH - (s[i]-minV)/rangeV*plotH
			if k == 0 {
				fmt.Fprintf(&b, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&b, " L%.1f,%.1f", x, y)
			}
		}
		b.WriteString("\"/>\n")
	}

	for i := 0; i < dim; i++ {
		label := fmt.Sprintf("x%d", i)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		fmt.Fprintf(&b, "<text x=\"%d\" y=\"%d\" font-family=\"monospace\" font-size=\"12\" fill=\"%s\">%s</text>\n",
			svgMargin+4, svgMargin+14+16*i, svgPalette[i%len(svgPalette)], label)
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}
