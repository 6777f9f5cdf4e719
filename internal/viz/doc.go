// Package viz renders planning runs in the terminal.
//
// The package provides static charts for stored runs and a live view
// built on the Bubble Tea framework:
//
//   - [Canvas]: braille pixel buffer for the animated view
//   - [Model]: Bubble Tea program running one planning cycle per frame
//   - [PlotStates], [PlotActions], [PlotTrace]: asciigraph charts
//   - [Summary]: styled end-of-run report
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial state
//	Q     - Quit
package viz
