// Package viz renders n-body runs in the terminal.
//
//   - [LiveModel]: Bubble Tea model that steps a simulator and draws the
//     bodies with their trails on a braille [Canvas]
//   - [Summary]: lipgloss panel describing a stored run
//   - [PlotBody], [PlotSeries] and [Orbits]: static plots of recorded
//     trajectories
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Q     - Quit
package viz
