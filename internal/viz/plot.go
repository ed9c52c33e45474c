package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/nhuang-x/nbody-simulation/internal/storage"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// PlotSeries draws one series with asciigraph.
func PlotSeries(values []float64, caption string) string {
	return asciigraph.Plot(values,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotBody draws the x and y coordinates of one body against sample index.
func PlotBody(traj *storage.Trajectory, body int) (string, error) {
	if body < 0 || body >= traj.Bodies() {
		return "", fmt.Errorf("body %d out of range [0, %d)", body, traj.Bodies())
	}
	if len(traj.States) == 0 {
		return "", fmt.Errorf("no samples recorded")
	}

	xs := traj.Series(body, 0)
	ys := traj.Series(body, 1)

	return asciigraph.PlotMany([][]float64{xs, ys},
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(fmt.Sprintf("%s: x (red), y (blue) over %d samples", traj.Labels[body], len(xs))),
	), nil
}

// Orbits draws every recorded position onto a braille canvas covering
// [-radius, radius].
func Orbits(traj *storage.Trajectory, radius float64, cols, rows int) string {
	c := NewCanvas(cols, rows, radius)
	for _, state := range traj.States {
		for k := 0; k+1 < len(state); k += 4 {
			c.Plot(state[k], state[k+1])
		}
	}
	if n := len(traj.States); n > 0 {
		last := traj.States[n-1]
		for k := 0; k+1 < len(last); k += 4 {
			c.Mark(last[k], last[k+1])
		}
	}
	return canvasStyle.Render(c.String())
}
