package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/nhuang-x/nbody-simulation/internal/storage"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffcc00", "#00ff88", "#ff6b6b", "#0088ff", "#ff9ff3", "#ffffff"}

// OrbitsSVG writes one polyline per body of traj onto a size x size square
// covering [-radius, radius]. Non-finite samples break the line.
func OrbitsSVG(w io.Writer, traj *storage.Trajectory, radius float64, size int) error {
	if radius <= 0 {
		return fmt.Errorf("radius must be positive, got %g", radius)
	}
	if size <= 0 {
		return fmt.Errorf("size must be positive, got %d", size)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size)

	project := func(x, y float64) (float64, float64) {
		return (x/radius + 1) / 2 * float64(size), (1 - y/radius) / 2 * float64(size)
	}

	for k := 0; k < traj.Bodies(); k++ {
		color := palette[k%len(palette)]
		xs, ys := traj.Series(k, 0), traj.Series(k, 1)

		fmt.Fprintf(bw, `<path fill="none" stroke="%s" stroke-width="1" data-body="%s" d="`, color, traj.Labels[k])
		pen := false
		for i := range xs {
			if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(xs[i], 0) || math.IsInf(ys[i], 0) {
				pen = false
				continue
			}
			px, py := project(xs[i], ys[i])
			if pen {
				fmt.Fprintf(bw, " L%.1f,%.1f", px, py)
			} else {
				fmt.Fprintf(bw, "M%.1f,%.1f", px, py)
				pen = true
			}
		}
		bw.WriteString("\"/>\n")

		if n := len(xs); n > 0 && !math.IsNaN(xs[n-1]) && !math.IsNaN(ys[n-1]) {
			px, py := project(xs[n-1], ys[n-1])
			fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", px, py, color)
		}
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}
