package universe

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

// WriteReport prints the body count, the radius and one line per body:
// position, velocity, mass and tag. The output is itself a valid input file.
func WriteReport(w io.Writer, radius float64, v physics.View) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", v.Len())
	fmt.Fprintf(bw, "%.2e\n", radius)
	for i := 0; i < v.Len(); i++ {
		b := v.At(i)
		fmt.Fprintf(bw, "%s %s %s %s %s %12s\n",
			field(b.X()), field(b.Y()), field(b.VX()), field(b.VY()), field(b.Mass()), b.Tag())
	}
	return bw.Flush()
}

// Write prints u in report format.
func (u *Universe) Write(w io.Writer) error {
	return WriteReport(w, u.Radius, u.View())
}

// field formats one %11.4e column. Infinities print as Infinity and
// -Infinity instead of Go's +Inf and -Inf; Read accepts both spellings.
func field(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return fmt.Sprintf("%11s", "Infinity")
	case math.IsInf(v, -1):
		return fmt.Sprintf("%11s", "-Infinity")
	}
	return fmt.Sprintf("%11.4e", v)
}
