package universe

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

const (
	clusterCentralMass = 2.0e30
	clusterInner       = 1.0e10
	clusterOuter       = 2.0e11
)

// Cluster returns a seeded disk of n bodies: one central star and n-1 light
// bodies on roughly circular orbits around it.
func Cluster(n int, seed int64) *Universe {
	rng := rand.New(rand.NewSource(seed))
	u := &Universe{Radius: 1.25 * clusterOuter, Bodies: make([]physics.Body, 0, n)}
	if n <= 0 {
		return u
	}

	u.Bodies = append(u.Bodies, physics.New(0, 0, 0, 0, clusterCentralMass, "core"))
	for i := 1; i < n; i++ {
		r := clusterInner + rng.Float64()*(clusterOuter-clusterInner)
		phi := rng.Float64() * 2 * math.Pi
		speed := math.Sqrt(physics.G * clusterCentralMass / r)
		sin, cos := math.Sincos(phi)
		u.Bodies = append(u.Bodies, physics.New(
			r*cos, r*sin,
			-speed*sin, speed*cos,
			1e20+rng.Float64()*1e24,
			fmt.Sprintf("b%d", i),
		))
	}
	return u
}
