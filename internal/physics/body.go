package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// G is the gravitational constant in SI units.
const G = 6.67e-11

// Body is a single point mass. The shape is fixed at construction; position and
// velocity change only through Advance.
type Body struct {
	x, y   float64
	vx, vy float64
	mass   float64
	tag    string
}

// New returns a body with the given initial state. The tag is an opaque
// display identifier and is never interpreted. mass must be positive.
func New(x, y, vx, vy, mass float64, tag string) Body {
	return Body{x: x, y: y, vx: vx, vy: vy, mass: mass, tag: tag}
}

// Copy returns an independent body with every field duplicated.
func (b Body) Copy() Body {
	return Body{x: b.x, y: b.y, vx: b.vx, vy: b.vy, mass: b.mass, tag: b.tag}
}

func (b Body) X() float64    { return b.x }
func (b Body) Y() float64    { return b.y }
func (b Body) VX() float64   { return b.vx }
func (b Body) VY() float64   { return b.vy }
func (b Body) Mass() float64 { return b.mass }
func (b Body) Tag() string   { return b.tag }

// Coord2 returns the position as a planar vector.
func (b Body) Coord2() r2.Vec { return r2.Vec{X: b.x, Y: b.y} }

// DistanceTo returns the Euclidean distance between b and other.
func (b Body) DistanceTo(other Body) float64 {
	dx := b.x - other.x
	dy := b.y - other.y
	// float64 conversions stop the compiler from fusing into FMA on arm64.
	return math.Sqrt(float64(dx*dx) + float64(dy*dy))
}

// ForceFrom returns the magnitude of the gravitational pull other exerts on b.
// Coincident bodies give +Inf and the components derived from it are NaN; the
// value is not guarded.
func (b Body) ForceFrom(other Body) float64 {
	d := b.DistanceTo(other)
	return G * b.mass * other.mass / (d * d)
}

// ForceFromX returns the signed x component of the force other exerts on b.
// It is positive when other lies to the right of b.
func (b Body) ForceFromX(other Body) float64 {
	return b.ForceFrom(other) * (other.x - b.x) / b.DistanceTo(other)
}

// ForceFromY returns the signed y component of the force other exerts on b.
func (b Body) ForceFromY(other Body) float64 {
	return b.ForceFrom(other) * (other.y - b.y) / b.DistanceTo(other)
}

// NetForceX sums ForceFromX over every body in v except the one at slot self.
// Summation follows view order. A negative self excludes nothing.
func (b Body) NetForceX(v View, self int) float64 {
	sum := 0.0
	for i := range v.bodies {
		if i == self {
			continue
		}
		sum += b.ForceFromX(v.bodies[i])
	}
	return sum
}

// NetForceY is the y counterpart of NetForceX.
func (b Body) NetForceY(v View, self int) float64 {
	sum := 0.0
	for i := range v.bodies {
		if i == self {
			continue
		}
		sum += b.ForceFromY(v.bodies[i])
	}
	return sum
}

// NetForce returns both net force components in a single pass. Each component
// is accumulated in the same order as NetForceX and NetForceY, so the results
// are identical to calling them separately.
func (b Body) NetForce(v View, self int) (fx, fy float64) {
	for i := range v.bodies {
		if i == self {
			continue
		}
		o := v.bodies[i]
		fx += b.ForceFromX(o)
		fy += b.ForceFromY(o)
	}
	return fx, fy
}

// Advance integrates b over dt under the constant force (fx, fy) with the
// semi-implicit Euler scheme: velocity is updated first and the new velocity
// moves the position.
func (b *Body) Advance(dt, fx, fy float64) {
	ax := fx / b.mass
	ay := fy / b.mass
	nvx := b.vx + float64(dt*ax)
	nvy := b.vy + float64(dt*ay)
	nx := b.x + float64(dt*nvx)
	ny := b.y + float64(dt*nvy)
	b.x, b.y = nx, ny
	b.vx, b.vy = nvx, nvy
}

// IsFinite reports whether every numeric field of b is finite.
func (b Body) IsFinite() bool {
	for _, v := range [...]float64{b.x, b.y, b.vx, b.vy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
