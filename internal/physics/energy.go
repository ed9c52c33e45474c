package physics

import "math"

// KineticEnergy returns the total kinetic energy of the bodies in v.
func KineticEnergy(v View) float64 {
	ke := 0.0
	for _, b := range v.bodies {
		ke += 0.5 * b.mass * (b.vx*b.vx + b.vy*b.vy)
	}
	return ke
}

// PotentialEnergy returns the pairwise gravitational potential energy of v.
// Coincident pairs contribute -Inf.
func PotentialEnergy(v View) float64 {
	pe := 0.0
	n := len(v.bodies)
	for i := 0; i < n; i++ {
		bi := v.bodies[i]
		for j := i + 1; j < n; j++ {
			bj := v.bodies[j]
			pe -= G * bi.mass * bj.mass / bi.DistanceTo(bj)
		}
	}
	return pe
}

func TotalEnergy(v View) float64 {
	return KineticEnergy(v) + PotentialEnergy(v)
}

// Momentum returns the total linear momentum.
func Momentum(v View) (px, py float64) {
	for _, b := range v.bodies {
		px += b.mass * b.vx
		py += b.mass * b.vy
	}
	return
}

// AngularMomentum returns the z component of total angular momentum about the origin.
func AngularMomentum(v View) float64 {
	L := 0.0
	for _, b := range v.bodies {
		L += b.mass * (b.x*b.vy - b.y*b.vx)
	}
	return L
}

// CenterOfMass returns the mass-weighted mean position. An empty view yields NaN.
func CenterOfMass(v View) (cx, cy float64) {
	total := 0.0
	for _, b := range v.bodies {
		cx += b.mass * b.x
		cy += b.mass * b.y
		total += b.mass
	}
	if total == 0 {
		return math.NaN(), math.NaN()
	}
	return cx / total, cy / total
}
