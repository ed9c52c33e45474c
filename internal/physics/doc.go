// Package physics provides the point-mass model for gravitational simulation.
//
// A [Body] carries position, velocity, mass and an opaque display tag. Force
// queries are made against a [View], a read-only snapshot of the whole
// system, and a body excludes itself from net-force sums by its slot index in
// that view rather than by comparing values:
//
//	v := physics.NewView(bodies)
//	fx, fy := bodies[k].NetForce(v, k)
//	bodies[k].Advance(dt, fx, fy) // only after every force has been computed
//
// # Integration
//
// [Body.Advance] uses the semi-implicit (Euler-Cromer) update. Velocity is
// advanced first and the updated velocity moves the position. Swapping the
// order changes trajectories.
//
// # Degenerate Geometry
//
// Two bodies at the same position have zero separation. The force between
// them is infinite and its components are NaN; nothing clamps the distance.
package physics
