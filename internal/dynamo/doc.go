// Package dynamo advances a gravitational N-body system through fixed time steps.
//
// The package defines:
//
//   - [Simulator]: owns the ordered body sequence and runs the step loop
//   - [Solver]: fills a [Forces] buffer from a read-only [physics.View]
//   - [Direct], [Parallel], [BarnesHut]: solver implementations
//   - [Metric], [Observer]: hooks evaluated on every recorded state
//
// # Step Protocol
//
// Every step has two phases. The solver computes the net force on every body
// from the same snapshot of positions into a side buffer; only then does the
// simulator apply [physics.Body.Advance] to each body with its buffered force.
// Forces for step t therefore always reflect positions at the start of step t:
//
//	sim := dynamo.New(bodies, &dynamo.Direct{})
//	result, err := sim.Run(ctx, dynamo.Config{Dt: 25000, TotalTime: 157788000})
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. [Parallel] fans the force phase out
// over goroutines; it only reads the snapshot, and each worker writes its own
// slots of the buffer.
package dynamo
