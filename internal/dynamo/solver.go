package dynamo

import (
	"context"
	"fmt"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
	"gonum.org/v1/gonum/spatial/barneshut"
)

// Solver computes the net force on every body of a snapshot. Implementations
// must only read v and must write slot k of out for every body k.
type Solver interface {
	Name() string
	Compute(ctx context.Context, v physics.View, out *Forces) error
}

func checkDims(v physics.View, out *Forces) error {
	if out.Len() != v.Len() || len(out.Y) != v.Len() {
		return fmt.Errorf("%w: %d bodies, buffer of %d", ErrDimensionMismatch, v.Len(), out.Len())
	}
	return nil
}

// Direct is the exact pairwise solver. It sums every other body in view order.
type Direct struct{}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Compute(ctx context.Context, v physics.View, out *Forces) error {
	if err := checkDims(v, out); err != nil {
		return err
	}
	for k := 0; k < v.Len(); k++ {
		b := v.At(k)
		out.X[k], out.Y[k] = b.NetForce(v, k)
	}
	return nil
}

// BarnesHut approximates the net forces with a quadtree. Theta is the opening
// angle; zero walks every particle. Coincident bodies contribute no force here,
// unlike Direct.
type BarnesHut struct {
	Theta float64
}

func (bh *BarnesHut) Name() string { return "barneshut" }

func (bh *BarnesHut) Compute(ctx context.Context, v physics.View, out *Forces) error {
	if err := checkDims(v, out); err != nil {
		return err
	}
	if v.Len() == 0 {
		return nil
	}

	bodies := v.Clone()
	particles := make([]barneshut.Particle2, len(bodies))
	for i := range bodies {
		particles[i] = &bodies[i]
	}

	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		return fmt.Errorf("dynamo: building quadtree: %w", err)
	}

	for k, p := range particles {
		if k%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		f := plane.ForceOn(p, bh.Theta, barneshut.Gravity2)
		out.X[k] = physics.G * f.X
		out.Y[k] = physics.G * f.Y
	}
	return nil
}
