package dynamo

import (
	"context"
	"runtime"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
	"golang.org/x/sync/errgroup"
)

// Parallel splits the force phase into contiguous chunks of bodies, one per
// worker. Each body is still summed serially in view order, so the buffer is
// bit-identical to Direct.
type Parallel struct {
	// Workers defaults to runtime.NumCPU when zero.
	Workers int
	// MinChunk is the smallest number of bodies given to one worker.
	MinChunk int
}

func (p *Parallel) Name() string { return "parallel" }

func (p *Parallel) Compute(ctx context.Context, v physics.View, out *Forces) error {
	if err := checkDims(v, out); err != nil {
		return err
	}

	n := v.Len()
	minChunk := p.MinChunk
	if minChunk < 1 {
		minChunk = 8
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 {
		return (&Direct{}).Compute(ctx, v, out)
	}

	chunkSize := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for k := start; k < end; k++ {
				if (k-start)%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				b := v.At(k)
				out.X[k], out.Y[k] = b.NetForce(v, k)
			}
			return nil
		})
	}
	return g.Wait()
}
