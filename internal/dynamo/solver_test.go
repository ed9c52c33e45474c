package dynamo_test

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

func cluster(n int, seed int64) []physics.Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]physics.Body, n)
	for i := range bodies {
		bodies[i] = physics.New(
			(rng.Float64()*2-1)*1e11,
			(rng.Float64()*2-1)*1e11,
			rng.NormFloat64()*1e3,
			rng.NormFloat64()*1e3,
			1e22+rng.Float64()*1e25,
			"star",
		)
	}
	return bodies
}

func computeWith(s dynamo.Solver, bodies []physics.Body) *dynamo.Forces {
	v := physics.NewView(bodies)
	out := dynamo.NewForces(v.Len())
	Expect(s.Compute(context.Background(), v, out)).To(Succeed())
	return out
}

var _ = Describe("Solvers", func() {
	var bodies []physics.Body

	BeforeEach(func() {
		bodies = cluster(200, 7)
	})

	It("Direct matches the per-body net force", func() {
		out := computeWith(&dynamo.Direct{}, bodies)
		v := physics.NewView(bodies)
		for _, k := range []int{0, 57, 199} {
			Expect(out.X[k]).To(Equal(bodies[k].NetForceX(v, k)))
			Expect(out.Y[k]).To(Equal(bodies[k].NetForceY(v, k)))
		}
	})

	DescribeTable("Parallel is bit-identical to Direct",
		func(workers, minChunk int) {
			want := computeWith(&dynamo.Direct{}, bodies)
			got := computeWith(&dynamo.Parallel{Workers: workers, MinChunk: minChunk}, bodies)
			Expect(got.X).To(Equal(want.X))
			Expect(got.Y).To(Equal(want.Y))
		},
		Entry("default workers", 0, 0),
		Entry("uneven chunks", 7, 1),
		Entry("single worker", 1, 8),
		Entry("more workers than bodies", 500, 1),
	)

	It("BarnesHut with zero theta agrees with Direct", func() {
		want := computeWith(&dynamo.Direct{}, bodies)
		got := computeWith(&dynamo.BarnesHut{Theta: 0}, bodies)

		scale := 0.0
		for k := range want.X {
			scale = math.Max(scale, math.Hypot(want.X[k], want.Y[k]))
		}
		for k := range want.X {
			Expect(got.X[k]).To(BeNumerically("~", want.X[k], 1e-9*scale))
			Expect(got.Y[k]).To(BeNumerically("~", want.Y[k], 1e-9*scale))
		}
	})

	It("BarnesHut with an opening angle stays close to Direct", func() {
		want := computeWith(&dynamo.Direct{}, bodies)
		got := computeWith(&dynamo.BarnesHut{Theta: 0.3}, bodies)

		var errSum, normSum float64
		for k := range want.X {
			errSum += math.Hypot(got.X[k]-want.X[k], got.Y[k]-want.Y[k])
			normSum += math.Hypot(want.X[k], want.Y[k])
		}
		Expect(errSum / normSum).To(BeNumerically("<", 0.05))
	})

	It("handles an empty system", func() {
		for _, s := range []dynamo.Solver{&dynamo.Direct{}, &dynamo.Parallel{}, &dynamo.BarnesHut{}} {
			out := computeWith(s, nil)
			Expect(out.Len()).To(Equal(0))
		}
	})

	It("rejects a mis-sized buffer", func() {
		v := physics.NewView(bodies)
		for _, s := range []dynamo.Solver{&dynamo.Direct{}, &dynamo.Parallel{}, &dynamo.BarnesHut{}} {
			err := s.Compute(context.Background(), v, dynamo.NewForces(3))
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch), s.Name())
		}
	})

	It("Parallel stops on a canceled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		v := physics.NewView(bodies)
		err := (&dynamo.Parallel{Workers: 4, MinChunk: 1}).Compute(ctx, v, dynamo.NewForces(v.Len()))
		Expect(err).To(MatchError(context.Canceled))
	})

	It("Simulator leaves bodies untouched when the solver fails", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sim := dynamo.New(bodies, &dynamo.Parallel{Workers: 4, MinChunk: 1})
		Expect(sim.Step(ctx, 1)).To(MatchError(context.Canceled))
		Expect(sim.Bodies().Clone()).To(Equal(bodies))
	})

	It("conserves linear momentum with Direct to rounding", func() {
		sim := dynamo.New(bodies, &dynamo.Direct{})
		px0, py0 := physics.Momentum(sim.Bodies())
		_, err := sim.Run(context.Background(), dynamo.Config{Dt: 3600, TotalTime: 3600 * 24})
		Expect(err).NotTo(HaveOccurred())

		px, py := physics.Momentum(sim.Bodies())
		scale := 0.0
		for _, b := range bodies {
			scale += b.Mass() * math.Hypot(b.VX(), b.VY())
		}
		Expect(math.Hypot(px-px0, py-py0) / scale).To(BeNumerically("<", 1e-9))
	})
})
