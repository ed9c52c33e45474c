package dynamo_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

func earthMoon() []physics.Body {
	return []physics.Body{
		physics.New(0, 0, 0, 0, 5.974e24, "earth.gif"),
		physics.New(3.84e8, 0, 0, 0, 7.35e22, "moon.gif"),
	}
}

func triangle() []physics.Body {
	return []physics.Body{
		physics.New(0, 0, 0, 0, 5e24, "a"),
		physics.New(1e7, 0, 0, 0, 3e24, "b"),
		physics.New(4e6, 8e6, 0, 0, 4e24, "c"),
	}
}

type countingMetric struct {
	count int
	lastT float64
}

func (c *countingMetric) Name() string                     { return "count" }
func (c *countingMetric) Observe(_ physics.View, t float64) { c.count++; c.lastT = t }
func (c *countingMetric) Value() float64                   { return float64(c.count) }
func (c *countingMetric) Reset()                           { c.count = 0 }

type stepRecorder struct {
	steps []int
}

func (r *stepRecorder) OnStep(step int, _ float64, _ physics.View) {
	r.steps = append(r.steps, step)
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("earth-moon reference trajectory", func() {
		It("matches the hand-computed positions after four steps", func() {
			sim := dynamo.New(earthMoon(), &dynamo.Direct{})

			result, err := sim.Run(ctx, dynamo.Config{Dt: 25000, TotalTime: 100000})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(4))
			Expect(result.Time).To(Equal(100000.0))

			earth := sim.Bodies().At(0)
			moon := sim.Bodies().At(1)

			Expect(moon.X()).To(BeNumerically("~", 366878316.5058193, 1e-3))
			Expect(moon.Y()).To(Equal(0.0))
			Expect(moon.VX()).To(BeNumerically("~", -276.4686021355956, 1e-9))
			Expect(earth.X()).To(BeNumerically("~", 210653.45443961813, 1e-6))
			Expect(earth.VX()).To(BeNumerically("~", 3.4014801233622816, 1e-12))
			Expect(moon.Tag()).To(Equal("moon.gif"))
		})

		It("passes through every intermediate reference state", func() {
			sim := dynamo.New(earthMoon(), nil)
			want := []float64{382311081.7803277, 378918105.03448796, 373790031.5592092, 366878316.5058193}

			for i, x := range want {
				Expect(sim.Step(ctx, 25000)).To(Succeed())
				Expect(sim.Bodies().At(1).X()).To(BeNumerically("~", x, 1e-3), "step %d", i+1)
			}
		})
	})

	Describe("snapshot isolation", func() {
		It("computes every force before any body moves", func() {
			initial := triangle()
			sim := dynamo.New(initial, &dynamo.Direct{})
			Expect(sim.Step(ctx, 3600)).To(Succeed())

			v := physics.NewView(initial)
			twoPhase := make([]physics.Body, len(initial))
			copy(twoPhase, initial)
			fx := make([]float64, len(initial))
			fy := make([]float64, len(initial))
			for k := range initial {
				fx[k] = initial[k].NetForceX(v, k)
				fy[k] = initial[k].NetForceY(v, k)
			}
			for k := range twoPhase {
				twoPhase[k].Advance(3600, fx[k], fy[k])
			}

			for k := range twoPhase {
				got := sim.Bodies().At(k)
				Expect(got.X()).To(Equal(twoPhase[k].X()))
				Expect(got.Y()).To(Equal(twoPhase[k].Y()))
				Expect(got.VX()).To(Equal(twoPhase[k].VX()))
				Expect(got.VY()).To(Equal(twoPhase[k].VY()))
			}
		})

		It("diverges from an update-as-you-go ordering", func() {
			initial := triangle()
			sim := dynamo.New(initial, &dynamo.Direct{})
			Expect(sim.Step(ctx, 3600)).To(Succeed())

			naive := make([]physics.Body, len(initial))
			copy(naive, initial)
			v := physics.NewView(naive)
			for k := range naive {
				fx, fy := naive[k].NetForce(v, k)
				naive[k].Advance(3600, fx, fy)
			}

			// The first body sees the same snapshot either way; later ones do not.
			Expect(sim.Bodies().At(0).X()).To(Equal(naive[0].X()))
			Expect(sim.Bodies().At(2).X()).NotTo(Equal(naive[2].X()))
			Expect(sim.Bodies().At(2).Y()).NotTo(Equal(naive[2].Y()))
		})
	})

	DescribeTable("step count follows the accumulating clock",
		func(dt, total float64, want int) {
			sim := dynamo.New(earthMoon(), nil)
			result, err := sim.Run(ctx, dynamo.Config{Dt: dt, TotalTime: total})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(want))
			Expect(dynamo.StepCount(dynamo.Config{Dt: dt, TotalTime: total})).To(Equal(want))
		},
		Entry("exact multiple", 25000.0, 100000.0, 4),
		Entry("ceiling", 3.0, 10.0, 4),
		Entry("accumulated drift adds a step", 0.1, 1.0, 11),
		Entry("zero horizon", 1.0, 0.0, 0),
	)

	It("defaults to dt 1e6 over 1e9 seconds", func() {
		cfg := dynamo.DefaultConfig()
		Expect(cfg.Dt).To(Equal(1.0e6))
		Expect(cfg.TotalTime).To(Equal(1.0e9))
		Expect(dynamo.StepCount(cfg)).To(Equal(1000))
	})

	DescribeTable("rejects non-positive dt",
		func(dt float64) {
			sim := dynamo.New(earthMoon(), nil)
			_, err := sim.Run(ctx, dynamo.Config{Dt: dt, TotalTime: 10})
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			Expect(sim.Step(ctx, dt)).To(MatchError(dynamo.ErrParameterBounds))
		},
		Entry("zero", 0.0),
		Entry("negative", -1.0),
	)

	It("copies the input bodies", func() {
		bodies := earthMoon()
		sim := dynamo.New(bodies, nil)
		Expect(sim.Step(ctx, 25000)).To(Succeed())

		Expect(bodies[1].X()).To(Equal(3.84e8))
		Expect(sim.Bodies().At(1).X()).NotTo(Equal(3.84e8))
	})

	Describe("degenerate geometry", func() {
		coincident := func() []physics.Body {
			return []physics.Body{
				physics.New(1, 1, 0, 0, 1e20, "a"),
				physics.New(1, 1, 0, 0, 1e20, "b"),
			}
		}

		It("propagates NaN without validation", func() {
			sim := dynamo.New(coincident(), nil)
			result, err := sim.Run(ctx, dynamo.Config{Dt: 1, TotalTime: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Steps).To(Equal(3))
			Expect(math.IsNaN(sim.Bodies().At(0).X())).To(BeTrue())
		})

		It("stops with a simulation error when validation is on", func() {
			sim := dynamo.New(coincident(), nil)
			_, err := sim.Run(ctx, dynamo.Config{Dt: 1, TotalTime: 3, ValidateState: true})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(simErr.Body).To(Equal(0))
		})

		It("reports the first non-finite body through CheckState", func() {
			sim := dynamo.New(coincident(), nil)
			Expect(sim.CheckState(0, 0)).To(Succeed())

			Expect(sim.Step(ctx, 1)).To(Succeed())
			err := sim.CheckState(1, 1)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(simErr.Time).To(Equal(1.0))
			Expect(simErr.Body).To(Equal(0))
		})

		It("stops RunWithCallback when validation is on", func() {
			sim := dynamo.New(coincident(), nil)
			calls := 0
			err := sim.RunWithCallback(ctx, dynamo.Config{Dt: 1, TotalTime: 3, ValidateState: true},
				func(step int, t float64, v physics.View) bool {
					calls++
					return true
				})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
			Expect(calls).To(Equal(1))
		})
	})

	It("stops on a canceled context", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		sim := dynamo.New(earthMoon(), nil)
		result, err := sim.Run(canceled, dynamo.Config{Dt: 25000, TotalTime: 100000})
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.Steps).To(Equal(0))
		Expect(sim.Bodies().At(1).X()).To(Equal(3.84e8))
	})

	Describe("recording", func() {
		It("samples every n steps and the final state", func() {
			sim := dynamo.New(earthMoon(), nil)
			result, err := sim.Run(ctx, dynamo.Config{Dt: 25000, TotalTime: 125000, RecordEvery: 2})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Times).To(Equal([]float64{0, 50000, 100000, 125000}))
			Expect(result.States).To(HaveLen(4))
			Expect(result.States[0]).To(Equal([]float64{0, 0, 0, 0, 3.84e8, 0, 0, 0}))
			Expect(result.States[3]).To(Equal(dynamo.Flatten(sim.Bodies())))
		})

		It("records nothing by default", func() {
			sim := dynamo.New(earthMoon(), nil)
			result, err := sim.Run(ctx, dynamo.Config{Dt: 25000, TotalTime: 100000})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.States).To(BeEmpty())
		})
	})

	It("feeds metrics and observers the initial and every stepped state", func() {
		sim := dynamo.New(earthMoon(), nil)
		metric := &countingMetric{}
		recorder := &stepRecorder{}
		sim.AddMetric(metric)
		sim.AddObserver(recorder)

		result, err := sim.Run(ctx, dynamo.Config{Dt: 25000, TotalTime: 100000})
		Expect(err).NotTo(HaveOccurred())

		Expect(result.Metrics).To(HaveKeyWithValue("count", 5.0))
		Expect(metric.lastT).To(Equal(100000.0))
		Expect(recorder.steps).To(Equal([]int{0, 1, 2, 3, 4}))
		Expect(result.EnergyDrift).To(BeNumerically(">", 0))
	})

	It("lets the callback stop the run early", func() {
		sim := dynamo.New(earthMoon(), nil)
		seen := 0
		err := sim.RunWithCallback(ctx, dynamo.Config{Dt: 25000, TotalTime: 1e9}, func(step int, t float64, v physics.View) bool {
			seen++
			return step < 2
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal(3))
	})
})
