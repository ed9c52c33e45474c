package dynamo

import "github.com/nhuang-x/nbody-simulation/internal/physics"

// Forces is the side buffer filled by a Solver before any body moves.
// X[k] and Y[k] hold the net force on the body in slot k.
type Forces struct {
	X []float64
	Y []float64
}

func NewForces(n int) *Forces {
	return &Forces{X: make([]float64, n), Y: make([]float64, n)}
}

func (f *Forces) Len() int { return len(f.X) }

func (f *Forces) Reset() {
	for i := range f.X {
		f.X[i] = 0
		f.Y[i] = 0
	}
}

// Metric accumulates a diagnostic over the states of a run.
type Metric interface {
	Name() string
	Observe(v physics.View, t float64)
	Value() float64
	Reset()
}

// Observer is notified with the initial state and after every completed step.
type Observer interface {
	OnStep(step int, t float64, v physics.View)
}

type Config struct {
	Dt        float64
	TotalTime float64
	// RecordEvery samples the state every n steps; zero disables recording.
	RecordEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:        1.0e6,
		TotalTime: 1.0e9,
	}
}

// StepCount returns how many steps Run takes for cfg, counting with the same
// accumulating clock.
func StepCount(cfg Config) int {
	if cfg.Dt <= 0 {
		return 0
	}
	n := 0
	for t := 0.0; t < cfg.TotalTime; t += cfg.Dt {
		n++
	}
	return n
}

type Result struct {
	Steps int
	// Time is the final value of the step accumulator.
	Time float64
	// Times and States hold the recorded samples; each state is
	// [x, y, vx, vy] per body in view order.
	Times       []float64
	States      [][]float64
	Metrics     map[string]float64
	EnergyDrift float64
}

// Flatten returns the state of v as [x0, y0, vx0, vy0, x1, ...].
func Flatten(v physics.View) []float64 {
	out := make([]float64, 0, v.Len()*4)
	for i := 0; i < v.Len(); i++ {
		b := v.At(i)
		out = append(out, b.X(), b.Y(), b.VX(), b.VY())
	}
	return out
}
