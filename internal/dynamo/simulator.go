package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

type Simulator struct {
	bodies    []physics.Body
	solver    Solver
	forces    *Forces
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a simulator owning a copy of bodies. A nil solver selects Direct.
func New(bodies []physics.Body, solver Solver, opts ...Option) *Simulator {
	if solver == nil {
		solver = &Direct{}
	}
	owned := make([]physics.Body, len(bodies))
	copy(owned, bodies)

	s := &Simulator{
		bodies:    owned,
		solver:    solver,
		forces:    NewForces(len(owned)),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Solver() Solver { return s.solver }

// Bodies returns a read-only view of the current state.
func (s *Simulator) Bodies() physics.View { return physics.NewView(s.bodies) }

// Step advances every body by dt. All forces are computed from the state at
// the start of the step before any body moves. If the solver fails no body is
// touched.
func (s *Simulator) Step(ctx context.Context, dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, dt)
	}
	if err := s.computeForces(ctx); err != nil {
		return err
	}
	s.apply(dt, s.forces)
	return nil
}

func (s *Simulator) computeForces(ctx context.Context) error {
	s.forces.Reset()
	return s.solver.Compute(ctx, s.Bodies(), s.forces)
}

func (s *Simulator) apply(dt float64, f *Forces) {
	for k := range s.bodies {
		s.bodies[k].Advance(dt, f.X[k], f.Y[k])
	}
}

// CheckState returns a SimulationError wrapping ErrInvalidState for the first
// body whose position or velocity is not finite. step and t label the error.
func (s *Simulator) CheckState(step int, t float64) error {
	for k := range s.bodies {
		if !s.bodies[k].IsFinite() {
			return &SimulationError{Step: step, Time: t, Body: k, Wrapped: ErrInvalidState}
		}
	}
	return nil
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	capacity := 2
	if cfg.RecordEvery > 0 {
		capacity += StepCount(cfg) / cfg.RecordEvery
	}
	result := &Result{
		Times:   make([]float64, 0, capacity),
		States:  make([][]float64, 0, capacity),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run started",
		"bodies", len(s.bodies),
		"solver", s.solver.Name(),
		"dt", cfg.Dt,
		"total_time", cfg.TotalTime,
	)

	initialEnergy := physics.TotalEnergy(s.Bodies())
	s.observe(0, 0)
	if cfg.RecordEvery > 0 {
		s.record(result, 0)
	}

	step := 0
	t := 0.0
	for ; t < cfg.TotalTime; t += cfg.Dt {
		select {
		case <-ctx.Done():
			result.Steps, result.Time = step, t
			return result, ctx.Err()
		default:
		}

		if err := s.Step(ctx, cfg.Dt); err != nil {
			result.Steps, result.Time = step, t
			return result, err
		}
		step++

		if cfg.ValidateState {
			if err := s.CheckState(step, t+cfg.Dt); err != nil {
				result.Steps, result.Time = step, t+cfg.Dt
				return result, err
			}
		}

		s.observe(step, t+cfg.Dt)
		if cfg.RecordEvery > 0 && step%cfg.RecordEvery == 0 {
			s.record(result, t+cfg.Dt)
		}
	}

	result.Steps = step
	result.Time = t
	if cfg.RecordEvery > 0 && step%cfg.RecordEvery != 0 {
		s.record(result, t)
	}

	finalEnergy := physics.TotalEnergy(s.Bodies())
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished", "steps", step, "time", t, "energy_drift", result.EnergyDrift)

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, cfg.Dt)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("%w: record interval must not be negative, got %d", ErrParameterBounds, cfg.RecordEvery)
	}
	return nil
}

func (s *Simulator) observe(step int, t float64) {
	v := s.Bodies()
	for _, m := range s.metrics {
		m.Observe(v, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(step, t, v)
	}
}

func (s *Simulator) record(result *Result, t float64) {
	result.Times = append(result.Times, t)
	result.States = append(result.States, Flatten(s.Bodies()))
}

// RunWithCallback steps until the total time is reached or callback returns
// false. The callback sees the state before each step.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(step int, t float64, v physics.View) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	step := 0
	for t := 0.0; t < cfg.TotalTime; t += cfg.Dt {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(step, t, s.Bodies()) {
			return nil
		}

		if err := s.Step(ctx, cfg.Dt); err != nil {
			return err
		}
		step++

		if cfg.ValidateState {
			if err := s.CheckState(step, t+cfg.Dt); err != nil {
				return err
			}
		}
	}

	return nil
}
