package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhuang-x/nbody-simulation/internal/config"
	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/universe"
)

type Experiment struct {
	cfg       config.Config
	universe  *universe.Universe
	simulator *dynamo.Simulator
	logger    *slog.Logger
}

func New(cfg config.Config, u *universe.Universe, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Experiment{cfg: cfg, universe: u, logger: logger}
}

// Resolve loads the universe a config points at: the input file when set,
// otherwise the named preset.
func Resolve(cfg *config.Config) (*universe.Universe, error) {
	if cfg.Input != "" {
		return universe.Load(cfg.Input)
	}
	return universe.Preset(cfg.Preset)
}

func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	solver, err := r.GetSolver(e.cfg.Solver, Params{Workers: e.cfg.Workers, Theta: e.cfg.Theta})
	if err != nil {
		return err
	}

	e.simulator = dynamo.New(e.universe.Bodies, solver, dynamo.WithLogger(e.logger))
	for _, m := range r.DefaultMetrics() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	return e.simulator.Run(ctx, e.SimConfig())
}

// SimConfig returns the step parameters handed to the simulator.
func (e *Experiment) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            e.cfg.Dt,
		TotalTime:     e.cfg.TotalTime,
		RecordEvery:   e.cfg.RecordEvery,
		ValidateState: e.cfg.ValidateState,
	}
}

func (e *Experiment) Config() config.Config { return e.cfg }

func (e *Experiment) Universe() *universe.Universe { return e.universe }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *dynamo.Simulator {
	return e.simulator
}
