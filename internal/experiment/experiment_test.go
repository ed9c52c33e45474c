package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/nhuang-x/nbody-simulation/internal/config"
	"github.com/nhuang-x/nbody-simulation/internal/universe"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"direct", "parallel", "barneshut"} {
		s, err := r.GetSolver(name, Params{Workers: 2, Theta: 0.4})
		if err != nil {
			t.Fatalf("solver %s: %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("expected solver %s, got %s", name, s.Name())
		}
	}

	if _, err := r.GetSolver("rk4", Params{}); err == nil {
		t.Error("expected error for unknown solver")
	}

	if got := r.ListSolvers(); len(got) != 3 || got[0] != "barneshut" {
		t.Errorf("unexpected solver list: %v", got)
	}

	cfgSolvers := map[string]bool{}
	for _, s := range config.Solvers {
		cfgSolvers[s] = true
	}
	for _, s := range r.ListSolvers() {
		if !cfgSolvers[s] {
			t.Errorf("solver %s missing from config.Solvers", s)
		}
	}
}

func TestResolve(t *testing.T) {
	cfg := config.GetPreset("earthmoon")
	u, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(u.Bodies) != 2 {
		t.Errorf("expected 2 bodies, got %d", len(u.Bodies))
	}

	cfg.Input = "does/not/exist.txt"
	if _, err := Resolve(cfg); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.GetPreset("earthmoon")
	u, err := universe.Preset("earthmoon")
	if err != nil {
		t.Fatal(err)
	}

	exp := New(*cfg, u, nil)
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}

	if err := exp.Setup(NewRegistry()); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Steps != 4 {
		t.Errorf("expected 4 steps, got %d", result.Steps)
	}
	moon := exp.Simulator().Bodies().At(1)
	if math.Abs(moon.X()-366878316.5058193) > 1e-3 {
		t.Errorf("unexpected moon position %v", moon.X())
	}
	if u.Bodies[1].X() != 3.84e8 {
		t.Error("run mutated the loaded universe")
	}
	for _, name := range []string{"energy_drift", "momentum_drift", "angular_momentum_drift"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("metric %s missing from result", name)
		}
	}
}

func TestExperimentSetup_InvalidConfig(t *testing.T) {
	cfg := config.GetPreset("earthmoon")
	cfg.Dt = 0
	u, _ := universe.Preset("earthmoon")

	if err := New(*cfg, u, nil).Setup(NewRegistry()); err == nil {
		t.Error("expected validation error")
	}
}

func TestSolversAgreeOnPlanets(t *testing.T) {
	u, err := universe.Preset("planets")
	if err != nil {
		t.Fatal(err)
	}

	final := map[string]float64{}
	for _, solver := range []string{"direct", "parallel"} {
		cfg := config.GetPreset("planets")
		cfg.Solver = solver
		cfg.TotalTime = 25000 * 100

		exp := New(*cfg, u, nil)
		if err := exp.Setup(NewRegistry()); err != nil {
			t.Fatal(err)
		}
		if _, err := exp.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		final[solver] = exp.Simulator().Bodies().At(0).X()
	}

	if final["direct"] != final["parallel"] {
		t.Errorf("direct and parallel diverged: %v vs %v", final["direct"], final["parallel"])
	}
}
