package experiment

import (
	"fmt"
	"sort"

	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/metrics"
)

// Params carries the tuning knobs a solver factory may read.
type Params struct {
	Workers int
	Theta   float64
}

type Registry struct {
	solvers map[string]func(Params) dynamo.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]func(Params) dynamo.Solver),
	}

	r.solvers["direct"] = func(Params) dynamo.Solver { return &dynamo.Direct{} }
	r.solvers["parallel"] = func(p Params) dynamo.Solver {
		return &dynamo.Parallel{Workers: p.Workers}
	}
	r.solvers["barneshut"] = func(p Params) dynamo.Solver {
		return &dynamo.BarnesHut{Theta: p.Theta}
	}

	return r
}

func (r *Registry) GetSolver(name string, p Params) (dynamo.Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s (available: %v)", name, r.ListSolvers())
	}
	return fn(p), nil
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Default()
}
