package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nhuang-x/nbody-simulation/internal/config"
	"github.com/nhuang-x/nbody-simulation/internal/dynamo"
	"github.com/nhuang-x/nbody-simulation/internal/experiment"
	"github.com/nhuang-x/nbody-simulation/internal/export"
	"github.com/nhuang-x/nbody-simulation/internal/physics"
	"github.com/nhuang-x/nbody-simulation/internal/storage"
	"github.com/nhuang-x/nbody-simulation/internal/universe"
	"github.com/nhuang-x/nbody-simulation/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
	// simulation parameters
	dt          float64
	totalTime   float64
	solver      string
	workers     int
	theta       float64
	recordEvery int
	validate    bool
	// Config file
	configFile string
	// Preset name
	preset string
	// run output
	save  bool
	quiet bool
	// live view
	frameRate    int
	stepsPerTick int
	// plot
	bodyIndex int
	svgSize   int
	// bench / compare
	sizes      []int
	benchSteps int
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nbodysim [totalTime dt file]",
		Short: "newtonian n-body gravity simulator",
		Long: `nbodysim steps a set of point masses under mutual gravitation and prints
the final state in the same format it reads. With no arguments it runs the
built-in solar system for 1e9 seconds at dt = 1e6.`,
		Args:          positionalRunArgs,
		RunE:          runSimulation,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodysim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	addSimFlags(rootCmd)
	rootCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the summary on stderr")

	runCmd := &cobra.Command{
		Use:   "run [totalTime dt file]",
		Short: "run simulation and print the final state",
		Args:  positionalRunArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the summary on stderr")

	liveCmd := &cobra.Command{
		Use:   "live [totalTime dt file]",
		Short: "run simulation with live visualization",
		Args:  positionalRunArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 0, "simulation steps per frame (0 picks one)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&bodyIndex, "body", -1, "body index to plot (-1 plots orbits only)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export recorded orbits as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in universes",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [solver...]",
		Short: "benchmark solvers on generated clusters",
		RunE:  benchSolvers,
	}
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 400, 1600}, "cluster sizes")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 10, "steps per measurement")
	benchCmd.Flags().Int64Var(&seed, "seed", 1, "cluster seed")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all CPUs)")
	benchCmd.Flags().Float64Var(&theta, "theta", config.DefaultTheta, "barnes-hut opening angle")

	compareCmd := &cobra.Command{
		Use:   "compare [solver...]",
		Short: "compare solvers against direct summation on the same universe",
		RunE:  compareSolvers,
	}
	addSimFlags(compareCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, benchCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	f.Float64Var(&totalTime, "time", config.DefaultTotalTime, "total simulated time in seconds")
	f.StringVar(&solver, "solver", config.DefaultSolver, "force solver (direct, parallel, barneshut)")
	f.IntVar(&workers, "workers", 0, "parallel workers (0 = all CPUs)")
	f.Float64Var(&theta, "theta", config.DefaultTheta, "barnes-hut opening angle")
	f.IntVar(&recordEvery, "record-every", 0, "record the state every n steps (0 = off unless --save)")
	f.BoolVar(&validate, "validate", false, "stop once a body leaves the finite range")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "built-in universe with suggested step parameters")
}

// positionalRunArgs accepts either nothing or the classic totalTime dt file.
func positionalRunArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 3 {
		return fmt.Errorf("expected no arguments or [totalTime dt file], got %d", len(args))
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// progressLogger logs a debug line roughly every tenth of a run.
type progressLogger struct {
	logger *slog.Logger
	total  int
	every  int
}

func newProgressLogger(logger *slog.Logger, total int) *progressLogger {
	return &progressLogger{logger: logger, total: total, every: max(1, total/10)}
}

func (p *progressLogger) OnStep(step int, t float64, v physics.View) {
	if step == 0 || (step%p.every != 0 && step != p.total) {
		return
	}
	p.logger.Debug("progress", "step", step, "of", p.total, "time", t, "energy", physics.TotalEnergy(v))
}

// resolveConfig layers preset, config file, changed flags and positional
// arguments, later sources winning.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.TotalTime = totalTime
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("theta") {
		cfg.Theta = theta
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	if len(args) == 3 {
		t, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("totalTime: %w", err)
		}
		step, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("dt: %w", err)
		}
		cfg.TotalTime, cfg.Dt, cfg.Input = t, step, args[2]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadUniverse reads the configured universe; an input of "-" reads stdin.
func loadUniverse(cfg *config.Config) (*universe.Universe, error) {
	if cfg.Input == "-" {
		return universe.Read(os.Stdin)
	}
	return experiment.Resolve(cfg)
}

func source(cfg *config.Config) string {
	if cfg.Input != "" {
		return cfg.Input
	}
	return cfg.Preset
}

// prepare resolves the config and universe and sets up an experiment.
func prepare(cmd *cobra.Command, args []string, logger *slog.Logger) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	u, err := loadUniverse(cfg)
	if err != nil {
		return nil, err
	}

	if save && cfg.RecordEvery == 0 {
		cfg.RecordEvery = max(1, dynamo.StepCount(dynamo.Config{Dt: cfg.Dt, TotalTime: cfg.TotalTime})/1000)
	}

	exp := experiment.New(*cfg, u, logger)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	exp, err := prepare(cmd, args, logger)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	u := exp.Universe()

	exp.Simulator().AddObserver(newProgressLogger(logger, dynamo.StepCount(exp.SimConfig())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) {
			logger.Error("run diverged", "step", simErr.Step, "body", simErr.Body)
		}
		return err
	}
	elapsed := time.Since(start)

	final := exp.Simulator().Bodies()
	if err := universe.WriteReport(os.Stdout, u.Radius, final); err != nil {
		return err
	}

	meta := storage.RunMetadata{
		Source:      source(&cfg),
		Solver:      cfg.Solver,
		Dt:          cfg.Dt,
		TotalTime:   cfg.TotalTime,
		Steps:       result.Steps,
		Bodies:      final.Len(),
		Radius:      u.Radius,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta.ID, err = st.Save(meta, result, final, u.Radius)
		if err != nil {
			return err
		}
		logger.Debug("run saved", "id", meta.ID, "dir", dataDir)
	}

	if !quiet {
		fmt.Fprintln(os.Stderr, viz.Summary(meta))
		fmt.Fprintf(os.Stderr, "completed in %v\n", elapsed)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	exp, err := prepare(cmd, args, newLogger())
	if err != nil {
		return err
	}
	cfg := exp.Config()

	if frameRate <= 0 {
		return fmt.Errorf("fps must be positive, got %d", frameRate)
	}

	model := viz.NewLiveModel(exp.Simulator(), exp.SimConfig(), exp.Universe().Radius, source(&cfg))
	model.Frame = time.Second / time.Duration(frameRate)
	model.StepsPerTick = stepsPerTick
	if model.StepsPerTick <= 0 {
		// aim for a run of about twenty seconds
		model.StepsPerTick = max(1, dynamo.StepCount(exp.SimConfig())/(20*frameRate))
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.LiveModel); ok && m.Err() != nil {
		return m.Err()
	}

	return universe.WriteReport(os.Stdout, exp.Universe().Radius, exp.Simulator().Bodies())
}

// runID returns the id given on the command line or the latest stored run.
func runID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	latest, err := st.Latest()
	if err != nil {
		return "", err
	}
	return latest.ID, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tSOLVER\tTIME\tBODIES\tSTEPS\tDT\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.3g\t%.2e\n",
			run.ID,
			run.Source,
			run.Solver,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Steps,
			run.Dt,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runID(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(id)
	if err != nil {
		return err
	}
	if len(traj.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.Summary(*meta))
	fmt.Printf("samples: %d\n\n", len(traj.States))

	if bodyIndex >= 0 {
		graph, err := viz.PlotBody(traj, bodyIndex)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Println(viz.Orbits(traj, meta.Radius, 60, 24))

	final, err := st.LoadFinal(id)
	if err != nil {
		return err
	}
	fmt.Println("\nfinal state:")
	return final.Write(os.Stdout)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runID(st, args)
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, id)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runID(st, args)
	if err != nil {
		return err
	}
	return st.ExportCSV(os.Stdout, id)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	id, err := runID(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(id)
	if err != nil {
		return err
	}
	return export.OrbitsSVG(os.Stdout, traj, meta.Radius, svgSize)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tRADIUS\tDT\tTIME\tSTEPS")
	for _, name := range universe.Presets() {
		u, err := universe.Preset(name)
		if err != nil {
			return err
		}
		cfg := config.GetPreset(name)
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
		steps := dynamo.StepCount(dynamo.Config{Dt: cfg.Dt, TotalTime: cfg.TotalTime})
		fmt.Fprintf(w, "%s\t%d\t%.2e\t%g\t%g\t%d\n", name, len(u.Bodies), u.Radius, cfg.Dt, cfg.TotalTime, steps)
	}
	return w.Flush()
}

func solverNames(registry *experiment.Registry, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return registry.ListSolvers()
}

func benchSolvers(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	names := solverNames(registry, args)
	if benchSteps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", benchSteps)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tSOLVER\tSTEPS\tTIME\tSTEPS/SEC")

	for _, n := range sizes {
		u := universe.Cluster(n, seed)
		for _, name := range names {
			s, err := registry.GetSolver(name, experiment.Params{Workers: workers, Theta: theta})
			if err != nil {
				return err
			}
			sim := dynamo.New(u.Bodies, s)

			cfg := dynamo.Config{Dt: 1000, TotalTime: float64(benchSteps) * 1000}
			start := time.Now()
			if err := sim.RunWithCallback(ctx, cfg, func(int, float64, physics.View) bool { return true }); err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.1f\n",
				n, name, benchSteps, elapsed.Round(time.Microsecond), float64(benchSteps)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	names := solverNames(registry, args)

	logger := newLogger()
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	u, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run := func(name string) (*experiment.Experiment, *dynamo.Result, time.Duration, error) {
		c := *cfg
		c.Solver = name
		exp := experiment.New(c, u, logger)
		if err := exp.Setup(registry); err != nil {
			return nil, nil, 0, err
		}
		start := time.Now()
		result, err := exp.Run(ctx)
		return exp, result, time.Since(start), err
	}

	ref, _, _, err := run("direct")
	if err != nil {
		return err
	}
	refBodies := ref.Simulator().Bodies()

	fmt.Printf("comparing on %s: %d bodies, %d steps\n\n", source(cfg), len(u.Bodies), dynamo.StepCount(ref.SimConfig()))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tTIME\tDEVIATION/RADIUS\tENERGY DRIFT")

	for _, name := range names {
		exp, result, elapsed, err := run(name)
		if err != nil {
			return err
		}

		bodies := exp.Simulator().Bodies()
		deviation := 0.0
		for k := 0; k < bodies.Len(); k++ {
			d := bodies.At(k).DistanceTo(refBodies.At(k))
			if math.IsNaN(d) {
				deviation = d
				break
			}
			deviation = max(deviation, d)
		}

		fmt.Fprintf(w, "%s\t%v\t%.4e\t%.4e\n", name, elapsed.Round(time.Microsecond), deviation/u.Radius, result.EnergyDrift)
	}

	return w.Flush()
}
