package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/atomsim/internal/analysis"
	"github.com/san-kum/atomsim/internal/automation"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/export"
	"github.com/san-kum/atomsim/internal/metrics"
	"github.com/san-kum/atomsim/internal/optim"
	"github.com/san-kum/atomsim/internal/sim"
	"github.com/san-kum/atomsim/internal/storage"
	"github.com/san-kum/atomsim/internal/viz"
	"github.com/san-kum/atomsim/internal/world"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile       string
	dt               float64
	frames           int
	steps            int
	workers          int
	seed             int64
	gravity          bool
	walls            bool
	piston           bool
	pistonMass       float64
	pressureInterval int
	energy           bool

	svgDir   string
	svgEvery int
	svgScale float64
	csvPath  string
	plot     bool

	column     string
	outputPath string
	numRuns    int
	sweepArgs  []string
	metricName string
	noSave     bool
	maxLag     int

	analyzeColumn string
)

// stabilityLimit is the temperature above which a frame counts as blown up.
const stabilityLimit = 1e6

func main() {
	rootCmd := &cobra.Command{
		Use:          "atomsim",
		Short:        "2-D Lennard-Jones molecular dynamics",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".atomsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and store its observables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of recorded frames")
	runCmd.Flags().BoolVar(&energy, "energy", false, "sample total energy every frame")
	runCmd.Flags().StringVar(&svgDir, "svg-dir", "", "write frames as SVG into this directory")
	runCmd.Flags().IntVar(&svgEvery, "svg-every", 1, "write every Nth frame as SVG")
	runCmd.Flags().Float64Var(&svgScale, "svg-scale", 1, "SVG pixels per box unit")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "stream temperature, pressure, area and atoms to this CSV file")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot temperature after the run")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run seeded copies of a simulation in parallel and average their metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addSceneFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of recorded frames")
	ensembleCmd.Flags().BoolVar(&energy, "energy", false, "sample total energy every frame")
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of members")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored observables",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot a single column")
	plotCmd.Flags().StringVar(&svgDir, "svg-dir", "", "also write each plotted column as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Describe(config.Presets[name]))
			}
			return w.Flush()
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search over parameters, minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of recorded frames")
	sweepCmd.Flags().BoolVar(&energy, "energy", false, "sample total energy every frame")
	sweepCmd.Flags().StringArrayVar(&sweepArgs, "param", nil, "name=v1,v2,... or name=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "atom_loss", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize, correlate and spectrum-analyze a stored observable",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "temperature", "observable to analyze")
	analyzeCmd.Flags().IntVar(&maxLag, "lag", 20, "largest autocorrelation lag in frames")

	rootCmd.AddCommand(runCmd, liveCmd, ensembleCmd, sweepCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", def.Dt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultStepsPerFrame, "integration steps per frame")
	cmd.Flags().IntVar(&workers, "workers", 0, "force workers (0 = one per CPU)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for seeded generators")
	cmd.Flags().BoolVar(&gravity, "gravity", def.Gravity, "enable gravity")
	cmd.Flags().BoolVar(&walls, "walls", def.Walls, "enable wall collisions")
	cmd.Flags().BoolVar(&piston, "piston", def.Piston.Enabled, "enable the moving wall")
	cmd.Flags().Float64Var(&pistonMass, "piston-mass", def.Piston.Mass, "piston mass")
	cmd.Flags().IntVar(&pressureInterval, "pressure-interval", def.PressureInterval, "steps per pressure sample")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// loadConfig resolves the preset or config file, then applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := config.DefaultScene
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 0 {
			name = filepath.Base(configFile)
			name = name[:len(name)-len(filepath.Ext(name))]
		}
	} else {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("steps") {
		cfg.StepsPerFrame = steps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("walls") {
		cfg.Walls = walls
	}
	if flags.Changed("piston") {
		cfg.Piston.Enabled = piston
	}
	if flags.Changed("piston-mass") {
		cfg.Piston.Mass = pistonMass
	}
	if flags.Changed("pressure-interval") {
		cfg.PressureInterval = pressureInterval
	}
	if flags.Changed("energy") {
		cfg.Energy = energy
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

func runMetrics(withEnergy bool) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewMeanTemperature(),
		metrics.NewMeanPressure(),
		metrics.NewMeanDensity(),
		metrics.NewStability(stabilityLimit),
		metrics.NewAtomLoss(),
	}
	if withEnergy {
		ms = append(ms, metrics.NewEnergyDrift())
	}
	return ms
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	w, err := cfg.Build()
	if err != nil {
		return err
	}

	driver := sim.New(w)
	driver.SetLogger(logger.With("preset", name))
	for _, m := range runMetrics(cfg.Energy) {
		driver.AddMetric(m)
	}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		driver.AddObserver(storage.NewCSVLogger(f))
	}
	if svgDir != "" {
		svg, err := export.NewSVGWriter(svgDir, svgEvery, svgScale)
		if err != nil {
			return err
		}
		driver.AddObserver(svg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCfg := sim.Config{Frames: cfg.Frames, StepsPerFrame: cfg.StepsPerFrame, Energy: cfg.Energy}
	fmt.Printf("running %s: %d atoms, %d steps...\n", name, w.Len(), runCfg.Steps())
	start := time.Now()

	result, err := driver.Run(ctx, runCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(automation.Metadata(name, cfg, result), result.Samples)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("atoms: %d (%d removed)\n", w.Len(), result.Removed)
	for _, e := range result.Errors {
		fmt.Printf("observer error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	if err := printMetrics(result.Metrics); err != nil {
		return err
	}

	if plot {
		temps, err := storage.Column(result.Samples, "temperature")
		if err != nil {
			return err
		}
		if temps = analysis.Finite(temps); len(temps) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(temps, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption("temperature")))
		}
		if _, counts := analysis.SpeedHistogram(w.Atoms(), 30); len(counts) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(counts, asciigraph.Height(8), asciigraph.Caption("final speed distribution")))
		}
	}
	return nil
}

func printMetrics(m map[string]float64) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, m[name])
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	w, err := cfg.Build()
	if err != nil {
		return err
	}
	return viz.Run(w, name, cfg.StepsPerFrame)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	build := func(s int64) (*world.World, error) {
		member := cfg.Clone()
		member.Seed = s
		return member.Build()
	}
	ens := sim.NewEnsemble(build, func() []sim.Metric { return runMetrics(cfg.Energy) }, numRuns, cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("ensemble started", "preset", name, "runs", numRuns, "seed", cfg.Seed)
	start := time.Now()
	results, err := ens.Run(ctx, sim.Config{Frames: cfg.Frames, StepsPerFrame: cfg.StepsPerFrame, Energy: cfg.Energy})
	if err != nil {
		return err
	}
	logger.Info("ensemble finished", "elapsed", time.Since(start))

	fmt.Printf("%s: %d runs, seeds %d..%d\n", name, len(results), cfg.Seed, cfg.Seed+int64(len(results))-1)
	fmt.Println("\nmean metrics:")
	return printMetrics(sim.MeanMetrics(results))
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	name, base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(sweepArgs) == 0 {
		return fmt.Errorf("no --param given (available: %v)", config.ParamNames())
	}

	names := make([]string, len(sweepArgs))
	ranges := make([][]float64, len(sweepArgs))
	for i, arg := range sweepArgs {
		names[i], ranges[i], err = parseSweep(arg)
		if err != nil {
			return err
		}
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	eval := func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := base.Clone()
		if err := cfg.SetParams(params); err != nil {
			return 0, err
		}
		if err := cfg.Validate(); err != nil {
			return 0, err
		}
		result, err := automation.RunConfig(ctx, cfg, func() []sim.Metric { return runMetrics(cfg.Energy) }, logger)
		if err != nil {
			return 0, err
		}
		v, ok := result.Metrics[metricName]
		if !ok {
			return 0, fmt.Errorf("metric %q not recorded", metricName)
		}
		return v, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %s over %d points, minimizing %s\n\n", name, grid.Size(), metricName)
	points, best, err := grid.Search(ctx, eval)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(append(names, metricName), "\t")))
	for _, p := range points {
		cells := make([]string, 0, len(names)+1)
		for _, n := range names {
			cells = append(cells, strconv.FormatFloat(p.Params[n], 'g', 6, 64))
		}
		if p.Err != nil {
			cells = append(cells, "error: "+p.Err.Error())
		} else {
			cells = append(cells, strconv.FormatFloat(p.Value, 'g', 6, 64))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	if best < 0 {
		return fmt.Errorf("no grid point produced a finite %s", metricName)
	}
	fmt.Printf("\nbest: %v -> %s = %.6g\n", points[best].Params, metricName, points[best].Value)
	return nil
}

// parseSweep reads "name=v1,v2,..." or "name=lo:hi:n".
func parseSweep(arg string) (string, []float64, error) {
	name, values, ok := strings.Cut(arg, "=")
	if !ok || name == "" || values == "" {
		return "", nil, fmt.Errorf("invalid --param %q, want name=values", arg)
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("invalid range in --param %q, want lo:hi:n", arg)
		}
		return name, optim.Linspace(lo, hi, n), nil
	}

	var out []float64
	for _, f := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value in --param %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return name, out, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	runner := &automation.Runner{
		Metrics: func() []sim.Metric { return runMetrics(false) },
		Logger:  logger,
	}
	if !noSave {
		runner.Store = storage.New(dataDir)
		if err := runner.Store.Init(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := runner.RunScenario(ctx, scenario)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN\tSTEPS\tREMOVED\tMEAN T")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.4g\n",
			i+1, r.Name, r.RunID, r.Result.StepsTaken, r.Result.Removed, r.Result.Metrics["mean_temperature"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSTEPS\tDT\tATOMS\tREMOVED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Atoms,
			run.Removed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("steps: %d, dt: %g\n\n", meta.Steps, meta.Dt)

	columns := []string{"temperature", "pressure", "atoms", "density"}
	if column != "" {
		columns = []string{column}
	}
	if svgDir != "" {
		if err := os.MkdirAll(svgDir, 0755); err != nil {
			return err
		}
	}

	for _, name := range columns {
		values, err := storage.Column(samples, name)
		if err != nil {
			return err
		}
		finite := analysis.Finite(values)
		if len(finite) < 2 {
			fmt.Printf("%s: no data\n\n", name)
			continue
		}
		fmt.Println(asciigraph.Plot(finite, asciigraph.Height(10), asciigraph.Width(70), asciigraph.Caption(name)))
		fmt.Println()

		if svgDir != "" {
			path := filepath.Join(svgDir, runID+"_"+name+".svg")
			if err := os.WriteFile(path, []byte(export.SeriesToSVG(values, 800, 300, "#00ff88")), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n\n", path)
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	values, err := storage.Column(samples, analyzeColumn)
	if err != nil {
		return err
	}

	frameTime := meta.Dt * float64(meta.StepsPerFrame)
	summary, err := analysis.Summarize(values, frameTime)
	if err != nil {
		return fmt.Errorf("%s: %w", analyzeColumn, err)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("column: %s (%d samples, every %g time units)\n\n", analyzeColumn, summary.N, frameTime)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  mean\t%.6g\n", summary.Mean)
	fmt.Fprintf(w, "  std dev\t%.6g\n", summary.StdDev)
	fmt.Fprintf(w, "  range\t[%.6g, %.6g]\n", summary.Min, summary.Max)
	fmt.Fprintf(w, "  drift\t%.6g per time unit\n", summary.Slope)
	finite := analysis.Finite(values)
	if eq := analysis.Equilibrated(finite, max(len(finite)/5, 2), 0.05); eq >= 0 {
		fmt.Fprintf(w, "  settled\tafter frame %d\n", eq)
	} else {
		fmt.Fprintf(w, "  settled\tno\n")
	}
	if freqs, power, err := analysis.PowerSpectrum(values, frameTime); err == nil {
		fmt.Fprintf(w, "  dominant frequency\t%.6g\n", analysis.DominantFrequency(freqs, power))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if ac, err := analysis.Autocorrelation(values, maxLag); err == nil && len(ac) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ac, asciigraph.Height(8), asciigraph.Caption("autocorrelation")))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if outputPath == "" {
		return storage.WriteJSON(os.Stdout, *meta, samples)
	}
	if err := storage.ExportJSON(outputPath, *meta, samples); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), outputPath)
	return nil
}

