package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gokhanalcan/tox/internal/config"
	"github.com/gokhanalcan/tox/internal/lab"
	"github.com/gokhanalcan/tox/internal/mpc"
	"github.com/gokhanalcan/tox/internal/ocp"
	"github.com/gokhanalcan/tox/internal/store"
	"github.com/gokhanalcan/tox/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	steps        int
	horizon      int
	maxIter      int
	costTol      float64
	seed         int64
	stepper      string
	simStep      float64
	downsampling int
	frameRate    int
	quiet        bool

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepCount int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tox",
		Short: "receding-horizon trajectory optimization lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tox", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a closed-loop experiment",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	addExperimentFlags(runCmd)
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-step output")

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "run a single trajectory optimization",
		Args:  cobra.ExactArgs(1),
		RunE:  solveOnce,
	}
	addExperimentFlags(solveCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run an experiment with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addExperimentFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "planning cycles per second")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "vary one model parameter across closed-loop runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addExperimentFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "model parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "highest parameter value")
	sweepCmd.Flags().IntVar(&sweepCount, "count", 5, "number of grid points")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot states and actions of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	traceCmd := &cobra.Command{
		Use:   "trace [run_id]",
		Short: "plot per-step cost and solver iterations of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotTrace,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the stored trajectory as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write the stored run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write the stored trajectory as an SVG chart to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for model: %s (models: %v)\n", args[0], config.PresetModels())
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, solveCmd, liveCmd, sweepCmd, listCmd, plotCmd, traceCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addExperimentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "preset scenario name")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "outer loop steps")
	cmd.Flags().IntVar(&horizon, "horizon", config.DefaultHorizon, "planning horizon")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIter, "solver iteration cap")
	cmd.Flags().Float64Var(&costTol, "cost-tol", config.DefaultCostTol, "relative convergence tolerance")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "seed for the initial policy")
	cmd.Flags().StringVar(&stepper, "stepper", "rk4", "integration scheme")
	cmd.Flags().Float64Var(&simStep, "sim-step", config.DefaultSimulationStep, "integrator step size")
	cmd.Flags().IntVar(&downsampling, "downsampling", config.DefaultDownsampling, "integrator substeps per control step")
}

// buildConfig layers preset, config file and explicit flags over the
// model's default scenario. Flags set on the command line win.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultFor(model)
	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model

	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Horizon = horizon
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.MaxIter = maxIter
	}
	if cmd.Flags().Changed("cost-tol") {
		cfg.CostTol = costTol
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("stepper") {
		cfg.Stepper = stepper
	}
	if cmd.Flags().Changed("sim-step") {
		cfg.SimulationStep = simStep
	}
	if cmd.Flags().Changed("downsampling") {
		cfg.Downsampling = downsampling
	}
	return cfg, nil
}

type stepPrinter struct{}

func (stepPrinter) OnStep(step int, cost float64, iters int) {
	fmt.Printf("step %4d  cost %12.4f  iters %3d\n", step, cost, iters)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := lab.New(cfg)
	if err != nil {
		return err
	}
	if !quiet {
		exp.Loop().AddObserver(stepPrinter{})
	}

	fmt.Printf("running %s for %d steps (horizon %d)...\n", cfg.Model, cfg.Steps, cfg.Horizon)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Println(viz.Summary(cfg, result))
	return nil
}

func solveOnce(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	exp, err := lab.New(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	sol, err := exp.Solve(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("solved %s in %v\n", cfg.Model, elapsed)
	fmt.Printf("accepted iterations: %d\n", len(sol.Trace)-1)
	fmt.Printf("cost: %.6f -> %.6f\n\n", sol.Trace[0], sol.Trace[len(sol.Trace)-1])
	fmt.Println(viz.PlotTrace(sol.Trace))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	exp, err := lab.New(cfg)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(context.Background(), exp, frameRate)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if sweepParam == "" {
		return fmt.Errorf("--param is required")
	}

	fmt.Printf("sweeping %s over [%g, %g] in %d runs of %d steps...\n",
		sweepParam, sweepMin, sweepMax, sweepCount, cfg.Steps)
	start := time.Now()

	points, err := lab.RunSweep(context.Background(), cfg, lab.Sweep{
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Count: sweepCount,
	})
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL COST\tGOAL DISTANCE\tSTATUS\n", strings.ToUpper(sweepParam))

	best := -1
	var costs []float64
	for i, pt := range points {
		if pt.Err != nil {
			fmt.Fprintf(w, "%.4f\t-\t-\t%v\n", pt.Value, pt.Err)
			continue
		}
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\tok\n", pt.Value, pt.FinalCost, pt.Metrics["goal_distance"])
		costs = append(costs, pt.FinalCost)
		if best < 0 || pt.FinalCost < points[best].FinalCost {
			best = i
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(costs) >= 2 {
		fmt.Println()
		fmt.Println(viz.PlotSeries(costs, fmt.Sprintf("final cost per %s value", sweepParam)))
	}
	if best >= 0 {
		fmt.Printf("\nbest: %s = %.4f (final cost %.4f)\n", sweepParam, points[best].Value, points[best].FinalCost)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTEPS\tHORIZON\tFINAL COST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Horizon,
			run.Metrics["final_cost"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, actions, _, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	fmt.Println(viz.PlotStates(states, viz.StateLabels(meta.Model)))
	fmt.Println()
	fmt.Println(viz.PlotActions(actions))

	if len(states[0]) >= 2 {
		xIdx, yIdx := viz.PhaseIndices(meta.Model)
		fmt.Println()
		fmt.Println(viz.PlotPhase(states, xIdx, yIdx, viz.StateLabels(meta.Model)))
	}
	return nil
}

func plotTrace(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	costs, iters, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(costs) == 0 {
		return fmt.Errorf("no trace data")
	}

	fmt.Printf("run: %s\n\n", runID)
	fmt.Println(viz.PlotSeries(costs, "cost per step"))
	fmt.Println()

	iterData := make([]float64, len(iters))
	for i, n := range iters {
		iterData[i] = float64(n)
	}
	fmt.Println(viz.PlotSeries(iterData, "solver iterations per step"))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	states, actions, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if len(actions) > 0 {
		for i := range actions[0] {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// The final state has no applied action; pad its columns with zeros
	// like the on-disk layout does.
	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if i < len(actions) {
			for _, val := range actions[i] {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
		} else if len(actions) > 0 {
			for range actions[0] {
				row = append(row, "0.000000")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, actions, times, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	costs, iters, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	cfg := &config.Config{
		Model:          meta.Model,
		Stepper:        meta.Stepper,
		Steps:          meta.Steps,
		Horizon:        meta.Horizon,
		SimulationStep: meta.SimulationStep,
		Downsampling:   meta.Downsampling,
		MaxIter:        meta.MaxIter,
		CostTol:        meta.CostTol,
		Seed:           meta.Seed,
		GoalState:      meta.GoalState,
	}
	result := &mpc.Result{
		States:  make([]ocp.State, len(states)),
		Actions: make([]ocp.Control, len(actions)),
		Costs:   costs,
		Iters:   iters,
		Times:   times,
		Metrics: meta.Metrics,
	}
	for i, s := range states {
		result.States[i] = s
	}
	for i, a := range actions {
		result.Actions[i] = a
	}

	return store.ExportJSON(os.Stdout, cfg, result)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return store.ExportSVG(os.Stdout, states, times, viz.StateLabels(meta.Model))
}
