package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/fuelcycle/internal/config"
	"github.com/san-kum/fuelcycle/internal/damage"
	"github.com/san-kum/fuelcycle/internal/experiment"
	"github.com/san-kum/fuelcycle/internal/metrics"
	"github.com/san-kum/fuelcycle/internal/optim"
	"github.com/san-kum/fuelcycle/internal/sim"
	"github.com/san-kum/fuelcycle/internal/storage"
	"github.com/san-kum/fuelcycle/internal/tui"
	"github.com/san-kum/fuelcycle/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	theme    string

	// Scenario selection
	configFile string
	preset     string

	// Overrides
	dt        float64
	years     float64
	tbr       float64
	iStartup  float64
	maxSims   int
	trapModel string

	live         bool
	plot         bool
	promTextfile string
	archivePath  string

	// Sweep
	tbrRange      string
	iStartupRange string
	workers       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fuelcycle",
		Short:        "tritium fuel-cycle inventory simulator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fuelcycle", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeReactor.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "calibrate TBR and startup inventory for a scenario",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "show calibration progress")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot inventories after the run")
	runCmd.Flags().StringVar(&promTextfile, "prom-textfile", "", "write metrics in Prometheus text format to this file")
	runCmd.Flags().StringVar(&archivePath, "archive", "", "sqlite database recording every calibration attempt")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "evaluate a grid of TBR and startup inventory values",
		Args:  cobra.NoArgs,
		RunE:  sweepScenario,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&tbrRange, "tbr-range", "1.0:1.2:5", "TBR grid as lo:hi:n")
	sweepCmd.Flags().StringVar(&iStartupRange, "i-startup-range", "", "startup inventory grid as lo:hi:n (kg)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations (0 = GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run inventories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	attemptsCmd := &cobra.Command{
		Use:   "attempts [run_id]",
		Short: "show archived calibration attempts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showAttempts,
	}
	attemptsCmd.Flags().StringVar(&archivePath, "archive", "", "sqlite attempt archive")
	_ = attemptsCmd.MarkFlagRequired("archive")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				cfg := config.GetPreset(p)
				fmt.Printf("  %-10s %d components, %d connections\n", p, len(cfg.Components), len(cfg.Connections))
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset scenario to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s scenario to %s\n", preset, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "baseline", "preset to write")

	rootCmd.AddCommand(runCmd, sweepCmd, listCmd, plotCmd, exportCmd, attemptsCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "baseline", "use preset scenario")
	cmd.Flags().Float64Var(&dt, "dt", 0, "initial timestep in seconds")
	cmd.Flags().Float64Var(&years, "years", 0, "simulated time in years")
	cmd.Flags().Float64Var(&tbr, "tbr", 0, "initial tritium breeding ratio")
	cmd.Flags().Float64Var(&iStartup, "i-startup", 0, "initial startup inventory (kg)")
	cmd.Flags().IntVar(&maxSims, "max-simulations", 0, "calibration attempt limit")
	cmd.Flags().StringVar(&trapModel, "trap-model", "", "trap density model ("+strings.Join(damage.Models(), ", ")+")")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// loadScenario reads the config file or preset and applies the command-line
// overrides. Flags win over the file, which wins over the environment.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Simulation.Dt = dt
	}
	if flags.Changed("years") {
		cfg.Simulation.FinalTime = years * damage.SecondsPerYear
	}
	if flags.Changed("max-simulations") {
		cfg.Simulation.MaxSimulations = maxSims
	}
	if flags.Changed("trap-model") {
		cfg.Simulation.TrapModel = trapModel
	}
	params := map[string]float64{}
	if flags.Changed("tbr") {
		params[experiment.ParamTBR] = tbr
	}
	if flags.Changed("i-startup") {
		params[experiment.ParamIStartup] = iStartup
	}
	if err := experiment.ApplyParams(cfg, params); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if live {
		// The live view owns the terminal; keep logs quiet underneath it.
		if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
			return err
		}
	} else if err := exp.Setup(experiment.NewRegistry(), logger); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("running scenario", "scenario", cfg.Name, "components", len(cfg.Components))
	start := time.Now()

	var result *sim.Result
	if live {
		result, err = tui.Run(ctx, cfg.Name, exp.GetSimulator())
	} else {
		result, err = exp.Run(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Name, result)
	if err != nil {
		return err
	}
	logger.Info("run saved", "run_id", runID, "elapsed", elapsed)

	if archivePath != "" {
		if err := archiveRun(ctx, runID, cfg.Name, result.Attempts); err != nil {
			return err
		}
	}

	if promTextfile != "" {
		summary := metrics.Summary{
			TBR:          result.TBR,
			IStartup:     result.IStartup,
			DoublingTime: result.DoublingTime,
			Attempts:     len(result.Attempts),
			Converged:    result.Converged,
		}
		if err := metrics.WriteTextfile(promTextfile, cfg.Name, result.Metrics, summary); err != nil {
			return fmt.Errorf("write textfile: %w", err)
		}
	}

	fmt.Println(viz.Summary(cfg.Name, result))
	fmt.Println()
	fmt.Println(viz.AttemptTable(result.Attempts))
	fmt.Printf("\nrun id: %s (%v)\n", runID, elapsed.Round(time.Millisecond))
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	if plot {
		fmt.Println()
		columns := make([][]float64, len(result.Names))
		for i := range result.Names {
			columns[i] = result.Column(i)
		}
		printCharts(result.Names, columns, result.DPA, result.Traps)
	}
	return nil
}

func archiveRun(ctx context.Context, runID, scenario string, attempts []sim.Attempt) error {
	a, err := storage.OpenArchive(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Record(ctx, runID, scenario, attempts)
}

func parseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid range %q: want lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid range %q: count must be a positive integer", s)
	}
	return optim.Linspace(lo, hi, n), nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	base, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	var (
		names  []string
		ranges [][]float64
	)
	if tbrRange != "" {
		r, err := parseRange(tbrRange)
		if err != nil {
			return err
		}
		names, ranges = append(names, experiment.ParamTBR), append(ranges, r)
	}
	if iStartupRange != "" {
		r, err := parseRange(iStartupRange)
		if err != nil {
			return err
		}
		names, ranges = append(names, experiment.ParamIStartup), append(ranges, r)
	}
	if len(names) == 0 {
		return errors.New("nothing to sweep: set --tbr-range or --i-startup-range")
	}

	gs := optim.NewGridSearch(names, ranges)
	if workers > 0 {
		gs.SetWorkers(workers)
	}

	ctx, stop := signalContext()
	defer stop()

	reg := experiment.NewRegistry()
	points, err := gs.Search(ctx, func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if err := experiment.ApplyParams(cfg, params); err != nil {
			return nil, err
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(reg, nil); err != nil {
			return nil, err
		}
		return exp, nil
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TBR\tI_STARTUP\tMIN_MARGIN\tDOUBLING\tVERDICT")
	for _, p := range points {
		doubling := "never"
		if d := p.Attempt.DoublingTime; !math.IsNaN(d) {
			doubling = fmt.Sprintf("%.3f yr", d/damage.SecondsPerYear)
		}
		fmt.Fprintf(w, "%.4f\t%.4g\t%.4g\t%s\t%s\n",
			p.Attempt.TBR, p.Attempt.IStartup, p.Attempt.MinMargin, doubling, p.Attempt.Outcome)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := optim.Best(points); ok {
		fmt.Printf("\nbest feasible point: TBR %.4f, I_startup %.4g kg\n", best.Attempt.TBR, best.Attempt.IStartup)
	} else {
		fmt.Println("\nno feasible point in the grid")
	}
	return nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTBR\tI_STARTUP\tATTEMPTS\tOUTCOME")
	for _, run := range runs {
		ratio := "-"
		if run.TBR != nil {
			ratio = fmt.Sprintf("%.4f", *run.TBR)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4g\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			ratio,
			run.IStartup,
			run.Attempts,
			run.Outcome,
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
	series, err := st.LoadInventories(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	columns := make([][]float64, len(series.Names))
	for i, name := range series.Names {
		columns[i] = series.Column(name)
	}
	printCharts(series.Names, columns, series.DPA, series.Traps)
	return nil
}

func printCharts(names []string, columns [][]float64, dpa, traps []float64) {
	opts := viz.DefaultPlotOptions()
	opts.Caption = "inventory (kg)"
	fmt.Println(viz.PlotInventories(names, columns, opts))
	fmt.Println()

	opts.Caption = "dpa"
	if chart := viz.PlotSeries(dpa, opts); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}
	opts.Caption = "trap density"
	if chart := viz.PlotSeries(traps, opts); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func showAttempts(cmd *cobra.Command, args []string) error {
	a, err := storage.OpenArchive(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if len(args) == 0 {
		runs, err := a.Runs(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tATTEMPTS")
		for _, id := range sortedKeys(runs) {
			fmt.Fprintf(w, "%s\t%d\n", id, runs[id])
		}
		return w.Flush()
	}

	archived, err := a.Attempts(ctx, args[0])
	if err != nil {
		return err
	}
	if len(archived) == 0 {
		return fmt.Errorf("no attempts archived for run %s", args[0])
	}
	attempts := make([]sim.Attempt, len(archived))
	for i, aa := range archived {
		attempts[i] = aa.Attempt
	}
	fmt.Printf("run: %s (%s)\n\n", args[0], archived[0].Scenario)
	fmt.Println(viz.AttemptTable(attempts))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
