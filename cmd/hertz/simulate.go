package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/hertz/internal/analysis"
	"github.com/san-kum/hertz/internal/config"
	"github.com/san-kum/hertz/internal/dynamo"
	"github.com/san-kum/hertz/internal/export"
	"github.com/san-kum/hertz/internal/metrics"
	"github.com/san-kum/hertz/internal/physics"
	"github.com/san-kum/hertz/internal/signal"
	"github.com/san-kum/hertz/internal/sim"
	"github.com/san-kum/hertz/internal/viz"
	"github.com/spf13/cobra"
)

var (
	preset     string
	dt         float64
	duration   float64
	syncLevel  float64
	rampStart  float64
	rampEnd    float64
	leftAngle  float64
	rightAngle float64
	sweepSteps int
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	scenario   string
	plot       bool
	phase      bool
	csvPath    string
	jsonPath   string
	svgPath    string
)

func simulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run the clock offline and report metrics",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	cmd.Flags().StringVar(&preset, "preset", "", "clock preset (see presets)")
	cmd.Flags().Float64Var(&dt, "dt", 1.0/60.0, "frame time")
	cmd.Flags().Float64Var(&duration, "time", 60, "duration in seconds")
	cmd.Flags().Float64Var(&syncLevel, "sync", 1, "constant sync level in [0,1]")
	cmd.Flags().Float64Var(&rampStart, "ramp-start", 0, "start of a sync ramp in seconds")
	cmd.Flags().Float64Var(&rampEnd, "ramp-end", 0, "end of a sync ramp in seconds (enables the ramp)")
	cmd.Flags().Float64Var(&leftAngle, "left", physics.DefaultLeftAngle, "initial left angle in degrees")
	cmd.Flags().Float64Var(&rightAngle, "right", physics.DefaultRightAngle, "initial right angle in degrees")
	cmd.Flags().IntVar(&sweepSteps, "sweep", 0, "run this many levels in parallel (sync 0..1 unless --param)")
	cmd.Flags().StringVar(&sweepParam, "param", "", "sweep this clock parameter instead of sync (frequency, damping, coupling, escapement)")
	cmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest swept parameter value")
	cmd.Flags().Float64Var(&sweepMax, "max", 1, "highest swept parameter value")
	cmd.Flags().StringVar(&scenario, "scenario", "", "scripted scroll scenario (yaml)")
	cmd.Flags().BoolVar(&plot, "plot", true, "plot the angles")
	cmd.Flags().BoolVar(&phase, "phase", false, "plot left against right angle")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write frames to this CSV file")
	cmd.Flags().StringVar(&jsonPath, "json", "", "write the run to this JSON file (- for stdout)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write an angle plot to this SVG file")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var sc *sim.Scenario
	if scenario != "" {
		if sc, err = sim.LoadScenario(scenario); err != nil {
			return err
		}
		if preset == "" {
			preset = sc.Preset
		}
	}

	clockCfg, err := resolveClock(cfg, preset)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("left") {
		clockCfg.LeftAngle = leftAngle
	}
	if cmd.Flags().Changed("right") {
		clockCfg.RightAngle = rightAngle
	}
	if err := clockCfg.Validate(); err != nil {
		return err
	}

	simCfg := sim.DefaultConfig()
	simCfg.Dt = dt
	simCfg.Duration = duration
	simCfg.RevealThreshold = clockCfg.RevealThreshold
	if sc != nil {
		simCfg = sc.Config(simCfg)
	}

	out := cmd.OutOrStdout()
	if sweepSteps > 1 {
		return runSweep(cmd.Context(), out, clockCfg, simCfg)
	}

	schedule := sim.Constant(syncLevel)
	scheduleName := fmt.Sprintf("constant %.2f", syncLevel)
	if rampEnd > rampStart {
		schedule = sim.Ramp(rampStart, rampEnd)
		scheduleName = fmt.Sprintf("ramp %.1fs → %.1fs", rampStart, rampEnd)
	}

	clock := clockCfg.NewClock()
	if sc != nil {
		if err := sc.Apply(clock); err != nil {
			return err
		}
		schedule = sc.Schedule()
		scheduleName = "scenario " + sc.Name
	}
	s := sim.New(clock)
	for _, m := range metrics.Defaults(clock.Energy) {
		s.AddMetric(m)
	}

	fmt.Fprintf(out, "running clock simulation (%s, sync %s)...\n", presetName(), scheduleName)
	start := time.Now()
	res, err := s.Run(cmd.Context(), schedule, simCfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "completed in %v\n", time.Since(start))
	printResult(out, res, simCfg.Dt)

	if plot {
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.PlotAngles(res, 80, 12))
	}
	if phase {
		left, right := res.Angles()
		fmt.Fprintln(out, "\nphase (left vs right):")
		fmt.Fprintln(out, analysis.ToASCII(analysis.Lissajous(left, right), 60, 20))
	}

	return writeExports(res, clock.Constants(), simCfg)
}

func printResult(w io.Writer, res *dynamo.Result, dt float64) {
	left, right := res.Angles()
	fmt.Fprintf(w, "steps: %d\n", res.StepsTaken)
	if res.RevealedAt >= 0 {
		fmt.Fprintf(w, "revealed at: %.2fs\n", res.RevealedAt)
	} else {
		fmt.Fprintln(w, "revealed at: never")
	}
	fmt.Fprintf(w, "sync index: %.3f\n", analysis.SyncIndex(left, right))
	if p := analysis.DominantPeriod(left, dt); p > 0 {
		fmt.Fprintf(w, "dominant period: %.3f s\n", p)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "warning: %v\n", e)
	}

	fmt.Fprintln(w, "\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, res.Metrics[name])
	}
}

func runSweep(ctx context.Context, w io.Writer, clockCfg config.ClockConfig, simCfg sim.Config) error {
	sweep := &sim.Sweep{
		NewClock: clockCfg.NewClock,
		NewMetrics: func() []dynamo.Metric {
			return []dynamo.Metric{metrics.NewPhaseGap(120), metrics.NewAmplitude()}
		},
		Levels: sim.Levels(0, 1, sweepSteps),
		Param:  sweepParam,
		Sync:   signal.Clamp(syncLevel),
	}
	axis := "sync"
	if sweepParam != "" {
		sweep.Levels = sim.Levels(sweepMin, sweepMax, sweepSteps)
		axis = sweepParam
	}

	fmt.Fprintf(w, "sweeping %d %s levels over %.0fs...\n", len(sweep.Levels), axis, simCfg.Duration)
	results, err := sweep.Run(ctx, simCfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%-10s %-12s %-12s %s\n", axis, "phase_gap", "amplitude", "sync index")
	for _, r := range results {
		left, right := r.Result.Angles()
		fmt.Fprintf(w, "%-10.3f %-12.4f %-12.4f %.3f\n",
			r.Level, r.Result.Metrics["phase_gap"], r.Result.Metrics["max_amplitude"], analysis.SyncIndex(left, right))
	}
	if plot {
		fmt.Fprintln(w)
		fmt.Fprintln(w, viz.PlotSweep(results, "phase_gap", axis, 10))
	}
	return nil
}

func writeExports(res *dynamo.Result, c physics.Constants, simCfg sim.Config) error {
	run := export.NewRun(preset, c, simCfg.Dt, simCfg.Duration, res)

	if jsonPath == "-" {
		if err := export.WriteJSON(os.Stdout, run); err != nil {
			return err
		}
	} else if jsonPath != "" {
		if err := writeFile(jsonPath, func(w io.Writer) error { return export.WriteJSON(w, run) }); err != nil {
			return err
		}
	}
	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return export.WriteCSV(w, res.Frames) }); err != nil {
			return err
		}
	}
	if svgPath != "" {
		left, right := res.Angles()
		svg := export.PlotSVG(800, 300,
			export.Series{Points: export.TimeSeries(simCfg.Dt, left), Stroke: "#b58900"},
			export.Series{Points: export.TimeSeries(simCfg.Dt, right), Stroke: "#268bd2"},
		)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func presetName() string {
	if preset == "" {
		return "config"
	}
	return strings.ToLower(preset)
}
