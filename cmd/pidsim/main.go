package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/oveklev/pidsim/internal/analysis"
	"github.com/oveklev/pidsim/internal/config"
	"github.com/oveklev/pidsim/internal/engine"
	"github.com/oveklev/pidsim/internal/storage"
	"github.com/oveklev/pidsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string

	duration float64
	dt       float64
	seed     int64
	setpoint float64
	rampRate float64
	speed    float64

	kp         float64
	ti         float64
	td         float64
	algorithm  string
	antiWindup string
	outputMin  float64
	outputMax  float64

	gain        float64
	tau         float64
	deadTime    float64
	disturbance float64
	noise       float64

	stepTo float64
	stepAt float64

	ultimateGain float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pidsim",
		Short: "closed-loop PID control simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg.EngineConfig())
			if err != nil {
				return err
			}
			return tui.RunLive(eng)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and save the results",
		RunE:  runSimulation,
	}
	addLoopFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 120.0, "simulated duration (s)")
	runCmd.Flags().Float64Var(&stepTo, "step-to", 0.0, "retarget the setpoint mid-run (excites a step response)")
	runCmd.Flags().Float64Var(&stepAt, "step-at", 0.0, "simulated time of the setpoint step (s)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with interactive terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg.EngineConfig())
			if err != nil {
				return err
			}
			return tui.RunLive(eng)
		},
	}
	addLoopFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis and tuning suggestions",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&ultimateGain, "ku", 0, "ultimate gain for Ziegler-Nichols suggestions")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run with samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	configInitCmd := &cobra.Command{
		Use:   "config-init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCmd, exportCSVCmd, exportJSONCmd, presetsCmd, configInitCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLoopFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset configuration name")
	cmd.Flags().Float64Var(&dt, "dt", 0.1, "integration timestep (s)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&setpoint, "setpoint", 50.0, "target setpoint")
	cmd.Flags().Float64Var(&rampRate, "ramp", 0.0, "setpoint ramp rate (units/s, 0=step)")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "simulation speed multiplier")
	cmd.Flags().Float64Var(&kp, "kp", 1.0, "proportional gain")
	cmd.Flags().Float64Var(&ti, "ti", 10.0, "integral time (s, 0=off)")
	cmd.Flags().Float64Var(&td, "td", 0.0, "derivative time (s)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "basic", "control algorithm (basic|pi-d|i-pd)")
	cmd.Flags().StringVar(&antiWindup, "anti-windup", "clamping", "anti-windup method (none|clamping|conditional|backcalc)")
	cmd.Flags().Float64Var(&outputMin, "out-min", 0.0, "output lower bound")
	cmd.Flags().Float64Var(&outputMax, "out-max", 100.0, "output upper bound")
	cmd.Flags().Float64Var(&gain, "gain", 1.0, "plant gain")
	cmd.Flags().Float64Var(&tau, "tau", 10.0, "plant time constant (s)")
	cmd.Flags().Float64Var(&deadTime, "dead-time", 2.0, "plant dead time (s)")
	cmd.Flags().Float64Var(&disturbance, "disturbance", 0.0, "disturbance amplitude 0..1")
	cmd.Flags().Float64Var(&noise, "noise", 0.0, "noise amplitude 0..1")
}

// resolveConfig merges settings with flag > config file > preset > default
// precedence.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
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
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("setpoint") {
		cfg.Setpoint = setpoint
	}
	if flags.Changed("ramp") {
		cfg.RampRate = rampRate
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if flags.Changed("ti") {
		cfg.Controller.Ti = ti
	}
	if flags.Changed("td") {
		cfg.Controller.Td = td
	}
	if flags.Changed("algorithm") {
		cfg.Controller.Algorithm = algorithm
	}
	if flags.Changed("anti-windup") {
		cfg.Controller.AntiWindup = antiWindup
	}
	if flags.Changed("out-min") {
		cfg.Controller.OutputMin = outputMin
	}
	if flags.Changed("out-max") {
		cfg.Controller.OutputMax = outputMax
	}
	if flags.Changed("gain") {
		cfg.Plant.Gain = gain
	}
	if flags.Changed("tau") {
		cfg.Plant.TimeConstant = tau
	}
	if flags.Changed("dead-time") {
		cfg.Plant.DeadTime = deadTime
	}
	if flags.Changed("disturbance") {
		cfg.Plant.DisturbanceAmp = disturbance
	}
	if flags.Changed("noise") {
		cfg.Plant.NoiseAmp = noise
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}

	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg.EngineConfig())
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running simulation for %.1fs (dt=%.3fs)...\n", cfg.Duration, cfg.Dt)
	start := time.Now()

	// The loop starts at equilibrium, so without a mid-run step the trace is
	// flat; --step-to retargets the setpoint once stepAt is reached.
	doStep := cmd.Flags().Changed("step-to")
	stepped := false

	eng.Start()
	for eng.Time() < cfg.Duration {
		if doStep && !stepped && eng.Time() >= stepAt {
			eng.SetSetpoint(stepTo, cfg.RampRate)
			stepped = true
		}
		before := eng.Time()
		eng.Tick()
		if eng.Time() == before {
			break
		}
	}
	eng.Stop()

	elapsed := time.Since(start)
	report := eng.Metrics()

	runID, err := st.Save(cfg.Controller.Algorithm, cfg.Dt, eng.Time(), cfg.Seed,
		eng.History(), report)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(eng.History()))
	fmt.Println("\nmetrics:")
	fmt.Printf("  IAE:  %.4f\n", report.IAE)
	fmt.Printf("  ISE:  %.4f\n", report.ISE)
	fmt.Printf("  ITAE: %.4f\n", report.ITAE)
	fmt.Printf("  output range: [%.2f, %.2f]\n", report.OutputMin, report.OutputMax)
	fmt.Printf("  total variation: %.4f\n", report.TotalVariation)
	if report.Step.Overshoot != nil {
		fmt.Printf("  overshoot: %.2f%%\n", *report.Step.Overshoot)
	}
	if report.Step.SettlingTime != nil {
		fmt.Printf("  settling time: %.2fs\n", *report.Step.SettlingTime)
	}
	if report.Step.RiseTime != nil {
		fmt.Printf("  rise time: %.2fs\n", *report.Step.RiseTime)
	}
	if report.Step.SteadyStateError != nil {
		fmt.Printf("  steady-state error: %.4f\n", *report.Step.SteadyStateError)
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
	fmt.Fprintln(w, "ID\tTIME\tALGORITHM\tDURATION\tDT\tIAE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%.3fs\t%.2f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Algorithm,
			run.Duration,
			run.Dt,
			run.Metrics.IAE,
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
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("algorithm: %s\n", meta.Algorithm)
	fmt.Printf("samples: %d\n\n", len(samples))

	sp := make([]float64, len(samples))
	pv := make([]float64, len(samples))
	out := make([]float64, len(samples))
	for i, s := range samples {
		sp[i] = s.Setpoint
		pv[i] = s.Value
		out[i] = s.Output
	}

	graph := asciigraph.PlotMany([][]float64{sp, pv},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("setpoint / process value"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.Plot(out,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("controller output"),
	)
	fmt.Println(graph)

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
	if len(samples) < 2 {
		return fmt.Errorf("not enough data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("algorithm: %s\n\n", meta.Algorithm)

	errs := make([]float64, len(samples))
	for i, s := range samples {
		errs[i] = s.Error
	}

	spectrum := analysis.PowerSpectrum(errs, meta.Dt)
	if len(spectrum.Power) > 1 {
		plotData := spectrum.Power
		if len(plotData) > 4 {
			plotData = plotData[:len(plotData)/4]
		}
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("error power spectrum"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	period := analysis.DominantPeriod(errs, meta.Dt)
	if period == 0 {
		fmt.Println("no dominant oscillation detected")
		return nil
	}
	fmt.Printf("dominant period: %.3f s\n", period)
	fmt.Printf("dominant frequency: %.4f hz\n", 1.0/period)
	fmt.Printf("oscillation amplitude: %.3f\n", analysis.OscillationAmplitude(errs))

	if ultimateGain > 0 {
		suggestions := analysis.SuggestFromRun(errs, meta.Dt, ultimateGain)
		if suggestions == nil {
			return nil
		}
		fmt.Println("\nZiegler-Nichols suggestions:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tKP\tTI\tTD")
		for _, s := range suggestions {
			fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\n", s.Rule, s.Kp, s.Ti, s.Td)
		}
		return w.Flush()
	}

	return nil
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

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	return storage.WriteCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return storage.ExportJSON(enc, meta, samples)
}
