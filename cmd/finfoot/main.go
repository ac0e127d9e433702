package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/optim"
)

var (
	dataDir string
	verbose bool

	// shared by run, bench and compare
	configFile string
	preset     string
	method     string
	relTol     float64
	absTol     float64
	tEnd       string
	h0         string
	maxSteps   int
	params     map[string]string
	initial    map[string]string

	save       bool
	jsonOut    bool
	benchRuns  int
	workers    int
	components []string
	phase      []string
	outFile    string
	width      int
	height     int

	samples      int
	segments     int
	perturbation float64
	axes         []string
	objective    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "finfoot",
		Short:        "adaptive Runge-Kutta integration of dimensioned ODE problems",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".finfoot", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a problem and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProblem,
	}
	problemFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "write the run as JSON to stdout")

	benchCmd := &cobra.Command{
		Use:   "bench [problem]",
		Short: "time repeated runs of a problem",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchProblem,
	}
	problemFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 10, "number of runs")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [method...]",
		Short: "run a problem with several methods",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	problemFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "write metadata and states as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&components, "component", nil, "components to plot (default: up to six)")
	plotCmd.Flags().StringSliceVar(&phase, "phase", nil, "two components to draw as a phase portrait")
	plotCmd.Flags().StringVarP(&outFile, "out", "o", "", "write an image (png, svg, pdf) instead")
	plotCmd.Flags().IntVar(&width, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 12, "chart height")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list catalogued problems",
		Args:  cobra.NoArgs,
		RunE:  listProblems,
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list integration methods",
		Args:  cobra.NoArgs,
		RunE:  listMethods,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tolerance presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [problem]",
		Short: "estimate the largest Lyapunov exponent and the spectrum of a component",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeProblem,
	}
	problemFlags(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&components, "component", nil, "component for the spectrum (default: first)")
	analyzeCmd.Flags().IntVar(&samples, "samples", 1024, "uniform resample points for the spectrum")
	analyzeCmd.Flags().IntVar(&segments, "segments", 100, "renormalization intervals")
	analyzeCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-7, "scaled twin separation")

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "grid search parameters for the smallest objective",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepProblem,
	}
	problemFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, `swept parameter, e.g. --axis "mu=1 Hz,5 Hz,10 Hz"`)
	sweepCmd.Flags().StringVar(&objective, "objective", optim.Evaluations, "metric name, or evaluations, accepted, rejected")

	rootCmd.AddCommand(runCmd, benchCmd, compareCmd, analyzeCmd, sweepCmd, listCmd, showCmd, plotCmd, problemsCmd, methodsCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func problemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "tolerance preset")
	f.StringVar(&method, "method", integrators.DefaultMethod, "integration method")
	f.Float64Var(&relTol, "rtol", 0, "relative tolerance")
	f.Float64Var(&absTol, "atol", 0, "absolute tolerance")
	f.StringVar(&tEnd, "t-end", "", `end time, e.g. "20 s"`)
	f.StringVar(&h0, "h0", "", `initial step: "auto", a time, or a fraction of the span ("1 %")`)
	f.IntVar(&maxSteps, "max-steps", 0, "cap on stepper cycles")
	f.StringToStringVar(&params, "param", nil, `parameter overrides, e.g. --param "length=2 m"`)
	f.StringToStringVar(&initial, "init", nil, `initial state overrides, e.g. --init "theta=90 deg"`)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
