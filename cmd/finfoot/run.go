package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/experiment"
	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/sim"
	"github.com/san-kum/finfoot/internal/storage"
	"github.com/san-kum/finfoot/internal/viz"
)

// loadConfig layers defaults, the config file, FINFOOT_* variables, the
// preset, the problem argument and changed flags, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if preset != "" && !config.ApplyPreset(cfg, preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if len(args) > 0 {
		cfg.Problem = args[0]
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = method
	}
	if f.Changed("rtol") {
		cfg.Tolerance.Rel = relTol
	}
	if f.Changed("atol") {
		cfg.Tolerance.Abs = absTol
	}
	if f.Changed("t-end") {
		cfg.End = tEnd
	}
	if f.Changed("h0") {
		cfg.InitialStep = h0
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	cfg.Params = merge(cfg.Params, params)
	cfg.Initial = merge(cfg.Initial, initial)
	return cfg, nil
}

func merge(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[strings.ToLower(k)] = v
	}
	return dst
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}
	run, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	meta := metadata(exp, run)
	if save {
		id, err := storage.New(dataDir).Save(meta, run.Result.Trajectory)
		if err != nil {
			return err
		}
		meta.ID = id
	}
	if jsonOut {
		return storage.ExportJSON(os.Stdout, storage.NewExport(meta, run.Result.Trajectory))
	}

	printRun(exp, run, meta.ID)
	return nil
}

func metadata(exp *experiment.Experiment, run *sim.Run) storage.RunMetadata {
	cfg := exp.Config()
	p := exp.Problem()
	return storage.RunMetadata{
		Problem:     exp.Model().Name(),
		Method:      exp.Method(),
		T0:          p.T0.Value(),
		TEnd:        p.TEnd.Value(),
		RelTol:      cfg.Tolerance.Rel,
		AbsTol:      cfg.Tolerance.Abs,
		InitialStep: cfg.InitialStep,
		Params:      cfg.Params,
		Termination: run.Result.Termination,
		Stats:       run.Result.Stats,
		ElapsedSec:  run.Elapsed.Seconds(),
		Metrics:     run.Metrics,
	}
}

func printRun(exp *experiment.Experiment, run *sim.Run, id string) {
	res := run.Result
	final := res.Final()

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s / %s", exp.Model().Name(), exp.Method())))
	fmt.Println(viz.Field("termination", viz.Termination(res.Termination)))
	fmt.Println(viz.Field("t", final.Time.String()))
	fmt.Println(viz.Field("steps", fmt.Sprintf("%d accepted, %d rejected, %d evaluations",
		res.Stats.Accepted, res.Stats.Rejected, res.Stats.Evaluations)))
	fmt.Println(viz.Field("elapsed", run.Elapsed.String()))
	if id != "" {
		fmt.Println(viz.Field("run id", id))
	}
	if err := res.Err(); err != nil {
		fmt.Println(viz.Bad.Render(err.Error()))
	}

	if steps := stepSizes(res.Trajectory); len(steps) > 1 {
		fmt.Println(viz.Field("step size", viz.Sparkline(steps, 40, true)))
	}

	fmt.Println(viz.Label.Render("\nfinal state:"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, c := range final.State.Layout().Components() {
		fmt.Fprintf(w, "  %s\t%s\n", c.Name, final.State.At(i))
	}
	w.Flush()

	if len(run.Metrics) > 0 {
		fmt.Println(viz.Label.Render("\nmetrics:"))
		printMetrics(run.Metrics)
	}
	if passed, ok := exp.ReferencePassed(run); ok {
		verdict := viz.Good.Render("within reference band")
		if !passed {
			verdict = viz.Bad.Render("outside reference band")
		}
		fmt.Println("\n" + viz.Field("reference", verdict))
	}
}

func printMetrics(ms map[string]float64) {
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, ms[name])
	}
}

// stepSizes returns the accepted step sizes in seconds.
func stepSizes(tr *dynamo.Trajectory) []float64 {
	ts := tr.Times()
	out := make([]float64, 0, len(ts))
	for i := 1; i < len(ts); i++ {
		out = append(out, math.Abs(ts[i]-ts[i-1]))
	}
	return out
}

func benchProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s with %s (%d runs)...\n", exp.Model().Name(), exp.Method(), benchRuns)
	rep, err := exp.Bench(cmd.Context(), experiment.BenchOptions{Runs: benchRuns, Workers: workers})
	if err != nil {
		return err
	}

	fmt.Println(viz.Field("termination", viz.Termination(rep.Termination)))
	fmt.Println(viz.Field("workers", fmt.Sprint(rep.Workers)))
	fmt.Println(viz.Field("wall", rep.Wall.String()))
	fmt.Println(viz.Field("per run", fmt.Sprintf("mean %v  min %v  max %v  stddev %v", rep.Mean, rep.Min, rep.Max, rep.StdDev)))
	fmt.Println(viz.Field("steps", fmt.Sprintf("%d accepted, %d rejected", rep.Stats.Accepted, rep.Stats.Rejected)))
	fmt.Println(viz.Field("evaluations", fmt.Sprintf("%d (%.3g/s)", rep.Stats.Evaluations, rep.EvalsPerSecond)))
	if !math.IsNaN(rep.ReferenceError) {
		fmt.Println(viz.Field("reference error", fmt.Sprintf("%.3g", rep.ReferenceError)))
	}
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	methods := args[1:]
	if len(methods) == 0 {
		methods = integrators.Methods()
	}

	cs, err := experiment.Compare(cmd.Context(), cfg, methods, newLogger())
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s, rtol %g, atol %g", cfg.Problem, cfg.Tolerance.Rel, cfg.Tolerance.Abs)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tTERMINATION\tACCEPTED\tREJECTED\tEVALS\tELAPSED\tREF ERROR")
	for _, c := range cs {
		res := c.Run.Result
		refErr := "-"
		if v, ok := c.Run.Metrics["reference_error"]; ok {
			refErr = fmt.Sprintf("%.3g", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%v\t%s\n",
			c.Method, res.Termination, res.Stats.Accepted, res.Stats.Rejected,
			res.Stats.Evaluations, c.Run.Elapsed, refErr)
	}
	return w.Flush()
}
