package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/finfoot/internal/experiment"
	"github.com/san-kum/finfoot/internal/optim"
	"github.com/san-kum/finfoot/internal/viz"
)

func analyzeProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, newLogger())
	if err != nil {
		return err
	}

	opts := experiment.DefaultAnalyzeOptions()
	if len(components) > 0 {
		opts.Component = components[0]
	}
	opts.Samples = samples
	opts.Lyapunov.Segments = segments
	opts.Lyapunov.Perturbation = perturbation

	rep, err := exp.Analyze(cmd.Context(), opts)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s / %s", rep.Problem, rep.Method)))
	lambda := fmt.Sprintf("%.4g 1/s", rep.Lyapunov.Exponent)
	if rep.Lyapunov.Exponent > 0 {
		lambda += " " + viz.Bad.Render("(diverging)")
	}
	fmt.Println(viz.Field("lyapunov", lambda))
	fmt.Println(viz.Field("convergence", viz.Sparkline(rep.Lyapunov.Running, 40, false)))
	fmt.Println(viz.Field("steps", fmt.Sprintf("%d accepted, %d rejected, %d evaluations",
		rep.Lyapunov.Stats.Accepted, rep.Lyapunov.Stats.Rejected, rep.Lyapunov.Stats.Evaluations)))
	fmt.Println(viz.Field("component", rep.Component))
	fmt.Println(viz.Field("dominant", fmt.Sprintf("%.4g Hz", rep.DominantFrequency)))
	fmt.Println(viz.Field("spectrum", viz.Sparkline(rep.Spectrum.Power[1:], 40, true)))
	return nil
}

func sweepProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return errors.New("no --axis given")
	}
	grid := make([]optim.Axis, 0, len(axes))
	for _, s := range axes {
		a, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		grid = append(grid, a)
	}
	g, err := optim.NewGridSearch(newLogger(), grid...)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %d points, minimizing %s...\n", cfg.Problem, g.Size(), objective)
	res, err := g.Search(cmd.Context(), cfg, objective)
	if res != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PARAMS\tTERMINATION\tVALUE")
		for _, tr := range res.Trials {
			v := "-"
			if !math.IsNaN(tr.Value) {
				v = fmt.Sprintf("%.6g", tr.Value)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", optim.FormatPoint(tr.Params), tr.Termination, v)
		}
		w.Flush()
	}
	if err != nil {
		return err
	}
	fmt.Println("\n" + viz.Field("best", viz.Good.Render(optim.FormatPoint(res.Best.Params))))
	fmt.Println(viz.Field(objective, fmt.Sprintf("%.6g", res.Best.Value)))
	return nil
}
