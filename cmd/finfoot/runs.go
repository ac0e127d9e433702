package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/finfoot/internal/storage"
	"github.com/san-kum/finfoot/internal/viz"
)

// maxPlots bounds the default component selection of plot.
const maxPlots = 6

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tTIME\tSPAN\tRTOL\tSTEPS\tTERMINATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g..%g s\t%g\t%d\t%s\n",
			run.ID,
			run.Problem,
			run.Method,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.T0, run.TEnd,
			run.RelTol,
			run.Stats.Accepted,
			run.Termination,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if jsonOut {
		states, err := st.LoadStates(meta.ID)
		if err != nil {
			return err
		}
		return storage.ExportJSON(os.Stdout, storage.ExportStored(*meta, states))
	}

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Println(viz.Field("problem", meta.Problem))
	fmt.Println(viz.Field("method", meta.Method))
	fmt.Println(viz.Field("span", fmt.Sprintf("%g .. %g s", meta.T0, meta.TEnd)))
	fmt.Println(viz.Field("tolerance", fmt.Sprintf("rtol %g, atol %g", meta.RelTol, meta.AbsTol)))
	if meta.InitialStep != "" {
		fmt.Println(viz.Field("initial step", meta.InitialStep))
	}
	fmt.Println(viz.Field("termination", viz.Termination(meta.Termination)))
	fmt.Println(viz.Field("steps", fmt.Sprintf("%d accepted, %d rejected, %d evaluations",
		meta.Stats.Accepted, meta.Stats.Rejected, meta.Stats.Evaluations)))
	fmt.Println(viz.Field("points", fmt.Sprint(meta.Points)))

	if len(meta.Params) > 0 {
		fmt.Println(viz.Label.Render("\nparameters:"))
		for _, name := range sortedKeys(meta.Params) {
			fmt.Printf("  %s: %s\n", name, meta.Params[name])
		}
	}
	fmt.Println(viz.Label.Render("\ncomponents:"))
	for _, c := range meta.Components {
		fmt.Printf("  %s [%s]\n", c.Name, c.Unit)
	}
	if len(meta.Metrics) > 0 {
		fmt.Println(viz.Label.Render("\nmetrics:"))
		printMetrics(meta.Metrics)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, err := st.LoadStates(meta.ID)
	if err != nil {
		return err
	}
	if len(states.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	if len(phase) > 0 {
		return plotPhase(meta, states)
	}

	names := components
	if len(names) == 0 {
		for i, c := range states.Columns {
			if i == maxPlots {
				break
			}
			names = append(names, c.Name)
		}
	}
	series := make([]viz.Series, 0, len(names))
	for _, name := range names {
		s, err := column(states, name)
		if err != nil {
			return err
		}
		series = append(series, s)
	}

	if outFile != "" {
		title := fmt.Sprintf("%s / %s", meta.Problem, meta.Method)
		if err := viz.SaveImage(outFile, title, states.Times, series); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("samples: %d\n\n", len(states.Times))
	for _, s := range series {
		fmt.Println(viz.Chart(states.Times, []viz.Series{s}, viz.ChartOptions{Width: width, Height: height}))
		fmt.Println()
	}
	return nil
}

func plotPhase(meta *storage.RunMetadata, states *storage.States) error {
	if len(phase) != 2 {
		return fmt.Errorf("--phase takes two components, got %d", len(phase))
	}
	x, err := column(states, phase[0])
	if err != nil {
		return err
	}
	y, err := column(states, phase[1])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s against %s\n", meta.ID, y.Label(), x.Label())
	fmt.Print(viz.Panel.Render(viz.Phase(x.Values, y.Values, width/2, height).String()))
	fmt.Println()
	return nil
}

func column(states *storage.States, name string) (viz.Series, error) {
	vals, ok := states.Series(name)
	if !ok {
		return viz.Series{}, fmt.Errorf("unknown component %q", name)
	}
	s := viz.Series{Name: name, Values: vals}
	for _, c := range states.Columns {
		if c.Name == name {
			s.Unit = c.Unit
		}
	}
	return s, nil
}
