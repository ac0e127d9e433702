package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/sim"
)

type BenchOptions struct {
	Runs int
	// Workers bounds concurrent runs; zero uses GOMAXPROCS.
	Workers int
}

// BenchReport summarises repeated identical runs. Every run does the same
// work, so Stats and Termination come from the first one.
type BenchReport struct {
	Problem     string
	Method      string
	Runs        int
	Workers     int
	Termination dynamo.Termination
	Stats       dynamo.Stats
	Final       dynamo.State

	Wall   time.Duration
	Min    time.Duration
	Mean   time.Duration
	Max    time.Duration
	StdDev time.Duration

	// EvalsPerSecond is derivative evaluations per second of mean run
	// time.
	EvalsPerSecond float64
	// ReferenceError is NaN when the problem has no reference.
	ReferenceError float64
}

// Bench runs the problem opts.Runs times through a batch.
func (e *Experiment) Bench(ctx context.Context, opts BenchOptions) (*BenchReport, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("%w: bench needs at least one run, got %d", config.ErrInvalid, opts.Runs)
	}
	batch := sim.NewBatch(e.sim, opts.Workers)

	start := time.Now()
	runs, err := batch.Run(ctx, sim.Ensemble(e.problem, opts.Runs, nil))
	wall := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}

	secs := make([]float64, len(runs))
	for i, r := range runs {
		secs[i] = r.Elapsed.Seconds()
	}
	mean, std := stat.MeanStdDev(secs, nil)
	if len(secs) == 1 {
		std = 0
	}

	first := runs[0]
	rep := &BenchReport{
		Problem:        e.model.Name(),
		Method:         e.Method(),
		Runs:           len(runs),
		Workers:        batch.Workers(),
		Termination:    first.Result.Termination,
		Stats:          first.Result.Stats,
		Final:          first.Result.Final().State,
		Wall:           wall,
		Min:            seconds(floats.Min(secs)),
		Mean:           seconds(mean),
		Max:            seconds(floats.Max(secs)),
		StdDev:         seconds(std),
		ReferenceError: first.Metrics["reference_error"],
	}
	if _, ok := first.Metrics["reference_error"]; !ok {
		rep.ReferenceError = math.NaN()
	}
	if mean > 0 {
		rep.EvalsPerSecond = float64(rep.Stats.Evaluations) / mean
	}

	e.logger.Info("bench finished",
		slog.String("problem", rep.Problem),
		slog.String("method", rep.Method),
		slog.Int("runs", rep.Runs),
		slog.Duration("mean", rep.Mean),
	)
	return rep, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Comparison is one method's run of a shared configuration.
type Comparison struct {
	Method     string
	Run        *sim.Run
	Experiment *Experiment
}

// Compare runs cfg once per method, in order.
func Compare(ctx context.Context, cfg *config.Config, methods []string, logger *slog.Logger) ([]Comparison, error) {
	out := make([]Comparison, 0, len(methods))
	for _, m := range methods {
		c := cfg.Clone()
		c.Method = m
		e, err := New(c, logger)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m, err)
		}
		run, err := e.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m, err)
		}
		out = append(out, Comparison{Method: e.Method(), Run: run, Experiment: e})
	}
	return out, nil
}
