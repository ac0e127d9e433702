package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/finfoot/internal/analysis"
	"github.com/san-kum/finfoot/internal/dynamo"
)

type AnalyzeOptions struct {
	// Component is the state component whose spectrum is taken; empty
	// picks the first.
	Component string
	Samples   int
	Lyapunov  analysis.LyapunovOptions
}

func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{Samples: 1024, Lyapunov: analysis.DefaultLyapunovOptions()}
}

type AnalysisReport struct {
	Problem   string
	Method    string
	Component string
	Lyapunov  *analysis.LyapunovEstimate
	Spectrum  *analysis.PowerSpectrum
	// DominantFrequency is in Hz.
	DominantFrequency float64
}

// Analyze runs the problem once for the spectrum of one component and
// then estimates the largest Lyapunov exponent over the same span.
func (e *Experiment) Analyze(ctx context.Context, opts AnalyzeOptions) (*AnalysisReport, error) {
	l := e.model.Layout()
	idx := 0
	if opts.Component != "" {
		i, ok := l.Index(opts.Component)
		if !ok {
			return nil, fmt.Errorf("%s: component %q: %w", e.model.Name(), opts.Component, dynamo.ErrUnknownComponent)
		}
		idx = i
	}

	run, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := run.Result.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}
	tr := run.Result.Trajectory
	ps, err := analysis.Spectrum(tr.Times(), tr.Series(idx), opts.Samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}

	est, err := analysis.Lyapunov(ctx, e.sim.Driver(), e.problem, opts.Lyapunov)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}

	rep := &AnalysisReport{
		Problem:   e.model.Name(),
		Method:    e.Method(),
		Component: l.Component(idx).Name,
		Lyapunov:  est,
		Spectrum:  ps,
	}
	rep.DominantFrequency, _ = ps.Dominant()
	e.logger.Info("analysis finished",
		slog.String("problem", rep.Problem),
		slog.Float64("lyapunov", est.Exponent),
		slog.Float64("dominant_hz", rep.DominantFrequency),
	)
	return rep, nil
}
