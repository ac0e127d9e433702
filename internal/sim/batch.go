package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/finfoot/internal/integrators"
)

// Batch runs independent problems concurrently. Runs share nothing but
// the simulator, whose driver is immutable.
type Batch struct {
	sim     *Simulator
	workers int
}

// NewBatch limits concurrency to workers; zero or less uses GOMAXPROCS.
func NewBatch(s *Simulator, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{sim: s, workers: workers}
}

func (b *Batch) Workers() int { return b.workers }

// Run integrates every problem and returns the runs in input order. The
// first setup error cancels the runs not yet started.
func (b *Batch) Run(ctx context.Context, problems []integrators.Problem) ([]*Run, error) {
	ctx, span := b.sim.tracer.Start(ctx, "sim.Batch.Run",
		trace.WithAttributes(
			attribute.Int("runs", len(problems)),
			attribute.Int("workers", b.workers),
		),
	)
	defer span.End()

	runs := make([]*Run, len(problems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, p := range problems {
		g.Go(func() error {
			r, err := b.sim.Run(gctx, p)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			runs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")

	b.sim.logger.Info("batch finished",
		slog.Int("runs", len(problems)),
		slog.Int("workers", b.workers),
	)
	return runs, nil
}

// Ensemble returns n copies of p, each passed through vary when it is
// not nil.
func Ensemble(p integrators.Problem, n int, vary func(i int, p integrators.Problem) integrators.Problem) []integrators.Problem {
	out := make([]integrators.Problem, n)
	for i := range out {
		out[i] = p
		if vary != nil {
			out[i] = vary(i, p)
		}
	}
	return out
}
