// Package sim runs integration problems and fans independent runs out
// over a bounded worker pool.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/metrics"
)

const tracerName = "github.com/san-kum/finfoot/internal/sim"

// Run is one finished integration with its derived metrics.
type Run struct {
	Result  *dynamo.Result
	Metrics map[string]float64
	Elapsed time.Duration
}

// Simulator pairs a driver with the metrics evaluated after every run. It
// is safe for concurrent use once configured.
type Simulator struct {
	driver  *integrators.Driver
	metrics []metrics.Factory
	logger  *slog.Logger
	tracer  trace.Tracer
}

func New(driver *integrators.Driver, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		driver: driver,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// AddMetric registers a metric factory. Factories that return nil for a
// system are skipped for that run.
func (s *Simulator) AddMetric(f metrics.Factory) { s.metrics = append(s.metrics, f) }

func (s *Simulator) Driver() *integrators.Driver { return s.driver }

// Run integrates p. The context is only checked before the run starts;
// a run in progress is bounded by the driver's step budget.
func (s *Simulator) Run(ctx context.Context, p integrators.Problem) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, span := s.tracer.Start(ctx, "sim.Simulator.Run",
		trace.WithAttributes(
			attribute.String("method", s.driver.Method()),
			attribute.Float64("t0", p.T0.Value()),
			attribute.Float64("t_end", p.TEnd.Value()),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := s.driver.Integrate(p)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup")
		return nil, fmt.Errorf("integrate: %w", err)
	}

	run := &Run{Result: res, Elapsed: elapsed}
	if p.System != nil {
		run.Metrics = metrics.Observe(res.Trajectory, metrics.Build(p.System, s.metrics...)...)
	}

	span.SetAttributes(
		attribute.String("termination", res.Termination.String()),
		attribute.Int("accepted", res.Stats.Accepted),
		attribute.Int("rejected", res.Stats.Rejected),
		attribute.Int("evaluations", res.Stats.Evaluations),
	)
	if res.Termination != dynamo.Success {
		span.SetStatus(codes.Error, res.Termination.String())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	s.logger.Debug("run finished",
		slog.String("method", s.driver.Method()),
		slog.String("termination", res.Termination.String()),
		slog.Int("points", res.Trajectory.Len()),
		slog.Duration("elapsed", elapsed),
	)
	return run, nil
}
