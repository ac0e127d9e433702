// Package experiment turns a run configuration into a configured model,
// problem and simulator, and runs single, comparison and benchmark jobs.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/metrics"
	"github.com/san-kum/finfoot/internal/physics"
	"github.com/san-kum/finfoot/internal/sim"
	"github.com/san-kum/finfoot/internal/units"
)

// StabilityThreshold bounds every canonical component for the stability
// metric.
const StabilityThreshold = 1e6

type Experiment struct {
	cfg       *config.Config
	model     physics.Model
	problem   integrators.Problem
	reference *physics.Reference
	sim       *sim.Simulator
	logger    *slog.Logger
}

// New validates cfg and builds the model with its parameter and initial
// state overrides applied.
func New(cfg *config.Config, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := physics.Lookup(cfg.Problem)
	if err != nil {
		return nil, err
	}
	if err := applyParams(model, cfg); err != nil {
		return nil, err
	}
	y0, err := initialState(model, cfg)
	if err != nil {
		return nil, err
	}

	t0, tEnd, err := cfg.Span(model.Span())
	if err != nil {
		return nil, err
	}
	h0, err := cfg.InitialStepFor(tEnd.Sub(t0))
	if err != nil {
		return nil, err
	}
	dcfg, err := cfg.Driver(logger)
	if err != nil {
		return nil, err
	}
	driver, err := integrators.New(dcfg)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:   cfg,
		model: model,
		problem: integrators.Problem{
			System:      model,
			T0:          t0,
			TEnd:        tEnd,
			Y0:          y0,
			InitialStep: h0,
		},
		sim:    sim.New(driver, logger),
		logger: logger,
	}
	e.sim.AddMetric(metrics.EnergyFactory)
	e.sim.AddMetric(metrics.EnergyDriftFactory)
	e.sim.AddMetric(metrics.StabilityFactory(StabilityThreshold))

	// a reference only holds for the default initial state, start and end
	if r, ok := model.(physics.Referenced); ok && len(cfg.Initial) == 0 {
		if ref, ok := r.Reference(); ok && ref.Time == tEnd && t0 == defaultStart(model) {
			e.reference = &ref
			e.sim.AddMetric(func(dynamo.System) metrics.Metric {
				return metrics.NewReferenceError(ref.State, ref.Abs/ref.Rel)
			})
		}
	}
	return e, nil
}

func defaultStart(m physics.Model) units.Quantity[units.Time] {
	t0, _ := m.Span()
	return t0
}

func applyParams(m physics.Model, cfg *config.Config) error {
	ps, err := cfg.ParamValues()
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(ps) {
		if err := m.SetParam(name, ps[name]); err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}
	}
	return nil
}

func initialState(m physics.Model, cfg *config.Config) (dynamo.State, error) {
	x := m.Initial()
	vs, err := cfg.InitialValues()
	if err != nil {
		return x, err
	}
	l := m.Layout()
	for _, name := range sortedKeys(vs) {
		i, ok := l.Index(name)
		if !ok {
			return x, fmt.Errorf("%s: initial %q: %w", m.Name(), name, dynamo.ErrUnknownComponent)
		}
		if x, err = x.With(i, vs[name]); err != nil {
			return x, fmt.Errorf("%s: initial %q: %w", m.Name(), name, err)
		}
	}
	return x, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Model() physics.Model { return e.model }

func (e *Experiment) Problem() integrators.Problem { return e.problem }

func (e *Experiment) Simulator() *sim.Simulator { return e.sim }

func (e *Experiment) Method() string { return e.sim.Driver().Method() }

// Reference returns the known end state when the run reproduces the
// model's reference setup.
func (e *Experiment) Reference() (physics.Reference, bool) {
	if e.reference == nil {
		return physics.Reference{}, false
	}
	return *e.reference, true
}

// Run integrates the problem once. A run that stops early is returned
// with its partial trajectory; only setup failures are errors.
func (e *Experiment) Run(ctx context.Context) (*sim.Run, error) {
	e.logger.Info("run started",
		slog.String("problem", e.model.Name()),
		slog.String("method", e.Method()),
		slog.String("t0", e.problem.T0.String()),
		slog.String("t_end", e.problem.TEnd.String()),
	)
	run, err := e.sim.Run(ctx, e.problem)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.model.Name(), err)
	}
	e.logger.Info("run finished",
		slog.String("problem", e.model.Name()),
		slog.String("termination", run.Result.Termination.String()),
		slog.Int("accepted", run.Result.Stats.Accepted),
		slog.Int("rejected", run.Result.Stats.Rejected),
	)
	return run, nil
}

// ReferencePassed reports whether the final state of run lies within the
// reference band. ok is false when there is no reference.
func (e *Experiment) ReferencePassed(run *sim.Run) (passed, ok bool) {
	if e.reference == nil || run.Result.Termination != dynamo.Success {
		return false, e.reference != nil
	}
	return e.reference.Check(run.Result.Final().State) == nil, true
}
