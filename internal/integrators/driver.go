package integrators

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Config is everything a run needs besides the problem itself.
type Config struct {
	// Method names a registered tableau. Tableau, when set, takes
	// precedence.
	Method  string
	Tableau *Tableau

	RelTol float64
	// AbsTol applies to every component as a canonical SI magnitude.
	AbsTol             float64
	AbsTolPerComponent map[string]units.Value

	Step StepConfig
	// MaxSteps caps stepper cycles, accepted and rejected alike.
	MaxSteps int

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Method:   DefaultMethod,
		RelTol:   1e-6,
		AbsTol:   1e-9,
		Step:     DefaultStepConfig(),
		MaxSteps: 100000,
	}
}

// Problem is an initial value problem. A zero InitialStep asks the driver
// to estimate one.
type Problem struct {
	System      dynamo.System
	T0          units.Quantity[units.Time]
	TEnd        units.Quantity[units.Time]
	Y0          dynamo.State
	InitialStep units.Quantity[units.Time]
}

// Driver runs problems with a fixed configuration. It is immutable and
// safe for concurrent use.
type Driver struct {
	cfg     Config
	stepper *Stepper
	logger  *slog.Logger
}

func New(cfg Config) (*Driver, error) {
	tab := cfg.Tableau
	if tab == nil {
		name := cfg.Method
		if name == "" {
			name = DefaultMethod
		}
		var err error
		if tab, err = Lookup(name); err != nil {
			return nil, err
		}
	}
	stepper, err := NewStepper(tab)
	if err != nil {
		return nil, err
	}
	if err := cfg.Step.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxSteps < 0 {
		return nil, fmt.Errorf("%w: max steps %d", ErrInvalidConfig, cfg.MaxSteps)
	}
	cfg.Tableau = tab
	cfg.Method = tab.Name

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{cfg: cfg, stepper: stepper, logger: logger}, nil
}

func (d *Driver) Config() Config { return d.cfg }

func (d *Driver) Method() string { return d.cfg.Method }

// Integrate is a one-shot New(cfg) followed by Integrate(p).
func Integrate(p Problem, cfg Config) (*dynamo.Result, error) {
	d, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return d.Integrate(p)
}

// landingEps is the relative distance to TEnd under which a step is
// stretched to land on it instead of leaving a sliver.
const landingEps = 1e-12

// minStepUlps is how many float64 epsilons of max(|t|, |span|) a step
// must exceed to still move t.
const minStepUlps = 16

// Integrate advances p from T0 to TEnd. Setup problems are returned as
// errors before any cycle runs; every termination after that, failures
// included, comes back as a Result carrying the partial trajectory.
func (d *Driver) Integrate(p Problem) (*dynamo.Result, error) {
	tol, err := d.setup(p)
	if err != nil {
		return nil, err
	}

	sys := p.System
	span := p.TEnd.Sub(p.T0)
	traj := dynamo.NewTrajectory(p.Y0.Layout(), 64)
	traj.Append(p.T0, p.Y0.Clone())
	res := &dynamo.Result{Trajectory: traj}

	if span.IsZero() {
		res.Termination = dynamo.Success
		return res, nil
	}
	if d.cfg.MaxSteps == 0 {
		res.Termination = dynamo.MaxStepsExceeded
		return res, nil
	}

	dir := span.Sign()
	var first dynamo.State
	h0 := p.InitialStep
	if h0.IsZero() {
		var evals int
		h0, first, evals = d.initialStep(sys, p.T0, p.Y0, dir, span.Abs(), tol)
		res.Stats.Evaluations += evals
	}
	ctrl, err := NewController(d.cfg.Step, d.stepper.Tableau().ErrorOrder(), h0)
	if err != nil {
		return nil, err
	}

	t, x := p.T0, p.Y0
	// a stall is blamed on the kind of the latest rejection
	lastRejectNonFinite := false
	stall := func() {
		res.Termination = dynamo.RejectionExhausted
		if lastRejectNonFinite {
			res.Termination = dynamo.NonFiniteDetected
		}
	}
	for {
		if res.Stats.Cycles() >= d.cfg.MaxSteps {
			res.Termination = dynamo.MaxStepsExceeded
			break
		}
		h, err := ctrl.Propose()
		if err != nil {
			return nil, err
		}
		remaining := p.TEnd.Sub(t).Abs()
		landing := !h.Less(remaining) ||
			remaining.Sub(h).Value() <= landingEps*math.Max(math.Abs(t.Value()), math.Abs(p.TEnd.Value()))
		if landing {
			h = remaining
		} else if tooSmall(h, t, span) {
			d.logger.Debug("step size too small", "t", t, "step", h)
			stall()
			break
		}

		step, err := d.stepper.Step(sys, t, x, h.Scale(dir), first, tol)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: res.Stats.Cycles(), Time: t, Wrapped: err}
		}
		res.Stats.Evaluations += step.Evaluations
		first = step.First

		dec, err := ctrl.Decide(h, step.Error)
		if err != nil {
			if !errors.Is(err, dynamo.ErrRejectionExhausted) {
				return nil, err
			}
			res.Stats.Rejected++
			res.Termination = dynamo.RejectionExhausted
			if step.NonFinite {
				res.Termination = dynamo.NonFiniteDetected
			}
			break
		}
		if !dec.Accept {
			res.Stats.Rejected++
			lastRejectNonFinite = step.NonFinite
			continue
		}

		next := p.TEnd
		if !landing {
			next = t.Add(h.Scale(dir))
		}
		if next == t {
			stall()
			break
		}
		res.Stats.Accepted++
		res.Stats.LastStep = h
		t = next
		x = step.State
		first = step.Last
		traj.Append(t, x)
		if landing {
			res.Termination = dynamo.Success
			break
		}
	}
	res.Stats.NextStep = ctrl.Step()

	d.logger.Debug("integration finished",
		"method", d.cfg.Method,
		"termination", res.Termination,
		"t", t,
		"accepted", res.Stats.Accepted,
		"rejected", res.Stats.Rejected,
		"evaluations", res.Stats.Evaluations)
	return res, nil
}

// tooSmall reports whether h is below the resolution of t, where the
// controller can no longer make progress.
func tooSmall(h, t, span units.Quantity[units.Time]) bool {
	scale := math.Max(math.Abs(t.Value()), span.Abs().Value())
	return h.Value() <= minStepUlps*epsilon*scale
}

// epsilon is the float64 machine epsilon, 2^-52.
const epsilon = 0x1p-52

func (d *Driver) setup(p Problem) (dynamo.Tolerance, error) {
	switch {
	case p.System == nil:
		return dynamo.Tolerance{}, fmt.Errorf("%w: nil system", ErrInvalidProblem)
	case p.System.Layout() == nil:
		return dynamo.Tolerance{}, fmt.Errorf("%w: system has no layout", ErrInvalidProblem)
	case p.Y0.Layout() != p.System.Layout():
		return dynamo.Tolerance{}, fmt.Errorf("%w: initial state is not on the system layout", dynamo.ErrLayoutMismatch)
	case !p.Y0.IsValid():
		return dynamo.Tolerance{}, fmt.Errorf("%w: initial state %s: %w", ErrInvalidProblem, p.Y0, dynamo.ErrNonFinite)
	case !p.T0.IsFinite() || !p.TEnd.IsFinite():
		return dynamo.Tolerance{}, fmt.Errorf("%w: time span %s to %s", ErrInvalidProblem, p.T0, p.TEnd)
	case p.InitialStep.Value() < 0 || !p.InitialStep.IsFinite():
		return dynamo.Tolerance{}, fmt.Errorf("%w: initial step %s", ErrInvalidProblem, p.InitialStep)
	}
	return dynamo.ResolveTolerance(p.Y0.Layout(), d.cfg.RelTol, d.cfg.AbsTol, d.cfg.AbsTolPerComponent)
}

// initialStep estimates a starting step magnitude from the first two
// derivative evaluations (Hairer, Norsett & Wanner, II.4). It also returns
// the derivative at (t0, y0) so the first cycle can reuse it.
func (d *Driver) initialStep(sys dynamo.System, t0 units.Quantity[units.Time], y0 dynamo.State, dir float64, span units.Quantity[units.Time], tol dynamo.Tolerance) (units.Quantity[units.Time], dynamo.State, int) {
	fallback := units.Min(span, units.Seconds(1e-6))
	f0 := sys.Derive(t0, y0)
	evals := 1
	if f0.Layout() != y0.Layout().Rate() || !f0.IsValid() {
		// the first cycle reports the problem
		return fallback, dynamo.State{}, evals
	}

	scale := tol.Scale(y0, y0)
	d0 := dynamo.RMSNorm(y0, scale)
	d1 := dynamo.RMSNorm(f0, scale) // 1/s

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span.Value())

	y1, err := y0.AddScaledRates(units.Seconds(dir*h0), []float64{1}, []dynamo.State{f0})
	if err != nil || !y1.IsValid() {
		return units.Seconds(h0), f0, evals
	}
	f1 := sys.Derive(t0.Add(units.Seconds(dir*h0)), y1)
	evals++
	if f1.Layout() != f0.Layout() || !f1.IsValid() {
		return units.Seconds(h0), f0, evals
	}
	diff, err := dynamo.Sub(f1, f0)
	if err != nil {
		return units.Seconds(h0), f0, evals
	}
	d2 := dynamo.RMSNorm(diff, scale) / h0

	var h1 float64
	if m := math.Max(d1, d2); m <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/m, 1/float64(d.stepper.Tableau().Order+1))
	}
	h := math.Min(100*h0, h1)
	if !(h > 0) || math.IsInf(h, 0) {
		return fallback, f0, evals
	}
	return units.Min(units.Seconds(h), span), f0, evals
}
