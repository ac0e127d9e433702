package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// StepConfig bounds the step-size controller. A zero MinStep or MaxStep
// leaves that side unbounded.
type StepConfig struct {
	MinStep       units.Quantity[units.Time]
	MaxStep       units.Quantity[units.Time]
	Safety        float64
	MinShrink     float64
	MaxGrowth     float64
	MaxRejections int
}

func DefaultStepConfig() StepConfig {
	return StepConfig{
		Safety:        0.9,
		MinShrink:     0.2,
		MaxGrowth:     10,
		MaxRejections: 10,
	}
}

func (c StepConfig) Validate() error {
	switch {
	case !(c.Safety > 0 && c.Safety <= 1):
		return fmt.Errorf("%w: safety factor %g outside (0, 1]", ErrInvalidConfig, c.Safety)
	case !(c.MinShrink > 0 && c.MinShrink < 1):
		return fmt.Errorf("%w: minimum shrink %g outside (0, 1)", ErrInvalidConfig, c.MinShrink)
	case !(c.MaxGrowth > 1) || math.IsInf(c.MaxGrowth, 0):
		return fmt.Errorf("%w: maximum growth %g must be finite and above 1", ErrInvalidConfig, c.MaxGrowth)
	case c.MaxRejections < 0:
		return fmt.Errorf("%w: maximum rejections %d", ErrInvalidConfig, c.MaxRejections)
	case c.MinStep.Value() < 0 || !c.MinStep.IsFinite():
		return fmt.Errorf("%w: minimum step %s", ErrInvalidConfig, c.MinStep)
	case c.MaxStep.Value() < 0 || !c.MaxStep.IsFinite():
		return fmt.Errorf("%w: maximum step %s", ErrInvalidConfig, c.MaxStep)
	case !c.MaxStep.IsZero() && c.MaxStep.Less(c.MinStep):
		return fmt.Errorf("%w: maximum step %s below minimum step %s", ErrInvalidConfig, c.MaxStep, c.MinStep)
	}
	return nil
}

// clamp bounds a positive step magnitude to [MinStep, MaxStep].
func (c StepConfig) clamp(h units.Quantity[units.Time]) units.Quantity[units.Time] {
	if !c.MaxStep.IsZero() {
		h = units.Min(h, c.MaxStep)
	}
	if !c.MinStep.IsZero() {
		h = units.Max(h, c.MinStep)
	}
	return h
}

// Phase is the controller's position within a cycle.
type Phase int

const (
	// Propose holds a trial step awaiting use.
	Propose Phase = iota
	// Decide awaits the error estimate of the proposed step.
	Decide
)

func (p Phase) String() string {
	switch p {
	case Propose:
		return "propose"
	case Decide:
		return "decide"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Decision is the controller's verdict on one trial step.
type Decision struct {
	Accept bool
	// Factor is the applied ratio Next/used step.
	Factor float64
	// Next is the step magnitude proposed for the following cycle.
	Next units.Quantity[units.Time]
}

// Controller is the accept/reject state machine of one run. It works on
// step magnitudes; the driver applies the integration direction.
type Controller struct {
	cfg        StepConfig
	exponent   float64
	h          units.Quantity[units.Time]
	phase      Phase
	rejections int
}

// NewController starts in Propose with h0 clamped to the step bounds.
// errorOrder is the lower order of the embedded pair.
func NewController(cfg StepConfig, errorOrder int, h0 units.Quantity[units.Time]) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if errorOrder < 1 {
		return nil, fmt.Errorf("%w: error order %d", ErrInvalidConfig, errorOrder)
	}
	if !(h0.Value() > 0) || !h0.IsFinite() {
		return nil, fmt.Errorf("%w: initial step %s", ErrInvalidConfig, h0)
	}
	return &Controller{
		cfg:      cfg,
		exponent: 1 / float64(errorOrder+1),
		h:        cfg.clamp(h0),
	}, nil
}

func (c *Controller) Phase() Phase { return c.phase }

// Step is the current trial step magnitude.
func (c *Controller) Step() units.Quantity[units.Time] { return c.h }

// Rejections is the number of consecutive rejected steps.
func (c *Controller) Rejections() int { return c.rejections }

// Propose hands out the trial step and moves to Decide.
func (c *Controller) Propose() (units.Quantity[units.Time], error) {
	if c.phase != Propose {
		return units.Quantity[units.Time]{}, fmt.Errorf("%w: propose called in %s phase", ErrControllerPhase, c.phase)
	}
	c.phase = Decide
	return c.h, nil
}

// Decide judges a step of magnitude used with error estimate errNorm and
// sets the next proposal. It returns dynamo.ErrRejectionExhausted once the
// consecutive rejections exceed MaxRejections.
func (c *Controller) Decide(used units.Quantity[units.Time], errNorm float64) (Decision, error) {
	if c.phase != Decide {
		return Decision{}, fmt.Errorf("%w: decide called in %s phase", ErrControllerPhase, c.phase)
	}
	c.phase = Propose

	accept := errNorm <= 1
	f := c.factor(errNorm)
	if !accept || c.rejections > 0 {
		// no growth on a rejection or on the first step after one
		f = math.Min(f, 1)
	}
	next := c.cfg.clamp(used.Abs().Scale(f))
	c.h = next

	if accept {
		c.rejections = 0
		return Decision{Accept: true, Factor: f, Next: next}, nil
	}
	c.rejections++
	if c.rejections > c.cfg.MaxRejections {
		return Decision{Factor: f, Next: next}, fmt.Errorf("%w: %d consecutive rejections at step %s (error %g)",
			dynamo.ErrRejectionExhausted, c.rejections, used.Abs(), errNorm)
	}
	return Decision{Factor: f, Next: next}, nil
}

// factor applies safety*err^(-1/(q+1)) clamped to [MinShrink, MaxGrowth].
func (c *Controller) factor(errNorm float64) float64 {
	switch {
	case math.IsNaN(errNorm) || math.IsInf(errNorm, 0):
		return c.cfg.MinShrink
	case errNorm <= 0:
		return c.cfg.MaxGrowth
	}
	f := c.cfg.Safety * math.Pow(errNorm, -c.exponent)
	return math.Max(c.cfg.MinShrink, math.Min(c.cfg.MaxGrowth, f))
}
