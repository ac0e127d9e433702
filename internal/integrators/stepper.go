package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// StepResult is the outcome of one trial step.
type StepResult struct {
	// State is the propagated (higher-order) candidate; Embedded the
	// lower-order one. Both are zero when NonFinite is set.
	State    dynamo.State
	Embedded dynamo.State

	// Error is the RMS of the embedded error over the tolerance scale;
	// the step is acceptable when Error <= 1.
	Error float64

	// First is the derivative at the start of the step. It stays valid
	// after a rejection and can be passed back in for the retry.
	First dynamo.State

	// Last is the derivative at (t+h, State) for FSAL tableaus.
	Last dynamo.State

	Evaluations int
	NonFinite   bool
}

// Stepper advances a state by one trial step of an embedded pair. It
// holds no per-run state and may be shared between goroutines.
type Stepper struct {
	tab  *Tableau
	errW []float64
}

func NewStepper(tab *Tableau) (*Stepper, error) {
	if tab == nil {
		return nil, fmt.Errorf("%w: nil tableau", ErrInvalidTableau)
	}
	if err := tab.Validate(); err != nil {
		return nil, err
	}
	return &Stepper{tab: tab, errW: tab.errorWeights()}, nil
}

func (s *Stepper) Tableau() *Tableau { return s.tab }

// Step takes one trial step of signed size h from (t, x). first, when not
// zero, is reused as the derivative at (t, x). The only error returned is
// ErrLayoutMismatch for a system that derives onto the wrong layout.
//
// NonFinite is set for non-finite stages or states and for a NaN error
// norm. An infinite norm from finite states, such as a non-zero error
// over a zero scale when AbsTol is 0, is an ordinary rejection: the
// controller shrinks the step by MinShrink and retries.
func (s *Stepper) Step(sys dynamo.System, t units.Quantity[units.Time], x dynamo.State, h units.Quantity[units.Time], first dynamo.State, tol dynamo.Tolerance) (StepResult, error) {
	tab := s.tab
	rate := x.Layout().Rate()
	k := make([]dynamo.State, tab.Stages())
	var res StepResult

	derive := func(tt units.Quantity[units.Time], y dynamo.State) (dynamo.State, error) {
		res.Evaluations++
		dy := sys.Derive(tt, y)
		if dy.Layout() != rate {
			return dynamo.State{}, fmt.Errorf("%w: derivative is not on the rate layout of the state", dynamo.ErrLayoutMismatch)
		}
		return dy, nil
	}

	if first.IsZero() {
		k0, err := derive(t, x)
		if err != nil {
			return StepResult{}, err
		}
		first = k0
	}
	k[0] = first
	res.First = first
	if !first.IsValid() {
		return nonFinite(res), nil
	}

	last := tab.Stages() - 1
	var stage dynamo.State
	for i := 1; i <= last; i++ {
		var err error
		stage, err = x.AddScaledRates(h, tab.A[i-1], k[:i])
		if err != nil {
			return StepResult{}, err
		}
		if !stage.IsValid() {
			return nonFinite(res), nil
		}
		k[i], err = derive(t.Add(h.Scale(tab.C[i])), stage)
		if err != nil {
			return StepResult{}, err
		}
		if !k[i].IsValid() {
			return nonFinite(res), nil
		}
	}

	if tab.FSAL {
		// the last stage state is the propagated solution
		res.State = stage
		res.Last = k[last]
	} else {
		next, err := x.AddScaledRates(h, tab.B, k)
		if err != nil {
			return StepResult{}, err
		}
		res.State = next
	}
	if !res.State.IsValid() {
		return nonFinite(res), nil
	}

	errVec, err := dynamo.ScaledRateSum(h, s.errW, k)
	if err != nil {
		return StepResult{}, err
	}
	embedded, err := dynamo.Sub(res.State, errVec)
	if err != nil {
		return StepResult{}, err
	}
	res.Embedded = embedded
	res.Error = dynamo.RMSNorm(errVec, tol.Scale(x, res.State))
	if math.IsNaN(res.Error) {
		return nonFinite(res), nil
	}
	return res, nil
}

func nonFinite(res StepResult) StepResult {
	res.State = dynamo.State{}
	res.Embedded = dynamo.State{}
	res.Last = dynamo.State{}
	res.Error = math.Inf(1)
	res.NonFinite = true
	return res
}
