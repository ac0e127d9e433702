package physics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

var (
	ErrUnknownModel = errors.New("physics: unknown model")
	ErrUnknownParam = errors.New("physics: unknown parameter")
)

// Model is a catalogued initial value problem. Parameters must not be
// changed while a run is using the model.
type Model interface {
	dynamo.System
	dynamo.Configurable
	Name() string
	// Initial returns a freshly allocated default initial state.
	Initial() dynamo.State
	// Span is the default integration interval.
	Span() (t0, tEnd units.Quantity[units.Time])
}

// Referenced models know their end state at a given time.
type Referenced interface {
	// Reference reports false when the current parameters have no
	// known solution.
	Reference() (Reference, bool)
}

// Reference is a known state at Time with its acceptance band
// max(|Rel*y_i|, Abs) per component.
type Reference struct {
	Time  units.Quantity[units.Time]
	State []float64
	Rel   float64
	Abs   float64
}

func (r Reference) Tolerance(i int) float64 {
	return math.Max(math.Abs(r.Rel*r.State[i]), r.Abs)
}

// Check returns an error naming the first component of x outside the band.
func (r Reference) Check(x dynamo.State) error {
	if x.Len() != len(r.State) {
		return fmt.Errorf("%w: %d components against a %d component reference", dynamo.ErrLayoutMismatch, x.Len(), len(r.State))
	}
	for i, want := range r.State {
		got := x.Raw(i)
		if diff := math.Abs(got - want); !(diff <= r.Tolerance(i)) {
			return fmt.Errorf("component %s: got %g, want %g (|diff| %g > %g)",
				x.Layout().Component(i).Name, got, want, diff, r.Tolerance(i))
		}
	}
	return nil
}

type param struct {
	get func() units.Value
	set func(units.Value) error
}

// quantityParam binds a dimensioned field. positive rejects values <= 0.
func quantityParam[D units.Dimension](q *units.Quantity[D], positive bool) param {
	return param{
		get: func() units.Value { return q.Dynamic() },
		set: func(v units.Value) error {
			x, err := units.As[D](v)
			if err != nil {
				return err
			}
			if !x.IsFinite() || (positive && x.Value() <= 0) {
				return fmt.Errorf("%w: %s", dynamo.ErrParameterBounds, v)
			}
			*q = x
			return nil
		},
	}
}

// params implements dynamo.Configurable over bound fields.
type params map[string]param

func (p params) Params() map[string]units.Value {
	out := make(map[string]units.Value, len(p))
	for name, pp := range p {
		out[name] = pp.get()
	}
	return out
}

func (p params) SetParam(name string, v units.Value) error {
	pp, ok := p[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if err := pp.set(v); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	return nil
}

// ParamNames lists the parameters of c in order.
func ParamNames(c dynamo.Configurable) []string {
	ps := c.Params()
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func kinetic(m units.Quantity[units.Mass], v units.Quantity[units.Velocity]) units.Quantity[units.Energy] {
	return units.Mul[units.Energy](units.Mul[units.Momentum](m, v), v).Scale(0.5)
}

func springEnergy(k units.Quantity[units.Stiffness], stretch units.Quantity[units.Length]) units.Quantity[units.Energy] {
	return units.Mul[units.Energy](k, units.Mul[units.Area](stretch, stretch)).Scale(0.5)
}

func span(t0, tEnd float64) (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return units.Seconds(t0), units.Seconds(tEnd)
}
