package physics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Exponential is first-order decay dn/dt = -k n.
type Exponential struct {
	params
	layout *dynamo.Layout
	n      dynamo.Field[units.Amount, units.AmountRate]

	Rate units.Quantity[units.Frequency]
	N0   units.Quantity[units.Amount]
}

func NewExponential() *Exponential {
	b := dynamo.NewLayoutBuilder()
	e := &Exponential{
		n:    dynamo.Declare[units.Amount, units.AmountRate](b, "n"),
		Rate: units.New[units.Frequency](1),
		N0:   units.New[units.Amount](1),
	}
	e.layout = b.MustBuild()
	e.params = params{
		"rate": quantityParam(&e.Rate, false),
		"n0":   quantityParam(&e.N0, false),
	}
	return e
}

func (e *Exponential) Name() string           { return "exponential" }
func (e *Exponential) Layout() *dynamo.Layout { return e.layout }

func (e *Exponential) Derive(_ units.Quantity[units.Time], x dynamo.State) dynamo.State {
	dx := e.layout.Rate().Zero()
	e.n.SetRate(dx, units.Mul[units.AmountRate](e.Rate, e.n.Get(x)).Neg())
	return dx
}

func (e *Exponential) Initial() dynamo.State {
	x := e.layout.Zero()
	e.n.Set(x, e.N0)
	return x
}

func (e *Exponential) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 1)
}

func (e *Exponential) Reference() (Reference, bool) {
	_, end := e.Span()
	kt := units.Mul[units.Dimensionless](e.Rate, end).Value()
	return Reference{
		Time:  end,
		State: []float64{e.N0.Value() * math.Exp(-kt)},
		Rel:   1e-4,
		Abs:   1e-6,
	}, true
}
