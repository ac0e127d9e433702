package physics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Harmonic is the undamped oscillator x'' = -w^2 x.
type Harmonic struct {
	params
	layout *dynamo.Layout
	x      dynamo.Field[units.Length, units.Velocity]
	v      dynamo.Field[units.Velocity, units.Acceleration]

	Omega units.Quantity[units.Frequency]
	Mass  units.Quantity[units.Mass]
	X0    units.Quantity[units.Length]
	V0    units.Quantity[units.Velocity]
}

func NewHarmonic() *Harmonic {
	b := dynamo.NewLayoutBuilder()
	h := &Harmonic{
		x:     dynamo.Declare[units.Length, units.Velocity](b, "x"),
		v:     dynamo.Declare[units.Velocity, units.Acceleration](b, "v"),
		Omega: units.New[units.Frequency](2 * math.Pi),
		Mass:  units.New[units.Mass](1),
		X0:    units.New[units.Length](1),
	}
	h.layout = b.MustBuild()
	h.params = params{
		"omega": quantityParam(&h.Omega, true),
		"mass":  quantityParam(&h.Mass, true),
	}
	return h
}

func (h *Harmonic) Name() string           { return "harmonic_oscillator" }
func (h *Harmonic) Layout() *dynamo.Layout { return h.layout }

func (h *Harmonic) w2() units.Quantity[units.AngularAcceleration] {
	return units.Mul[units.AngularAcceleration](h.Omega, h.Omega)
}

func (h *Harmonic) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := h.layout.Rate().Zero()
	h.x.SetRate(dx, h.v.Get(s))
	h.v.SetRate(dx, units.Mul[units.Acceleration](h.w2(), h.x.Get(s)).Neg())
	return dx
}

func (h *Harmonic) Energy(s dynamo.State) units.Quantity[units.Energy] {
	k := units.Mul[units.Stiffness](h.Mass, h.w2())
	return kinetic(h.Mass, h.v.Get(s)).Add(springEnergy(k, h.x.Get(s)))
}

func (h *Harmonic) Initial() dynamo.State {
	s := h.layout.Zero()
	h.x.Set(s, h.X0)
	h.v.Set(s, h.V0)
	return s
}

func (h *Harmonic) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 1)
}

func (h *Harmonic) Reference() (Reference, bool) {
	_, end := h.Span()
	wt := units.Mul[units.Dimensionless](h.Omega, end).Value()
	sin, cos := math.Sincos(wt)
	amp := units.Div[units.Length](h.V0, h.Omega)
	return Reference{
		Time: end,
		State: []float64{
			h.X0.Value()*cos + amp.Value()*sin,
			-h.X0.Value()*h.Omega.Value()*sin + h.V0.Value()*cos,
		},
		Rel: 1e-4,
		Abs: 2e-4,
	}, true
}
