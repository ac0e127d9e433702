package physics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Lorenz is the butterfly attractor. Rate sets the time scale of the
// y and z equations; sigma and beta are rates themselves.
type Lorenz struct {
	params
	layout  *dynamo.Layout
	x, y, z dynamo.Field[units.Dimensionless, units.Frequency]

	Sigma units.Quantity[units.Frequency]
	Rho   units.Quantity[units.Dimensionless]
	Beta  units.Quantity[units.Frequency]
	Rate  units.Quantity[units.Frequency]
}

func NewLorenz() *Lorenz {
	b := dynamo.NewLayoutBuilder()
	l := &Lorenz{
		x:     dynamo.Declare[units.Dimensionless, units.Frequency](b, "x"),
		y:     dynamo.Declare[units.Dimensionless, units.Frequency](b, "y"),
		z:     dynamo.Declare[units.Dimensionless, units.Frequency](b, "z"),
		Sigma: units.New[units.Frequency](10),
		Rho:   units.Scalar(28),
		Beta:  units.New[units.Frequency](8.0 / 3.0),
		Rate:  units.New[units.Frequency](1),
	}
	l.layout = b.MustBuild()
	l.params = params{
		"sigma": quantityParam(&l.Sigma, false),
		"rho":   quantityParam(&l.Rho, false),
		"beta":  quantityParam(&l.Beta, false),
		"rate":  quantityParam(&l.Rate, true),
	}
	return l
}

func (l *Lorenz) Name() string           { return "lorenz" }
func (l *Lorenz) Layout() *dynamo.Layout { return l.layout }

func (l *Lorenz) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := l.layout.Rate().Zero()
	x, y, z := l.x.Get(s).Value(), l.y.Get(s).Value(), l.z.Get(s).Value()

	l.x.SetRate(dx, l.Sigma.Scale(y-x))
	l.y.SetRate(dx, l.Rate.Scale(x*(l.Rho.Value()-z)-y))
	l.z.SetRate(dx, l.Rate.Scale(x*y).Sub(l.Beta.Scale(z)))
	return dx
}

func (l *Lorenz) Initial() dynamo.State {
	s := l.layout.Zero()
	for _, f := range []dynamo.Field[units.Dimensionless, units.Frequency]{l.x, l.y, l.z} {
		f.Set(s, units.Scalar(1))
	}
	return s
}

func (l *Lorenz) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 5)
}

func (l *Lorenz) Reference() (Reference, bool) {
	if l.Sigma.Value() != 10 || l.Rho.Value() != 28 || l.Beta.Value() != 8.0/3.0 || l.Rate.Value() != 1 {
		return Reference{}, false
	}
	return Reference{
		Time:  units.Seconds(5),
		State: []float64{-6.51226597, -6.97427953, 23.92417887},
		Rel:   1e-4,
		Abs:   7e-3,
	}, true
}
