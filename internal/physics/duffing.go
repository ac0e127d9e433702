package physics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Duffing is the periodically forced nonlinear oscillator
//
//	x'' = -delta x' - alpha x - beta x^3 + gamma cos(omega t)
type Duffing struct {
	params
	layout *dynamo.Layout
	x      dynamo.Field[units.Dimensionless, units.Frequency]
	v      dynamo.Field[units.Frequency, units.AngularAcceleration]

	Alpha units.Quantity[units.AngularAcceleration]
	Beta  units.Quantity[units.AngularAcceleration]
	Delta units.Quantity[units.Frequency]
	Gamma units.Quantity[units.AngularAcceleration]
	Omega units.Quantity[units.Frequency]
}

func NewDuffing() *Duffing {
	b := dynamo.NewLayoutBuilder()
	d := &Duffing{
		x:     dynamo.Declare[units.Dimensionless, units.Frequency](b, "x"),
		v:     dynamo.Declare[units.Frequency, units.AngularAcceleration](b, "v"),
		Alpha: units.New[units.AngularAcceleration](-1),
		Beta:  units.New[units.AngularAcceleration](1),
		Delta: units.New[units.Frequency](0.3),
		Gamma: units.New[units.AngularAcceleration](0.5),
		Omega: units.New[units.Frequency](1.2),
	}
	d.layout = b.MustBuild()
	d.params = params{
		"alpha": quantityParam(&d.Alpha, false),
		"beta":  quantityParam(&d.Beta, false),
		"delta": quantityParam(&d.Delta, false),
		"gamma": quantityParam(&d.Gamma, false),
		"omega": quantityParam(&d.Omega, false),
	}
	return d
}

func (d *Duffing) Name() string           { return "duffing" }
func (d *Duffing) Layout() *dynamo.Layout { return d.layout }

func (d *Duffing) Derive(t units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := d.layout.Rate().Zero()
	x, v := d.x.Get(s).Value(), d.v.Get(s)
	phase := units.Mul[units.Dimensionless](d.Omega, t).Value()

	acc := units.Mul[units.AngularAcceleration](d.Delta, v).Neg().
		Sub(d.Alpha.Scale(x)).
		Sub(d.Beta.Scale(x * x * x)).
		Add(d.Gamma.Scale(math.Cos(phase)))
	d.x.SetRate(dx, v)
	d.v.SetRate(dx, acc)
	return dx
}

func (d *Duffing) Initial() dynamo.State {
	s := d.layout.Zero()
	d.x.Set(s, units.Scalar(1))
	return s
}

func (d *Duffing) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 50)
}
