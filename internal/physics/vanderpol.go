package physics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// VanDerPol is the relaxation oscillator
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - w^2 x
//
// with a dimensionless amplitude x.
type VanDerPol struct {
	params
	layout *dynamo.Layout
	x      dynamo.Field[units.Dimensionless, units.Frequency]
	y      dynamo.Field[units.Frequency, units.AngularAcceleration]

	Mu    units.Quantity[units.Frequency]
	Omega units.Quantity[units.Frequency]
}

func NewVanDerPol() *VanDerPol {
	b := dynamo.NewLayoutBuilder()
	v := &VanDerPol{
		x:     dynamo.Declare[units.Dimensionless, units.Frequency](b, "x"),
		y:     dynamo.Declare[units.Frequency, units.AngularAcceleration](b, "y"),
		Mu:    units.New[units.Frequency](5),
		Omega: units.New[units.Frequency](1),
	}
	v.layout = b.MustBuild()
	v.params = params{
		"mu":    quantityParam(&v.Mu, false),
		"omega": quantityParam(&v.Omega, false),
	}
	return v
}

func (v *VanDerPol) Name() string           { return "van_der_pol" }
func (v *VanDerPol) Layout() *dynamo.Layout { return v.layout }

func (v *VanDerPol) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := v.layout.Rate().Zero()
	x, y := v.x.Get(s).Value(), v.y.Get(s)
	w2 := units.Mul[units.AngularAcceleration](v.Omega, v.Omega)

	v.x.SetRate(dx, y)
	v.y.SetRate(dx, units.Mul[units.AngularAcceleration](v.Mu, y).Scale(1-x*x).Sub(w2.Scale(x)))
	return dx
}

func (v *VanDerPol) Initial() dynamo.State {
	s := v.layout.Zero()
	v.x.Set(s, units.Scalar(1))
	return s
}

func (v *VanDerPol) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 15)
}

func (v *VanDerPol) Reference() (Reference, bool) {
	if v.Mu.Value() != 5 || v.Omega.Value() != 1 {
		return Reference{}, false
	}
	return Reference{
		Time:  units.Seconds(15),
		State: []float64{-1.7479415, 0.16720312},
		Rel:   1e-4,
		Abs:   1e-6,
	}, true
}
