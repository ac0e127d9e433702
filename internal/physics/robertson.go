package physics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Robertson is the three-species autocatalytic reaction. The species are
// mole fractions; its rates span nine orders of magnitude, so explicit
// methods are held to small steps by stability rather than accuracy.
type Robertson struct {
	params
	layout     *dynamo.Layout
	y1, y2, y3 dynamo.Field[units.Dimensionless, units.Frequency]

	K1, K2, K3 units.Quantity[units.Frequency]
}

func NewRobertson() *Robertson {
	b := dynamo.NewLayoutBuilder()
	r := &Robertson{
		y1: dynamo.Declare[units.Dimensionless, units.Frequency](b, "y1"),
		y2: dynamo.Declare[units.Dimensionless, units.Frequency](b, "y2"),
		y3: dynamo.Declare[units.Dimensionless, units.Frequency](b, "y3"),
		K1: units.New[units.Frequency](0.04),
		K2: units.New[units.Frequency](3e7),
		K3: units.New[units.Frequency](1e4),
	}
	r.layout = b.MustBuild()
	r.params = params{
		"k1": quantityParam(&r.K1, false),
		"k2": quantityParam(&r.K2, false),
		"k3": quantityParam(&r.K3, false),
	}
	return r
}

func (r *Robertson) Name() string           { return "robertson" }
func (r *Robertson) Layout() *dynamo.Layout { return r.layout }

func (r *Robertson) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := r.layout.Rate().Zero()
	y1, y2, y3 := r.y1.Get(s).Value(), r.y2.Get(s).Value(), r.y3.Get(s).Value()

	decay := r.K1.Scale(y1)
	recombine := r.K3.Scale(y2 * y3)
	convert := r.K2.Scale(y2 * y2)
	r.y1.SetRate(dx, recombine.Sub(decay))
	r.y2.SetRate(dx, decay.Sub(recombine).Sub(convert))
	r.y3.SetRate(dx, convert)
	return dx
}

func (r *Robertson) Initial() dynamo.State {
	s := r.layout.Zero()
	r.y1.Set(s, units.Scalar(1))
	return s
}

func (r *Robertson) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 30)
}

func (r *Robertson) Reference() (Reference, bool) {
	if r.K1.Value() != 0.04 || r.K2.Value() != 3e7 || r.K3.Value() != 1e4 {
		return Reference{}, false
	}
	return Reference{
		Time:  units.Seconds(30),
		State: []float64{7.44269918e-01, 1.03732456e-05, 2.55719708e-01},
		Rel:   1e-4,
		Abs:   4e-4,
	}, true
}
