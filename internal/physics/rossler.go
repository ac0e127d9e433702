package physics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Rossler is the spiral attractor with every equation scaled by Rate.
type Rossler struct {
	params
	layout  *dynamo.Layout
	x, y, z dynamo.Field[units.Dimensionless, units.Frequency]

	A, B, C units.Quantity[units.Dimensionless]
	Rate    units.Quantity[units.Frequency]
}

func NewRossler() *Rossler {
	b := dynamo.NewLayoutBuilder()
	r := &Rossler{
		x:    dynamo.Declare[units.Dimensionless, units.Frequency](b, "x"),
		y:    dynamo.Declare[units.Dimensionless, units.Frequency](b, "y"),
		z:    dynamo.Declare[units.Dimensionless, units.Frequency](b, "z"),
		A:    units.Scalar(0.2),
		B:    units.Scalar(0.2),
		C:    units.Scalar(5.7),
		Rate: units.New[units.Frequency](1),
	}
	r.layout = b.MustBuild()
	r.params = params{
		"a":    quantityParam(&r.A, false),
		"b":    quantityParam(&r.B, false),
		"c":    quantityParam(&r.C, false),
		"rate": quantityParam(&r.Rate, true),
	}
	return r
}

func (r *Rossler) Name() string           { return "rossler" }
func (r *Rossler) Layout() *dynamo.Layout { return r.layout }

func (r *Rossler) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := r.layout.Rate().Zero()
	x, y, z := r.x.Get(s).Value(), r.y.Get(s).Value(), r.z.Get(s).Value()

	r.x.SetRate(dx, r.Rate.Scale(-y-z))
	r.y.SetRate(dx, r.Rate.Scale(x+r.A.Value()*y))
	r.z.SetRate(dx, r.Rate.Scale(r.B.Value()+z*(x-r.C.Value())))
	return dx
}

func (r *Rossler) Initial() dynamo.State {
	s := r.layout.Zero()
	for _, f := range []dynamo.Field[units.Dimensionless, units.Frequency]{r.x, r.y, r.z} {
		f.Set(s, units.Scalar(1))
	}
	return s
}

func (r *Rossler) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 50)
}
