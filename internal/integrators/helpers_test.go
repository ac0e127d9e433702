package integrators

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// decay is dn/dt = -k n.
type decay struct {
	layout *dynamo.Layout
	n      dynamo.Field[units.Amount, units.AmountRate]
	k      units.Quantity[units.Frequency]
	calls  int
}

func newDecay(k float64) *decay {
	b := dynamo.NewLayoutBuilder()
	d := &decay{n: dynamo.Declare[units.Amount, units.AmountRate](b, "n"), k: units.New[units.Frequency](k)}
	d.layout = b.MustBuild()
	return d
}

func (d *decay) Layout() *dynamo.Layout { return d.layout }

func (d *decay) Derive(_ units.Quantity[units.Time], x dynamo.State) dynamo.State {
	d.calls++
	dx := d.layout.Rate().Zero()
	d.n.SetRate(dx, units.Mul[units.AmountRate](d.k.Neg(), d.n.Get(x)))
	return dx
}

func (d *decay) initial(n float64) dynamo.State {
	x := d.layout.Zero()
	d.n.Set(x, units.New[units.Amount](n))
	return x
}

func (d *decay) exact(n0, t float64) float64 {
	return n0 * math.Exp(-d.k.Value()*t)
}

// oscillator is x'' = -w^2 x.
type oscillator struct {
	layout *dynamo.Layout
	x      dynamo.Field[units.Length, units.Velocity]
	v      dynamo.Field[units.Velocity, units.Acceleration]
	w2     units.Quantity[units.AngularAcceleration]
}

func newOscillator(w float64) *oscillator {
	b := dynamo.NewLayoutBuilder()
	o := &oscillator{
		x:  dynamo.Declare[units.Length, units.Velocity](b, "x"),
		v:  dynamo.Declare[units.Velocity, units.Acceleration](b, "v"),
		w2: units.New[units.AngularAcceleration](w * w),
	}
	o.layout = b.MustBuild()
	return o
}

func (o *oscillator) Layout() *dynamo.Layout { return o.layout }

func (o *oscillator) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := o.layout.Rate().Zero()
	o.x.SetRate(dx, o.v.Get(s))
	o.v.SetRate(dx, units.Mul[units.Acceleration](o.w2.Neg(), o.x.Get(s)))
	return dx
}

func (o *oscillator) initial(x, v float64) dynamo.State {
	s := o.layout.Zero()
	o.x.Set(s, units.New[units.Length](x))
	o.v.Set(s, units.New[units.Velocity](v))
	return s
}

// poisoned returns NaN derivatives once t passes after.
func poisoned(after float64) dynamo.System {
	d := newDecay(1)
	return dynamo.NewSystem(d.layout, func(t units.Quantity[units.Time], x dynamo.State) dynamo.State {
		dx := d.Derive(t, x)
		if t.Value() > after {
			d.n.SetRate(dx, units.New[units.AmountRate](math.NaN()))
		}
		return dx
	})
}

func decayProblem(d *decay, tEnd float64) Problem {
	return Problem{
		System: d,
		T0:     units.Seconds(0),
		TEnd:   units.Seconds(tEnd),
		Y0:     d.initial(1),
	}
}
