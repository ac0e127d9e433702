package physics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Pendulum is a damped rigid pendulum; theta is measured from the bottom.
type Pendulum struct {
	params
	layout *dynamo.Layout
	theta  dynamo.Field[units.Dimensionless, units.Frequency]
	omega  dynamo.Field[units.Frequency, units.AngularAcceleration]

	Mass    units.Quantity[units.Mass]
	Length  units.Quantity[units.Length]
	Damping units.Quantity[units.Frequency]
	Gravity units.Quantity[units.Acceleration]
	Theta0  units.Quantity[units.Dimensionless]
}

func NewPendulum() *Pendulum {
	b := dynamo.NewLayoutBuilder()
	p := &Pendulum{
		theta:   dynamo.Declare[units.Dimensionless, units.Frequency](b, "theta"),
		omega:   dynamo.Declare[units.Frequency, units.AngularAcceleration](b, "omega"),
		Mass:    units.New[units.Mass](1),
		Length:  units.New[units.Length](1),
		Damping: units.New[units.Frequency](0.1),
		Gravity: units.New[units.Acceleration](9.81),
		Theta0:  units.Scalar(math.Pi / 4),
	}
	p.layout = b.MustBuild()
	p.params = params{
		"mass":    quantityParam(&p.Mass, true),
		"length":  quantityParam(&p.Length, true),
		"damping": quantityParam(&p.Damping, false),
		"gravity": quantityParam(&p.Gravity, false),
	}
	return p
}

func (p *Pendulum) Name() string           { return "pendulum" }
func (p *Pendulum) Layout() *dynamo.Layout { return p.layout }

func (p *Pendulum) Derive(_ units.Quantity[units.Time], x dynamo.State) dynamo.State {
	dx := p.layout.Rate().Zero()
	theta, omega := p.theta.Get(x), p.omega.Get(x)
	g := units.Div[units.AngularAcceleration](p.Gravity, p.Length)

	alpha := g.Scale(-math.Sin(theta.Value())).
		Sub(units.Mul[units.AngularAcceleration](p.Damping, omega))
	p.theta.SetRate(dx, omega)
	p.omega.SetRate(dx, alpha)
	return dx
}

func (p *Pendulum) Energy(x dynamo.State) units.Quantity[units.Energy] {
	v := units.Mul[units.Velocity](p.Length, p.omega.Get(x))
	weight := units.Mul[units.Force](p.Mass, p.Gravity)
	pe := units.Mul[units.Energy](weight, p.Length).Scale(1 - math.Cos(p.theta.Get(x).Value()))
	return kinetic(p.Mass, v).Add(pe)
}

func (p *Pendulum) Initial() dynamo.State {
	x := p.layout.Zero()
	p.theta.Set(x, p.Theta0)
	return x
}

func (p *Pendulum) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 10)
}
