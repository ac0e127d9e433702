package physics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Projectile is planar flight under gravity with drag a = -c|v|v.
type Projectile struct {
	params
	layout *dynamo.Layout
	x, y   dynamo.Field[units.Length, units.Velocity]
	vx, vy dynamo.Field[units.Velocity, units.Acceleration]

	Mass    units.Quantity[units.Mass]
	Gravity units.Quantity[units.Acceleration]
	Drag    units.Quantity[units.InverseLength]
	Speed   units.Quantity[units.Velocity]
	Angle   units.Quantity[units.Dimensionless]
}

func NewProjectile() *Projectile {
	b := dynamo.NewLayoutBuilder()
	p := &Projectile{
		x:       dynamo.Declare[units.Length, units.Velocity](b, "x"),
		y:       dynamo.Declare[units.Length, units.Velocity](b, "y"),
		vx:      dynamo.Declare[units.Velocity, units.Acceleration](b, "vx"),
		vy:      dynamo.Declare[units.Velocity, units.Acceleration](b, "vy"),
		Mass:    units.New[units.Mass](1),
		Gravity: units.New[units.Acceleration](9.81),
		Drag:    units.New[units.InverseLength](0.01),
		Speed:   units.New[units.Velocity](50),
		Angle:   units.Scalar(math.Pi / 4),
	}
	p.layout = b.MustBuild()
	p.params = params{
		"mass":    quantityParam(&p.Mass, true),
		"gravity": quantityParam(&p.Gravity, false),
		"drag":    quantityParam(&p.Drag, false),
		"speed":   quantityParam(&p.Speed, false),
		"angle":   quantityParam(&p.Angle, false),
	}
	return p
}

func (p *Projectile) Name() string           { return "projectile" }
func (p *Projectile) Layout() *dynamo.Layout { return p.layout }

func (p *Projectile) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := p.layout.Rate().Zero()
	vx, vy := p.vx.Get(s), p.vy.Get(s)
	speed := units.New[units.Velocity](math.Hypot(vx.Value(), vy.Value()))
	k := units.Mul[units.Frequency](p.Drag, speed)

	p.x.SetRate(dx, vx)
	p.y.SetRate(dx, vy)
	p.vx.SetRate(dx, units.Mul[units.Acceleration](k, vx).Neg())
	p.vy.SetRate(dx, units.Mul[units.Acceleration](k, vy).Neg().Sub(p.Gravity))
	return dx
}

func (p *Projectile) Energy(s dynamo.State) units.Quantity[units.Energy] {
	weight := units.Mul[units.Force](p.Mass, p.Gravity)
	return kinetic(p.Mass, p.vx.Get(s)).
		Add(kinetic(p.Mass, p.vy.Get(s))).
		Add(units.Mul[units.Energy](weight, p.y.Get(s)))
}

func (p *Projectile) Initial() dynamo.State {
	s := p.layout.Zero()
	sin, cos := math.Sincos(p.Angle.Value())
	p.vx.Set(s, p.Speed.Scale(cos))
	p.vy.Set(s, p.Speed.Scale(sin))
	return s
}

func (p *Projectile) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 5)
}
