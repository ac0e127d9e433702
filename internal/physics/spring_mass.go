package physics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// SpringMass is a line of identical masses joined by springs and dampers.
// The first mass is tied to a wall; with RightWall the last one is too.
type SpringMass struct {
	params
	layout    *dynamo.Layout
	x         dynamo.VectorField[units.Length, units.Velocity]
	v         dynamo.VectorField[units.Velocity, units.Acceleration]
	n         int
	name      string
	rightWall bool

	Mass      units.Quantity[units.Mass]
	Stiffness units.Quantity[units.Stiffness]
	Damping   units.Quantity[units.Damping]
}

// NewSpringMass is a single damped mass on a spring.
func NewSpringMass() *SpringMass {
	s := newSpringMass("spring_mass", 1, false)
	s.Damping = units.New[units.Damping](0.5)
	return s
}

// NewSpringMassChain is n masses between two walls.
func NewSpringMassChain(n int) *SpringMass {
	s := newSpringMass("mass_chain", n, true)
	s.Damping = units.New[units.Damping](0.2)
	return s
}

func newSpringMass(name string, n int, rightWall bool) *SpringMass {
	b := dynamo.NewLayoutBuilder()
	s := &SpringMass{
		x:         dynamo.DeclareVector[units.Length, units.Velocity](b, "x", n),
		v:         dynamo.DeclareVector[units.Velocity, units.Acceleration](b, "v", n),
		n:         n,
		name:      name,
		rightWall: rightWall,
		Mass:      units.New[units.Mass](1),
		Stiffness: units.New[units.Stiffness](10),
	}
	s.layout = b.MustBuild()
	s.params = params{
		"mass":      quantityParam(&s.Mass, true),
		"stiffness": quantityParam(&s.Stiffness, false),
		"damping":   quantityParam(&s.Damping, false),
	}
	return s
}

func (s *SpringMass) Name() string           { return s.name }
func (s *SpringMass) Layout() *dynamo.Layout { return s.layout }
func (s *SpringMass) NumMasses() int         { return s.n }

// stretch is the extension of the spring to the left of mass i; i == n is
// the right wall spring.
func (s *SpringMass) stretch(st dynamo.State, i int) units.Quantity[units.Length] {
	switch {
	case i == 0:
		return s.x.At(st, 0)
	case i == s.n:
		return s.x.At(st, s.n-1).Neg()
	}
	return s.x.At(st, i).Sub(s.x.At(st, i-1))
}

func (s *SpringMass) Derive(_ units.Quantity[units.Time], st dynamo.State) dynamo.State {
	dx := s.layout.Rate().Zero()
	for i := 0; i < s.n; i++ {
		vel := s.v.At(st, i)
		s.x.SetRate(dx, i, vel)

		force := units.Mul[units.Force](s.Stiffness, s.stretch(st, i)).Neg()
		if i < s.n-1 || s.rightWall {
			force = force.Add(units.Mul[units.Force](s.Stiffness, s.stretch(st, i+1)))
		}
		force = force.Sub(units.Mul[units.Force](s.Damping, vel))
		s.v.SetRate(dx, i, units.Div[units.Acceleration](force, s.Mass))
	}
	return dx
}

func (s *SpringMass) Energy(st dynamo.State) units.Quantity[units.Energy] {
	var e units.Quantity[units.Energy]
	for i := 0; i < s.n; i++ {
		e = e.Add(kinetic(s.Mass, s.v.At(st, i)))
		e = e.Add(springEnergy(s.Stiffness, s.stretch(st, i)))
	}
	if s.rightWall {
		e = e.Add(springEnergy(s.Stiffness, s.stretch(st, s.n)))
	}
	return e
}

func (s *SpringMass) Initial() dynamo.State {
	st := s.layout.Zero()
	s.x.Set(st, 0, units.New[units.Length](0.5))
	return st
}

func (s *SpringMass) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 10)
}
