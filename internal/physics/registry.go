package physics

import (
	"fmt"
	"sort"
)

type entry struct {
	build   func() Model
	summary string
}

// Registry maps problem names to model constructors.
type Registry struct {
	models map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]entry)}
}

// Register adds or replaces a model constructor.
func (r *Registry) Register(name, summary string, build func() Model) {
	r.models[name] = entry{build: build, summary: summary}
}

// Get builds a fresh instance of the named model.
func (r *Registry) Get(name string) (Model, error) {
	e, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return e.build(), nil
}

func (r *Registry) Summary(name string) string { return r.models[name].summary }

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var catalogue = func() *Registry {
	r := NewRegistry()
	r.Register("exponential", "first-order decay with an analytic solution",
		func() Model { return NewExponential() })
	r.Register("harmonic_oscillator", "undamped oscillator, one period",
		func() Model { return NewHarmonic() })
	r.Register("spring_mass", "single damped mass on a spring",
		func() Model { return NewSpringMass() })
	r.Register("mass_chain", "eight damped masses between two walls",
		func() Model { return NewSpringMassChain(8) })
	r.Register("pendulum", "damped nonlinear pendulum",
		func() Model { return NewPendulum() })
	r.Register("van_der_pol", "relaxation oscillator, mu = 5/s",
		func() Model { return NewVanDerPol() })
	r.Register("lorenz", "Lorenz attractor",
		func() Model { return NewLorenz() })
	r.Register("rossler", "Rossler attractor",
		func() Model { return NewRossler() })
	r.Register("duffing", "forced Duffing oscillator",
		func() Model { return NewDuffing() })
	r.Register("robertson", "Robertson chemical kinetics",
		func() Model { return NewRobertson() })
	r.Register("coupled_oscillators", "100 fully coupled oscillators",
		func() Model { return NewCoupled(DefaultCoupled) })
	r.Register("projectile", "planar projectile with quadratic drag",
		func() Model { return NewProjectile() })
	return r
}()

// Lookup builds a fresh catalogued model.
func Lookup(name string) (Model, error) { return catalogue.Get(name) }

// Names lists the catalogued models.
func Names() []string { return catalogue.List() }

// Summary is a one-line description of a catalogued model.
func Summary(name string) string { return catalogue.Summary(name) }
