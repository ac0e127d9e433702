// Package physics is the catalogue of dimensioned test problems.
//
// Each model implements [Model]: a [dynamo.System] with typed fields,
// [dynamo.Configurable] parameters carried as dimensioned values, a default
// initial state and a default time span:
//
//   - [Exponential]: first-order decay, analytic solution
//   - [Harmonic]: undamped oscillator, analytic solution
//   - [SpringMass]: damped masses on springs, single or chained
//   - [Pendulum]: damped nonlinear pendulum
//   - [VanDerPol]: relaxation oscillator
//   - [Lorenz] and [Rossler]: chaotic attractors
//   - [Duffing]: periodically forced nonlinear oscillator
//   - [Robertson]: chemical kinetics with widely separated rates
//   - [Coupled]: fully coupled oscillator bank
//   - [Projectile]: planar flight with quadratic drag
//
// Models with a known end state implement [Referenced]. Many also
// implement [dynamo.Hamiltonian] so energy drift can be monitored:
//
//	m, _ := physics.Lookup("pendulum")
//	if h, ok := m.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(m.Initial())
//	}
package physics
