// Package dynamo provides the state-vector primitives shared by the
// integrators and the problem definitions.
//
// The package defines:
//
//   - [Layout]: ordered, named, dimensioned components of a state vector,
//     built once per problem with [Declare] and [DeclareVector]
//   - [State]: an immutable point in state space backed by a gonum vector
//   - [System]: interface for ODE systems (dx/dt = f(t, x))
//   - [Trajectory], [Result], [Termination]: what a run returns
//
// # Example
//
//	b := dynamo.NewLayoutBuilder()
//	x := dynamo.Declare[units.Length, units.Velocity](b, "x")
//	v := dynamo.Declare[units.Velocity, units.Acceleration](b, "v")
//	layout := b.MustBuild()
//
//	sys := dynamo.NewSystem(layout, func(t units.Quantity[units.Time], s dynamo.State) dynamo.State {
//		dx := layout.Rate().Zero()
//		x.SetRate(dx, v.Get(s))
//		v.SetRate(dx, units.Mul[units.Acceleration](omega2, x.Get(s)).Neg())
//		return dx
//	})
//
// Declaring a rate that is not the component's dimension per second makes
// Build fail, so a malformed problem is rejected before any step runs.
//
// # Thread Safety
//
// Layouts and States are never mutated after they are handed to an
// integrator and may be shared freely between goroutines.
package dynamo
