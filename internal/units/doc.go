// Package units provides dimensioned scalars for the integration engine.
//
// Two representations share one exponent model ([Exponents], the seven SI
// base dimensions):
//
//   - [Quantity]: a float64 tagged with a phantom dimension type such as
//     [Length] or [Velocity]. Adding a Quantity[Length] to a
//     Quantity[Time] does not compile. Products and quotients name their
//     result type and are checked against the exponent arithmetic:
//
//     v := units.Div[units.Velocity](dist, dur)   // ok
//     f := units.Div[units.Force](dist, dur)      // panics: m/s is not kg m/s^2
//
//   - [Value]: a magnitude with exponents carried at runtime, used where
//     dimensions come from data (configuration files, CSV headers). Its
//     arithmetic returns [ErrDimensionMismatch] instead of failing to
//     compile.
//
// Magnitudes are always held in the canonical SI unit of their dimension.
// Conversions happen only at the edges through [Unit], [Parse] and
// [Quantity.In]; nothing inside an integration run converts units.
//
// # Cost
//
// Quantity is a struct around a single float64 and its dimension lives only
// in the type, so same-dimension arithmetic compiles to plain float
// arithmetic. Mul and Div add one small array comparison per call.
package units
