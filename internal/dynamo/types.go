package dynamo

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/finfoot/internal/units"
)

// State is a point in a system's state space. States are values: the
// integrator never writes to a state it did not allocate, and every
// combination returns a fresh vector.
type State struct {
	layout *Layout
	vec    *mat.VecDense
}

func (s State) Layout() *Layout { return s.layout }

func (s State) Len() int {
	if s.vec == nil {
		return 0
	}
	return s.vec.Len()
}

// IsZero reports whether s is the zero State (no layout, no storage).
func (s State) IsZero() bool { return s.vec == nil }

// At returns component i with its dimension attached.
func (s State) At(i int) units.Value {
	return units.Value{Mag: s.vec.AtVec(i), Dim: s.layout.comps[i].Dim}
}

// Raw returns the canonical magnitude of component i.
func (s State) Raw(i int) float64 { return s.vec.AtVec(i) }

// RawValues copies the canonical magnitudes out.
func (s State) RawValues() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.vec.AtVec(i)
	}
	return out
}

// Vector exposes the backing storage read-only.
func (s State) Vector() mat.Vector { return s.vec }

func (s State) Clone() State {
	if s.vec == nil {
		return s
	}
	return State{layout: s.layout, vec: mat.VecDenseCopyOf(s.vec)}
}

// With returns a copy of s with component i replaced.
func (s State) With(i int, v units.Value) (State, error) {
	if c := s.layout.comps[i]; c.Dim != v.Dim {
		return State{}, fmt.Errorf("component %q: %w", c.Name,
			&units.MismatchError{Op: "assign", Left: c.Dim, Right: v.Dim})
	}
	out := s.Clone()
	out.vec.SetVec(i, v.Mag)
	return out, nil
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for i := 0; i < s.Len(); i++ {
		v := s.vec.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) String() string {
	if s.vec == nil {
		return "[]"
	}
	parts := make([]string, s.Len())
	for i := range parts {
		parts[i] = s.layout.comps[i].Name + "=" + s.At(i).String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// LinearCombination returns sum(weights[i] * vectors[i]). All vectors must
// share one layout.
func LinearCombination(weights []float64, vectors []State) (State, error) {
	if len(weights) != len(vectors) || len(vectors) == 0 {
		return State{}, fmt.Errorf("%w: %d weights for %d vectors", ErrLayoutMismatch, len(weights), len(vectors))
	}
	l := vectors[0].layout
	out := l.Zero()
	for i, v := range vectors {
		if v.layout != l {
			return State{}, fmt.Errorf("%w: vector %d", ErrLayoutMismatch, i)
		}
		out.vec.AddScaledVec(out.vec, weights[i], v.vec)
	}
	return out, nil
}

// AddScaledRates returns s + h*sum(coeffs[j]*rates[j]). Rates must be on
// s.Layout().Rate(), which makes h*rate carry the dimension of s.
func (s State) AddScaledRates(h units.Quantity[units.Time], coeffs []float64, rates []State) (State, error) {
	out := s.Clone()
	if err := accumulateRates(out, s.layout.rate, h.Value(), coeffs, rates); err != nil {
		return State{}, err
	}
	return out, nil
}

// ScaledRateSum returns h*sum(coeffs[j]*rates[j]) on the state layout the
// rates integrate to.
func ScaledRateSum(h units.Quantity[units.Time], coeffs []float64, rates []State) (State, error) {
	if len(rates) == 0 || rates[0].layout == nil || rates[0].layout.integral == nil {
		return State{}, fmt.Errorf("%w: rates are not on a rate layout", ErrLayoutMismatch)
	}
	rl := rates[0].layout
	out := rl.integral.Zero()
	if err := accumulateRates(out, rl, h.Value(), coeffs, rates); err != nil {
		return State{}, err
	}
	return out, nil
}

func accumulateRates(dst State, rl *Layout, h float64, coeffs []float64, rates []State) error {
	if len(coeffs) > len(rates) {
		return fmt.Errorf("%w: %d coefficients for %d rates", ErrLayoutMismatch, len(coeffs), len(rates))
	}
	for j, c := range coeffs {
		if c == 0 {
			continue
		}
		if rates[j].layout != rl || rl == nil {
			return fmt.Errorf("%w: rate %d", ErrLayoutMismatch, j)
		}
		dst.vec.AddScaledVec(dst.vec, h*c, rates[j].vec)
	}
	return nil
}

// Sub returns a - b.
func Sub(a, b State) (State, error) {
	return LinearCombination([]float64{1, -1}, []State{a, b})
}

// System is a first-order ODE dx/dt = f(t, x). Derive must be pure and
// deterministic, must return a newly allocated state on Layout().Rate(),
// and must be safe to call from concurrent runs.
type System interface {
	Layout() *Layout
	Derive(t units.Quantity[units.Time], x State) State
}

// DerivativeFunc adapts a plain function to System.
type DerivativeFunc func(t units.Quantity[units.Time], x State) State

type funcSystem struct {
	layout *Layout
	f      DerivativeFunc
}

// NewSystem wraps f as a System on layout l.
func NewSystem(l *Layout, f DerivativeFunc) System {
	return funcSystem{layout: l, f: f}
}

func (s funcSystem) Layout() *Layout { return s.layout }

func (s funcSystem) Derive(t units.Quantity[units.Time], x State) State {
	return s.f(t, x)
}

// Hamiltonian systems expose a conserved energy.
type Hamiltonian interface {
	Energy(x State) units.Quantity[units.Energy]
}

// Configurable systems accept dimensioned parameter overrides.
type Configurable interface {
	Params() map[string]units.Value
	SetParam(name string, value units.Value) error
}
