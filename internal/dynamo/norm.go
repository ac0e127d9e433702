package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/finfoot/internal/units"
)

// Tolerance scales error estimates. Abs holds one canonical magnitude per
// component, so it carries that component's dimension.
type Tolerance struct {
	Rel float64
	Abs []float64
}

// ResolveTolerance builds a Tolerance for layout l. abs is applied to every
// component as a canonical SI magnitude; perComponent overrides it with
// dimensioned values checked against each component.
func ResolveTolerance(l *Layout, rel, abs float64, perComponent map[string]units.Value) (Tolerance, error) {
	if rel < 0 || math.IsNaN(rel) || math.IsInf(rel, 0) {
		return Tolerance{}, fmt.Errorf("%w: relative tolerance %g", ErrInvalidTolerance, rel)
	}
	if abs < 0 || math.IsNaN(abs) || math.IsInf(abs, 0) {
		return Tolerance{}, fmt.Errorf("%w: absolute tolerance %g", ErrInvalidTolerance, abs)
	}
	tol := Tolerance{Rel: rel, Abs: make([]float64, l.Len())}
	for i := range tol.Abs {
		tol.Abs[i] = abs
	}
	for name, v := range perComponent {
		i, ok := l.Index(name)
		if !ok {
			return Tolerance{}, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
		}
		if c := l.comps[i]; c.Dim != v.Dim {
			return Tolerance{}, fmt.Errorf("tolerance for %q: %w", name,
				&units.MismatchError{Op: "tolerance", Left: c.Dim, Right: v.Dim})
		}
		if v.Mag < 0 || !v.IsFinite() {
			return Tolerance{}, fmt.Errorf("%w: %q absolute tolerance %s", ErrInvalidTolerance, name, v)
		}
		tol.Abs[i] = v.Mag
	}
	if rel == 0 {
		for i, a := range tol.Abs {
			if a == 0 {
				return Tolerance{}, fmt.Errorf("%w: component %q has zero relative and absolute tolerance",
					ErrInvalidTolerance, l.comps[i].Name)
			}
		}
	}
	return tol, nil
}

// Scale returns atol_i + rtol*max(|y0_i|, |y1_i|) for each component.
func (t Tolerance) Scale(y0, y1 State) []float64 {
	out := make([]float64, y0.Len())
	for i := range out {
		m := math.Max(math.Abs(y0.Raw(i)), math.Abs(y1.Raw(i)))
		out[i] = t.Abs[i] + t.Rel*m
	}
	return out
}

// RMSNorm returns sqrt(mean((v_i/scale_i)^2)), a dimensionless measure.
// A zero scale with a non-zero component yields +Inf.
func RMSNorm(v State, scale []float64) float64 {
	n := v.Len()
	if n == 0 {
		return 0
	}
	ratios := make([]float64, n)
	for i := range ratios {
		x := v.Raw(i)
		if x == 0 {
			continue
		}
		ratios[i] = x / scale[i]
	}
	return floats.Norm(ratios, 2) / math.Sqrt(float64(n))
}
