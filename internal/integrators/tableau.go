package integrators

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Tableau is the Butcher table of an explicit embedded Runge-Kutta pair.
// B propagates the solution (the higher-order weights); BHat gives the
// embedded solution used only for the error estimate.
type Tableau struct {
	Name          string
	C             []float64
	A             [][]float64 // A[i] holds the coefficients of stage i+1
	B             []float64
	BHat          []float64
	Order         int
	EmbeddedOrder int

	// FSAL marks tableaus whose last stage is evaluated at the propagated
	// solution, so its derivative is the first stage of the next step.
	FSAL bool
}

func (t *Tableau) Stages() int { return len(t.C) }

// ErrorOrder is the order that governs the step-size scaling law.
func (t *Tableau) ErrorOrder() int {
	return min(t.Order, t.EmbeddedOrder)
}

// errorWeights returns B - BHat.
func (t *Tableau) errorWeights() []float64 {
	e := make([]float64, len(t.B))
	floats.SubTo(e, t.B, t.BHat)
	return e
}

const tableauEps = 1e-12

// Validate checks the consistency conditions of the table.
func (t *Tableau) Validate() error {
	s := len(t.C)
	switch {
	case s < 2:
		return fmt.Errorf("%w: %s has %d stages", ErrInvalidTableau, t.Name, s)
	case len(t.B) != s || len(t.BHat) != s:
		return fmt.Errorf("%w: %s weights do not match %d stages", ErrInvalidTableau, t.Name, s)
	case len(t.A) != s-1:
		return fmt.Errorf("%w: %s has %d coefficient rows for %d stages", ErrInvalidTableau, t.Name, len(t.A), s)
	case t.C[0] != 0:
		return fmt.Errorf("%w: %s first node is %g", ErrInvalidTableau, t.Name, t.C[0])
	case t.Order < 1 || t.EmbeddedOrder < 1 || t.Order == t.EmbeddedOrder:
		return fmt.Errorf("%w: %s orders %d(%d)", ErrInvalidTableau, t.Name, t.Order, t.EmbeddedOrder)
	}
	for i, row := range t.A {
		if len(row) != i+1 {
			return fmt.Errorf("%w: %s row %d has %d coefficients", ErrInvalidTableau, t.Name, i+1, len(row))
		}
		if sum := floats.Sum(row); math.Abs(sum-t.C[i+1]) > tableauEps {
			return fmt.Errorf("%w: %s row %d sums to %g, node is %g", ErrInvalidTableau, t.Name, i+1, sum, t.C[i+1])
		}
	}
	if sum := floats.Sum(t.B); math.Abs(sum-1) > tableauEps {
		return fmt.Errorf("%w: %s weights sum to %g", ErrInvalidTableau, t.Name, sum)
	}
	if sum := floats.Sum(t.BHat); math.Abs(sum-1) > tableauEps {
		return fmt.Errorf("%w: %s embedded weights sum to %g", ErrInvalidTableau, t.Name, sum)
	}
	if t.FSAL {
		last := t.A[s-2]
		if t.C[s-1] != 1 || t.B[s-1] != 0 || !floats.EqualApprox(last, t.B[:s-1], tableauEps) {
			return fmt.Errorf("%w: %s is marked FSAL but its last stage is not the solution", ErrInvalidTableau, t.Name)
		}
	}
	return nil
}

// DormandPrince54 is the Dormand-Prince 5(4) pair (DOPRI5).
func DormandPrince54() *Tableau {
	return &Tableau{
		Name: "dopri5",
		C:    []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1},
		A: [][]float64{
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		B:             []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		BHat:          []float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0},
		Order:         5,
		EmbeddedOrder: 4,
		FSAL:          true,
	}
}

// BogackiShampine32 is the Bogacki-Shampine 3(2) pair.
func BogackiShampine32() *Tableau {
	return &Tableau{
		Name: "bs3",
		C:    []float64{0, 1.0 / 2.0, 3.0 / 4.0, 1},
		A: [][]float64{
			{1.0 / 2.0},
			{0, 3.0 / 4.0},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		B:             []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		BHat:          []float64{7.0 / 24.0, 1.0 / 4.0, 1.0 / 3.0, 1.0 / 8.0},
		Order:         3,
		EmbeddedOrder: 2,
		FSAL:          true,
	}
}

// CashKarp45 is the Cash-Karp 5(4) pair.
func CashKarp45() *Tableau {
	return &Tableau{
		Name: "cashkarp",
		C:    []float64{0, 1.0 / 5.0, 3.0 / 10.0, 3.0 / 5.0, 1, 7.0 / 8.0},
		A: [][]float64{
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{3.0 / 10.0, -9.0 / 10.0, 6.0 / 5.0},
			{-11.0 / 54.0, 5.0 / 2.0, -70.0 / 27.0, 35.0 / 27.0},
			{1631.0 / 55296.0, 175.0 / 512.0, 575.0 / 13824.0, 44275.0 / 110592.0, 253.0 / 4096.0},
		},
		B:             []float64{37.0 / 378.0, 0, 250.0 / 621.0, 125.0 / 594.0, 0, 512.0 / 1771.0},
		BHat:          []float64{2825.0 / 27648.0, 0, 18575.0 / 48384.0, 13525.0 / 55296.0, 277.0 / 14336.0, 1.0 / 4.0},
		Order:         5,
		EmbeddedOrder: 4,
	}
}

// Fehlberg45 is the Runge-Kutta-Fehlberg 4(5) pair, propagating the
// fifth-order solution.
func Fehlberg45() *Tableau {
	return &Tableau{
		Name: "rkf45",
		C:    []float64{0, 1.0 / 4.0, 3.0 / 8.0, 12.0 / 13.0, 1, 1.0 / 2.0},
		A: [][]float64{
			{1.0 / 4.0},
			{3.0 / 32.0, 9.0 / 32.0},
			{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
			{439.0 / 216.0, -8, 3680.0 / 513.0, -845.0 / 4104.0},
			{-8.0 / 27.0, 2, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0},
		},
		B:             []float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -9.0 / 50.0, 2.0 / 55.0},
		BHat:          []float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -1.0 / 5.0, 0},
		Order:         5,
		EmbeddedOrder: 4,
	}
}

// HeunEuler21 pairs Heun's method with forward Euler.
func HeunEuler21() *Tableau {
	return &Tableau{
		Name:          "heun-euler",
		C:             []float64{0, 1},
		A:             [][]float64{{1}},
		B:             []float64{1.0 / 2.0, 1.0 / 2.0},
		BHat:          []float64{1, 0},
		Order:         2,
		EmbeddedOrder: 1,
	}
}

var methods = map[string]func() *Tableau{
	"dopri5":     DormandPrince54,
	"bs3":        BogackiShampine32,
	"cashkarp":   CashKarp45,
	"rkf45":      Fehlberg45,
	"heun-euler": HeunEuler21,
}

// DefaultMethod is the method used when none is configured.
const DefaultMethod = "dopri5"

// Lookup returns a fresh copy of the named tableau.
func Lookup(name string) (*Tableau, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return fn(), nil
}

// Methods lists the registered method names.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
