package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

func absTol(t *testing.T, l *dynamo.Layout, abs float64) dynamo.Tolerance {
	t.Helper()
	tol, err := dynamo.ResolveTolerance(l, 0, abs, nil)
	require.NoError(t, err)
	return tol
}

func newTestStepper(t *testing.T, method string) *Stepper {
	t.Helper()
	tab, err := Lookup(method)
	require.NoError(t, err)
	s, err := NewStepper(tab)
	require.NoError(t, err)
	return s
}

func TestStepper_Accuracy(t *testing.T) {
	for _, method := range []string{"dopri5", "cashkarp", "rkf45"} {
		t.Run(method, func(t *testing.T) {
			d := newDecay(1)
			s := newTestStepper(t, method)

			res, err := s.Step(d, units.Seconds(0), d.initial(1), units.Seconds(0.1), dynamo.State{}, absTol(t, d.layout, 1e-6))
			require.NoError(t, err)
			assert.False(t, res.NonFinite)
			assert.InDelta(t, math.Exp(-0.1), res.State.Raw(0), 1e-7)
			assert.InDelta(t, math.Exp(-0.1), res.Embedded.Raw(0), 1e-5)
			assert.Less(t, res.Error, 1.0)
		})
	}
}

func TestStepper_Backward(t *testing.T) {
	d := newDecay(1)
	s := newTestStepper(t, "dopri5")

	res, err := s.Step(d, units.Seconds(1), d.initial(1), units.Seconds(-0.1), dynamo.State{}, absTol(t, d.layout, 1e-6))
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(0.1), res.State.Raw(0), 1e-7)
}

func TestStepper_Evaluations(t *testing.T) {
	tests := []struct {
		method    string
		fresh     int
		withFirst int
	}{
		{"dopri5", 7, 6},
		{"bs3", 4, 3},
		{"cashkarp", 6, 5},
		{"heun-euler", 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			d := newDecay(1)
			s := newTestStepper(t, tt.method)
			tol := absTol(t, d.layout, 1e-6)
			x := d.initial(1)

			res, err := s.Step(d, units.Seconds(0), x, units.Seconds(0.1), dynamo.State{}, tol)
			require.NoError(t, err)
			assert.Equal(t, tt.fresh, res.Evaluations)

			again, err := s.Step(d, units.Seconds(0), x, units.Seconds(0.05), res.First, tol)
			require.NoError(t, err)
			assert.Equal(t, tt.withFirst, again.Evaluations)
		})
	}
}

func TestStepper_FSALLastStage(t *testing.T) {
	d := newDecay(1)
	s := newTestStepper(t, "dopri5")

	res, err := s.Step(d, units.Seconds(0), d.initial(1), units.Seconds(0.1), dynamo.State{}, absTol(t, d.layout, 1e-6))
	require.NoError(t, err)
	require.False(t, res.Last.IsZero())
	assert.Equal(t, -res.State.Raw(0), res.Last.Raw(0))
	assert.Same(t, d.layout.Rate(), res.Last.Layout())

	ck := newTestStepper(t, "cashkarp")
	res, err = ck.Step(d, units.Seconds(0), d.initial(1), units.Seconds(0.1), dynamo.State{}, absTol(t, d.layout, 1e-6))
	require.NoError(t, err)
	assert.True(t, res.Last.IsZero())
}

func TestStepper_ErrorScaling(t *testing.T) {
	d := newDecay(1)
	x := d.initial(1)
	tol := absTol(t, d.layout, 1e-6)

	he := newTestStepper(t, "heun-euler")
	big, err := he.Step(d, units.Seconds(0), x, units.Seconds(0.1), dynamo.State{}, tol)
	require.NoError(t, err)
	small, err := he.Step(d, units.Seconds(0), x, units.Seconds(0.05), dynamo.State{}, tol)
	require.NoError(t, err)
	// local error of the embedded Euler step is h^2 y / 2
	assert.InDelta(t, 4, big.Error/small.Error, 1e-6)
	assert.InDelta(t, 0.005/1e-6, big.Error, 1e-3)

	dp := newTestStepper(t, "dopri5")
	big, err = dp.Step(d, units.Seconds(0), x, units.Seconds(0.2), dynamo.State{}, tol)
	require.NoError(t, err)
	small, err = dp.Step(d, units.Seconds(0), x, units.Seconds(0.1), dynamo.State{}, tol)
	require.NoError(t, err)
	ratio := big.Error / small.Error
	assert.Greater(t, ratio, 20.0)
	assert.Less(t, ratio, 45.0)
}

func TestStepper_NonFinite(t *testing.T) {
	sys := poisoned(-1)
	s := newTestStepper(t, "dopri5")
	x := sys.Layout().Zero()

	res, err := s.Step(sys, units.Seconds(0), x, units.Seconds(0.1), dynamo.State{}, absTol(t, sys.Layout(), 1e-6))
	require.NoError(t, err)
	assert.True(t, res.NonFinite)
	assert.True(t, math.IsInf(res.Error, 1))
	assert.True(t, res.State.IsZero())
	assert.Equal(t, 1, res.Evaluations)
}

func TestStepper_InfiniteNormIsARejection(t *testing.T) {
	d := newDecay(1)
	s := newTestStepper(t, "dopri5")

	zero := dynamo.Tolerance{Rel: 0, Abs: []float64{0}}
	res, err := s.Step(d, units.Seconds(0), d.initial(1), units.Seconds(0.1), dynamo.State{}, zero)
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.Error, 1))
	assert.False(t, res.NonFinite)
	assert.True(t, res.State.IsValid())

	c := newTestController(t, DefaultStepConfig(), 0.1)
	h, err := c.Propose()
	require.NoError(t, err)
	dec, err := c.Decide(h, res.Error)
	require.NoError(t, err)
	assert.False(t, dec.Accept)
	assert.Equal(t, DefaultStepConfig().MinShrink, dec.Factor)
}

func TestStepper_NonFiniteLateStage(t *testing.T) {
	sys := poisoned(0.05)
	s := newTestStepper(t, "dopri5")

	x, err := sys.Layout().FromRaw([]float64{1})
	require.NoError(t, err)
	res, err := s.Step(sys, units.Seconds(0), x, units.Seconds(0.1), dynamo.State{}, absTol(t, sys.Layout(), 1e-6))
	require.NoError(t, err)
	assert.True(t, res.NonFinite)
	// k1 is still usable for a retry
	assert.True(t, res.First.IsValid())
}

func TestStepper_WrongLayout(t *testing.T) {
	d := newDecay(1)
	bad := dynamo.NewSystem(d.layout, func(_ units.Quantity[units.Time], x dynamo.State) dynamo.State {
		return x.Clone()
	})
	s := newTestStepper(t, "dopri5")

	_, err := s.Step(bad, units.Seconds(0), d.initial(1), units.Seconds(0.1), dynamo.State{}, absTol(t, d.layout, 1e-6))
	assert.True(t, errors.Is(err, dynamo.ErrLayoutMismatch))
}

func TestStepper_DoesNotMutateInput(t *testing.T) {
	d := newDecay(1)
	s := newTestStepper(t, "bs3")
	x := d.initial(1)

	_, err := s.Step(d, units.Seconds(0), x, units.Seconds(0.5), dynamo.State{}, absTol(t, d.layout, 1e-6))
	require.NoError(t, err)
	assert.Equal(t, 1.0, x.Raw(0))
}

func TestNewStepper_Invalid(t *testing.T) {
	_, err := NewStepper(nil)
	assert.True(t, errors.Is(err, ErrInvalidTableau))

	tab := HeunEuler21()
	tab.B = []float64{1, 1}
	_, err = NewStepper(tab)
	assert.True(t, errors.Is(err, ErrInvalidTableau))
}
