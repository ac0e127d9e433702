package dynamo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/finfoot/internal/units"
)

type oscillator struct {
	layout *Layout
	x      Field[units.Length, units.Velocity]
	v      Field[units.Velocity, units.Acceleration]
}

func newOscillator(t *testing.T) oscillator {
	t.Helper()
	b := NewLayoutBuilder()
	o := oscillator{
		x: Declare[units.Length, units.Velocity](b, "x"),
		v: Declare[units.Velocity, units.Acceleration](b, "v"),
	}
	l, err := b.Build()
	require.NoError(t, err)
	o.layout = l
	return o
}

func (o oscillator) state(t *testing.T, x, v float64) State {
	t.Helper()
	s, err := o.layout.FromRaw([]float64{x, v})
	require.NoError(t, err)
	return s
}

func TestState_IsValid(t *testing.T) {
	o := newOscillator(t)
	tests := []struct {
		name  string
		x, v  float64
		valid bool
	}{
		{"normal", 1.0, 2.0, true},
		{"zeros", 0.0, 0.0, true},
		{"with NaN", 1.0, math.NaN(), false},
		{"with +Inf", math.Inf(1), 1.0, false},
		{"with -Inf", 1.0, math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, o.state(t, tt.x, tt.v).IsValid())
		})
	}
}

func TestLayout_Build(t *testing.T) {
	o := newOscillator(t)
	assert.Equal(t, 2, o.layout.Len())
	assert.Equal(t, []string{"x", "v"}, o.layout.Names())
	assert.Equal(t, "m", o.layout.Component(0).Unit().Symbol)

	rate := o.layout.Rate()
	require.NotNil(t, rate)
	assert.Same(t, o.layout, rate.Integral())
	assert.Nil(t, rate.Rate())
	assert.Equal(t, units.ExponentsOf[units.Velocity](), rate.Component(0).Dim)
	assert.Equal(t, units.ExponentsOf[units.Acceleration](), rate.Component(1).Dim)
	assert.Equal(t, "dx/dt", rate.Component(0).Name)

	i, ok := o.layout.Index("v")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestLayout_BuildRejectsWrongRate(t *testing.T) {
	b := NewLayoutBuilder()
	Declare[units.Length, units.Acceleration](b, "x")
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLayout_BuildRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *LayoutBuilder)
	}{
		{"empty", func(b *LayoutBuilder) {}},
		{"no name", func(b *LayoutBuilder) { Declare[units.Length, units.Velocity](b, "") }},
		{"duplicate", func(b *LayoutBuilder) {
			Declare[units.Length, units.Velocity](b, "x")
			Declare[units.Length, units.Velocity](b, "x")
		}},
		{"empty vector", func(b *LayoutBuilder) { DeclareVector[units.Length, units.Velocity](b, "q", 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLayoutBuilder()
			tt.build(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestFields(t *testing.T) {
	o := newOscillator(t)
	s := o.layout.Zero()
	o.x.Set(s, units.New[units.Length](2))
	o.v.Set(s, units.New[units.Velocity](-1))
	assert.Equal(t, 2.0, o.x.Get(s).Value())
	assert.Equal(t, -1.0, o.v.Get(s).Value())

	dx := o.layout.Rate().Zero()
	o.x.SetRate(dx, o.v.Get(s))
	o.v.SetRate(dx, units.New[units.Acceleration](-4))
	assert.Equal(t, -1.0, o.x.Rate(dx).Value())
	assert.Equal(t, -4.0, o.v.Rate(dx).Value())
}

func TestVectorField(t *testing.T) {
	b := NewLayoutBuilder()
	q := DeclareVector[units.Length, units.Velocity](b, "q", 3)
	p := DeclareVector[units.Velocity, units.Acceleration](b, "p", 3)
	l := b.MustBuild()

	assert.Equal(t, 6, l.Len())
	assert.Equal(t, "p[1]", l.Component(4).Name)

	s := l.Zero()
	for i := 0; i < q.Len(); i++ {
		q.Set(s, i, units.New[units.Length](float64(i)))
		p.Set(s, i, units.New[units.Velocity](float64(10+i)))
	}
	assert.Equal(t, []float64{0, 1, 2}, q.Raw(s))
	assert.Equal(t, 12.0, p.At(s, 2).Value())

	dx := l.Rate().Zero()
	p.SetRate(dx, 1, units.New[units.Acceleration](3))
	assert.Equal(t, 3.0, p.RateAt(dx, 1).Value())
}

func TestLayout_New(t *testing.T) {
	o := newOscillator(t)
	s, err := o.layout.New(units.New[units.Length](1).Dynamic(), units.New[units.Velocity](2).Dynamic())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.RawValues())

	_, err = o.layout.New(units.New[units.Time](1).Dynamic(), units.New[units.Velocity](2).Dynamic())
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = o.layout.New(units.New[units.Length](1).Dynamic())
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = o.layout.FromRaw([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestState_With(t *testing.T) {
	o := newOscillator(t)
	s := o.state(t, 1, 2)

	s2, err := s.With(0, units.New[units.Length](5).Dynamic())
	require.NoError(t, err)
	assert.Equal(t, 5.0, s2.Raw(0))
	assert.Equal(t, 1.0, s.Raw(0), "With must not modify the receiver")

	_, err = s.With(1, units.New[units.Length](5).Dynamic())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLinearCombination(t *testing.T) {
	o := newOscillator(t)
	a := o.state(t, 1, 2)
	b := o.state(t, 4, 6)

	sum, err := LinearCombination([]float64{1, 1}, []State{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 8}, sum.RawValues())

	diff, err := Sub(b, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, diff.RawValues())

	scaled, err := LinearCombination([]float64{2}, []State{a})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, scaled.RawValues())
	assert.Equal(t, []float64{1, 2}, a.RawValues())
}

func TestLinearCombination_Idempotent(t *testing.T) {
	o := newOscillator(t)
	v := o.state(t, 0.3, -7.25)

	weightSets := [][]float64{
		{1},
		{0.5, 0.5},
		{0.25, 0.25, 0.5},
		{2, -1},
		{0.1, 0.2, 0.3, 0.4},
	}
	for _, w := range weightSets {
		vs := make([]State, len(w))
		for i := range vs {
			vs[i] = v
		}
		got, err := LinearCombination(w, vs)
		require.NoError(t, err)
		for i := 0; i < v.Len(); i++ {
			assert.InDelta(t, v.Raw(i), got.Raw(i), 1e-14, "weights %v", w)
		}
	}
}

func TestLinearCombination_LayoutMismatch(t *testing.T) {
	a := newOscillator(t)
	b := newOscillator(t)

	_, err := LinearCombination([]float64{1, 1}, []State{a.state(t, 1, 1), b.state(t, 1, 1)})
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = LinearCombination([]float64{1}, []State{a.state(t, 1, 1), a.state(t, 1, 1)})
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = LinearCombination(nil, nil)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestAddScaledRates(t *testing.T) {
	o := newOscillator(t)
	s := o.state(t, 1, 0)

	k1 := o.layout.Rate().Zero()
	o.x.SetRate(k1, units.New[units.Velocity](2))
	k2 := o.layout.Rate().Zero()
	o.v.SetRate(k2, units.New[units.Acceleration](-4))

	out, err := s.AddScaledRates(units.Seconds(0.5), []float64{1, 0.5}, []State{k1, k2})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -1}, out.RawValues())
	assert.Equal(t, []float64{1, 0}, s.RawValues())

	delta, err := ScaledRateSum(units.Seconds(0.5), []float64{1, 0.5}, []State{k1, k2})
	require.NoError(t, err)
	assert.Same(t, o.layout, delta.Layout())
	assert.Equal(t, []float64{1, -1}, delta.RawValues())

	_, err = s.AddScaledRates(units.Seconds(1), []float64{1}, []State{s})
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	_, err = ScaledRateSum(units.Seconds(1), []float64{1}, []State{s})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestNewSystem(t *testing.T) {
	o := newOscillator(t)
	sys := NewSystem(o.layout, func(_ units.Quantity[units.Time], s State) State {
		dx := o.layout.Rate().Zero()
		o.x.SetRate(dx, o.v.Get(s))
		o.v.SetRate(dx, units.Mul[units.Acceleration](units.New[units.AngularAcceleration](4), o.x.Get(s)).Neg())
		return dx
	})
	assert.Same(t, o.layout, sys.Layout())

	dx := sys.Derive(units.Seconds(0), o.state(t, 1, 3))
	assert.Same(t, o.layout.Rate(), dx.Layout())
	assert.Equal(t, []float64{3, -4}, dx.RawValues())
}
