package dynamo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/finfoot/internal/units"
)

// Component is one named, dimensioned slot of a state vector.
type Component struct {
	Name string
	Dim  units.Exponents
}

// Unit returns the canonical SI unit of the component.
func (c Component) Unit() units.Unit {
	return units.Canonical(c.Dim)
}

// Layout fixes the length and per-component dimensions of every state in a
// run. Layouts are immutable and compared by identity: two states can be
// combined only if they point at the same Layout.
type Layout struct {
	comps []Component
	index map[string]int

	rate     *Layout // layout of d/dt, nil on rate layouts
	integral *Layout // inverse of rate
}

func (l *Layout) Len() int { return len(l.comps) }

func (l *Layout) Component(i int) Component { return l.comps[i] }

func (l *Layout) Components() []Component {
	out := make([]Component, len(l.comps))
	copy(out, l.comps)
	return out
}

func (l *Layout) Names() []string {
	out := make([]string, len(l.comps))
	for i, c := range l.comps {
		out[i] = c.Name
	}
	return out
}

func (l *Layout) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Rate is the layout of time derivatives of states on l. It is nil when l
// is itself a rate layout.
func (l *Layout) Rate() *Layout { return l.rate }

// Integral is the state layout whose derivatives live on l, or nil.
func (l *Layout) Integral() *Layout { return l.integral }

// Zero allocates a state of zeros.
func (l *Layout) Zero() State {
	return State{layout: l, vec: mat.NewVecDense(len(l.comps), nil)}
}

// FromRaw builds a state from canonical SI magnitudes.
func (l *Layout) FromRaw(raw []float64) (State, error) {
	if len(raw) != len(l.comps) {
		return State{}, fmt.Errorf("%w: %d values for %d components", ErrLayoutMismatch, len(raw), len(l.comps))
	}
	data := make([]float64, len(raw))
	copy(data, raw)
	return State{layout: l, vec: mat.NewVecDense(len(data), data)}, nil
}

// New builds a state from dimensioned values, one per component.
func (l *Layout) New(values ...units.Value) (State, error) {
	if len(values) != len(l.comps) {
		return State{}, fmt.Errorf("%w: %d values for %d components", ErrLayoutMismatch, len(values), len(l.comps))
	}
	data := make([]float64, len(values))
	for i, v := range values {
		if v.Dim != l.comps[i].Dim {
			return State{}, fmt.Errorf("component %q: %w", l.comps[i].Name,
				&units.MismatchError{Op: "assign", Left: l.comps[i].Dim, Right: v.Dim})
		}
		data[i] = v.Mag
	}
	return State{layout: l, vec: mat.NewVecDense(len(data), data)}, nil
}

// LayoutBuilder collects component declarations.
type LayoutBuilder struct {
	comps []Component
	errs  []error
}

func NewLayoutBuilder() *LayoutBuilder {
	return &LayoutBuilder{}
}

func (b *LayoutBuilder) add(name string, dim units.Exponents) int {
	b.comps = append(b.comps, Component{Name: name, Dim: dim})
	return len(b.comps) - 1
}

func (b *LayoutBuilder) fail(err error) {
	b.errs = append(b.errs, err)
}

// Build validates the declarations and returns the layout.
func (b *LayoutBuilder) Build() (*Layout, error) {
	if len(b.comps) == 0 {
		b.fail(fmt.Errorf("%w: no components", ErrInvalidLayout))
	}
	index := make(map[string]int, len(b.comps))
	for i, c := range b.comps {
		if c.Name == "" {
			b.fail(fmt.Errorf("%w: component %d has no name", ErrInvalidLayout, i))
			continue
		}
		if _, dup := index[c.Name]; dup {
			b.fail(fmt.Errorf("%w: duplicate component %q", ErrInvalidLayout, c.Name))
			continue
		}
		index[c.Name] = i
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	state := &Layout{comps: make([]Component, len(b.comps)), index: index}
	copy(state.comps, b.comps)

	perTime := units.ExponentsOf[units.Time]()
	rate := &Layout{comps: make([]Component, len(b.comps)), index: make(map[string]int, len(b.comps))}
	for i, c := range b.comps {
		name := "d" + c.Name + "/dt"
		rate.comps[i] = Component{Name: name, Dim: c.Dim.Sub(perTime)}
		rate.index[name] = i
	}
	state.rate = rate
	rate.integral = state
	return state, nil
}

// MustBuild is Build for layouts fixed at compile time; it panics on error.
func (b *LayoutBuilder) MustBuild() *Layout {
	l, err := b.Build()
	if err != nil {
		panic(err)
	}
	return l
}

func checkRate[D, R units.Dimension](name string) error {
	want := units.ExponentsOf[D]().Sub(units.ExponentsOf[units.Time]())
	if got := units.ExponentsOf[R](); got != want {
		return fmt.Errorf("component %q: rate [%s] is not [%s] per second: %w",
			name, got, units.ExponentsOf[D](), ErrDimensionMismatch)
	}
	return nil
}

// Field is a typed handle on one component: D is its dimension and R the
// dimension of its time derivative.
type Field[D, R units.Dimension] struct {
	name  string
	index int
}

// Declare appends a component. Build fails if R is not D per unit time.
func Declare[D, R units.Dimension](b *LayoutBuilder, name string) Field[D, R] {
	if err := checkRate[D, R](name); err != nil {
		b.fail(err)
	}
	return Field[D, R]{name: name, index: b.add(name, units.ExponentsOf[D]())}
}

func (f Field[D, R]) Name() string { return f.name }
func (f Field[D, R]) Index() int   { return f.index }

func (f Field[D, R]) Get(s State) units.Quantity[D] {
	return units.New[D](s.vec.AtVec(f.index))
}

// Set writes into s in place. Only use it on states the caller has just
// allocated and not yet handed to the integrator.
func (f Field[D, R]) Set(s State, q units.Quantity[D]) {
	s.vec.SetVec(f.index, q.Value())
}

func (f Field[D, R]) Rate(dx State) units.Quantity[R] {
	return units.New[R](dx.vec.AtVec(f.index))
}

func (f Field[D, R]) SetRate(dx State, q units.Quantity[R]) {
	dx.vec.SetVec(f.index, q.Value())
}

// VectorField is a typed handle on n contiguous components of one dimension.
type VectorField[D, R units.Dimension] struct {
	name   string
	offset int
	n      int
}

// DeclareVector appends n components named name[0] .. name[n-1].
func DeclareVector[D, R units.Dimension](b *LayoutBuilder, name string, n int) VectorField[D, R] {
	if err := checkRate[D, R](name); err != nil {
		b.fail(err)
	}
	if n <= 0 {
		b.fail(fmt.Errorf("%w: vector %q has length %d", ErrInvalidLayout, name, n))
	}
	f := VectorField[D, R]{name: name, offset: len(b.comps), n: n}
	dim := units.ExponentsOf[D]()
	for i := 0; i < n; i++ {
		b.add(fmt.Sprintf("%s[%d]", name, i), dim)
	}
	return f
}

func (f VectorField[D, R]) Name() string { return f.name }
func (f VectorField[D, R]) Len() int     { return f.n }

func (f VectorField[D, R]) At(s State, i int) units.Quantity[D] {
	return units.New[D](s.vec.AtVec(f.offset + i))
}

func (f VectorField[D, R]) Set(s State, i int, q units.Quantity[D]) {
	s.vec.SetVec(f.offset+i, q.Value())
}

func (f VectorField[D, R]) RateAt(dx State, i int) units.Quantity[R] {
	return units.New[R](dx.vec.AtVec(f.offset + i))
}

func (f VectorField[D, R]) SetRate(dx State, i int, q units.Quantity[R]) {
	dx.vec.SetVec(f.offset+i, q.Value())
}

// Raw exposes the block as canonical magnitudes for bulk kernels. The
// slice aliases s.
func (f VectorField[D, R]) Raw(s State) []float64 {
	return s.vec.RawVector().Data[f.offset : f.offset+f.n]
}
