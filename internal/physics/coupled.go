package physics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Coupled is a bank of oscillators in which every pair is joined by a
// spring of strength K per unit mass.
type Coupled struct {
	params
	layout *dynamo.Layout
	x      dynamo.VectorField[units.Length, units.Velocity]
	v      dynamo.VectorField[units.Velocity, units.Acceleration]
	n      int

	K units.Quantity[units.AngularAcceleration]
}

// DefaultCoupled is the size of the catalogued bank.
const DefaultCoupled = 100

func NewCoupled(n int) *Coupled {
	b := dynamo.NewLayoutBuilder()
	c := &Coupled{
		x: dynamo.DeclareVector[units.Length, units.Velocity](b, "x", n),
		v: dynamo.DeclareVector[units.Velocity, units.Acceleration](b, "v", n),
		n: n,
		K: units.New[units.AngularAcceleration](1),
	}
	c.layout = b.MustBuild()
	c.params = params{"k": quantityParam(&c.K, false)}
	return c
}

func (c *Coupled) Name() string           { return "coupled_oscillators" }
func (c *Coupled) Layout() *dynamo.Layout { return c.layout }

func (c *Coupled) Derive(_ units.Quantity[units.Time], s dynamo.State) dynamo.State {
	dx := c.layout.Rate().Zero()
	pos := c.x.Raw(s)
	total := floats.Sum(pos)
	n := float64(c.n)
	for i := 0; i < c.n; i++ {
		// sum over j of (x_i - x_j)
		spread := units.New[units.Length](n*pos[i] - total)
		c.x.SetRate(dx, i, c.v.At(s, i))
		c.v.SetRate(dx, i, units.Mul[units.Acceleration](c.K, spread).Neg())
	}
	return dx
}

func (c *Coupled) Initial() dynamo.State {
	s := c.layout.Zero()
	for i := 0; i < c.n; i++ {
		c.x.Set(s, i, units.New[units.Length](math.Sin(float64(i))))
		c.v.Set(s, i, units.New[units.Velocity](math.Cos(float64(i))))
	}
	return s
}

func (c *Coupled) Span() (units.Quantity[units.Time], units.Quantity[units.Time]) {
	return span(0, 10)
}

func (c *Coupled) Reference() (Reference, bool) {
	if c.n != DefaultCoupled || c.K.Value() != 1 {
		return Reference{}, false
	}
	return Reference{
		Time:  units.Seconds(10),
		State: append([]float64(nil), coupledReference[:]...),
		Rel:   2e-4,
		Abs:   1e-5,
	}, true
}

// coupledReference is the state of the default bank at t = 10 s,
// positions then velocities.
var coupledReference = [2 * DefaultCoupled]float64{
	-8.97722333e-02, 6.59104964e-01, 7.66020429e-01, 1.32676575e-01,
	-6.58633178e-01, -8.80382293e-01, -3.28695657e-01, 4.89208582e-01,
	8.21353038e-01, 3.62365631e-01, -4.65762735e-01, -9.01654658e-01,
	-5.44553115e-01, 2.77224382e-01, 8.08139393e-01, 5.60071104e-01,
	-2.38907643e-01, -8.54219474e-01, -7.20149528e-01, 4.00389043e-02,
	7.27432084e-01, 7.10043892e-01, 3.86095190e-03, -7.41855398e-01,
	-8.41496985e-01, -2.03453793e-01, 5.85660210e-01, 8.00337248e-01,
	2.43204243e-01, -5.73513290e-01, -8.98929017e-01, -4.33857220e-01,
	3.94117236e-01, 8.23758454e-01, 4.60056280e-01, -3.62603184e-01,
	-8.87870622e-01, -6.32817573e-01, 1.68061366e-01, 7.78441792e-01,
	6.37142756e-01, -1.25926060e-01, -8.09202705e-01, -7.84485783e-01,
	-7.44999186e-02, 6.67997159e-01, 7.60357061e-01, 1.17664519e-01,
	-6.69191908e-01, -8.76780049e-01, -3.14244325e-01, 5.01222514e-01,
	8.19884017e-01, 3.48764268e-01, -4.78991409e-01, -9.02348262e-01,
	-5.32073952e-01, 2.91403027e-01, 8.10981738e-01, 5.48963911e-01,
	-2.53752472e-01, -8.59153672e-01, -7.10636616e-01, 5.52527991e-02,
	7.34359377e-01, 7.02315662e-01, -1.14175021e-02, -7.50637136e-01,
	-8.35708117e-01, -1.88416578e-01, 5.96120626e-01, 7.96603607e-01,
	2.28709237e-01, -5.85443019e-01, -8.97325331e-01, -4.20194541e-01,
	4.07277504e-01, 8.24316822e-01, 4.47499387e-01, -3.76730589e-01,
	-8.90579867e-01, -6.21617791e-01, 1.82873147e-01, 7.83247689e-01,
	6.27524249e-01, -1.41125760e-01, -8.16009064e-01, -7.76641066e-01,
	-5.92165222e-02, 6.76667751e-01, 7.54443146e-01, 1.02603324e-01,
	-6.79553190e-01, -8.72915303e-01, -2.99706781e-01, 5.13067105e-01,
	8.18145792e-01, 3.35041343e-01, -4.92082241e-01, -9.02771350e-01,
	8.42557161e-01, 4.70684936e+00, 4.22553393e+00, -1.58869945e-01,
	-4.41536156e+00, -4.63054215e+00, -6.06575682e-01, 3.95692164e+00,
	4.86429142e+00, 1.28130206e+00, -3.49786253e+00, -5.07926048e+00,
	-2.00896181e+00, 2.89021506e+00, 5.11398949e+00, 2.61783353e+00,
	-2.30329853e+00, -5.12494059e+00, -3.25288793e+00, 1.59170285e+00,
	4.95473734e+00, 3.74425713e+00, -9.26827846e-01, -4.76394361e+00,
	-4.23926363e+00, 1.64823752e-01, 4.39922090e+00, 4.57084261e+00,
	5.21900664e-01, -4.02502638e+00, -4.88951476e+00, -1.27675786e+00,
	3.49169229e+00, 5.03174462e+00, 1.92748211e+00, -2.96705060e+00,
	-5.15184271e+00, -2.61820643e+00, 2.30444473e+00, 5.09024800e+00,
	3.17794869e+00, -1.67429402e+00, -5.00535057e+00, -3.75266292e+00,
	9.32053671e-01, 4.74169238e+00, 4.17368895e+00, -2.49736890e-01,
	-4.46170782e+00, -4.58975719e+00, -5.16157003e-01, 4.01384352e+00,
	4.83538278e+00, 1.19314138e+00, -3.56422074e+00, -5.06280679e+00,
	-1.92482366e+00, 2.96468143e+00, 5.11032005e+00, 2.53940195e+00,
	-2.38438263e+00, -5.13412885e+00, -3.18173271e+00, 1.67778177e+00,
	4.97659939e+00, 3.68180245e+00, -1.01617872e+00, -4.79804190e+00,
	-4.18675952e+00, 2.55658218e-01, 4.44487293e+00, 4.52933994e+00,
	4.31400656e-01, -4.08131843e+00, -4.85984421e+00, -1.18840367e+00,
	3.55749769e+00, 5.01450005e+00, 1.84304215e+00, -3.04105224e+00,
	-5.14736925e+00, -2.53937075e+00, 2.38516147e+00, 5.09863521e+00,
	3.10629521e+00, -1.76011031e+00, -5.02643056e+00, -3.68962577e+00,
	1.02125190e+00, 4.77504325e+00, 4.12052982e+00, -3.40531760e-01,
	-4.50666205e+00, -4.54754007e+00, -4.25582756e-01, 4.06950134e+00,
	4.80495264e+00, 1.10460060e+00, -3.62946817e+00, -5.04477268e+00,
}
