package units

import (
	"math"
	"strconv"
)

// Quantity is a magnitude in the canonical SI unit of D.
type Quantity[D Dimension] struct {
	v float64
}

// New wraps a magnitude already expressed in the canonical unit of D.
func New[D Dimension](v float64) Quantity[D] {
	return Quantity[D]{v: v}
}

// Scalar is shorthand for a dimensionless quantity.
func Scalar(v float64) Quantity[Dimensionless] {
	return Quantity[Dimensionless]{v: v}
}

// Seconds is shorthand for a time quantity.
func Seconds(v float64) Quantity[Time] {
	return Quantity[Time]{v: v}
}

func (q Quantity[D]) Value() float64 { return q.v }

func (q Quantity[D]) Add(o Quantity[D]) Quantity[D] { return Quantity[D]{v: q.v + o.v} }
func (q Quantity[D]) Sub(o Quantity[D]) Quantity[D] { return Quantity[D]{v: q.v - o.v} }

// Scale multiplies by a dimensionless factor.
func (q Quantity[D]) Scale(k float64) Quantity[D] { return Quantity[D]{v: q.v * k} }

func (q Quantity[D]) Neg() Quantity[D] { return Quantity[D]{v: -q.v} }
func (q Quantity[D]) Abs() Quantity[D] { return Quantity[D]{v: math.Abs(q.v)} }

func (q Quantity[D]) Less(o Quantity[D]) bool { return q.v < o.v }

func (q Quantity[D]) IsZero() bool { return q.v == 0 }

func (q Quantity[D]) IsFinite() bool {
	return !math.IsNaN(q.v) && !math.IsInf(q.v, 0)
}

// Sign returns -1, 0 or +1.
func (q Quantity[D]) Sign() float64 {
	switch {
	case q.v > 0:
		return 1
	case q.v < 0:
		return -1
	}
	return 0
}

func (q Quantity[D]) Dim() Exponents {
	var d D
	return d.Exponents()
}

// Dynamic drops the static dimension into a runtime-tagged Value.
func (q Quantity[D]) Dynamic() Value {
	return Value{Mag: q.v, Dim: q.Dim()}
}

// In expresses q in unit u.
func (q Quantity[D]) In(u Unit) (float64, error) {
	return q.Dynamic().In(u)
}

func (q Quantity[D]) String() string {
	return format(q.v, q.Dim())
}

// Ratio divides two quantities of the same dimension.
func Ratio[D Dimension](a, b Quantity[D]) float64 {
	return a.v / b.v
}

func Min[D Dimension](a, b Quantity[D]) Quantity[D] {
	if b.v < a.v {
		return b
	}
	return a
}

func Max[D Dimension](a, b Quantity[D]) Quantity[D] {
	if b.v > a.v {
		return b
	}
	return a
}

// Mul multiplies a and b into the caller-named dimension R.
// It panics with a *MismatchError if R is not the product of A and B.
func Mul[R, A, B Dimension](a Quantity[A], b Quantity[B]) Quantity[R] {
	want := a.Dim().Add(b.Dim())
	if got := ExponentsOf[R](); got != want {
		panic(mismatch("multiply", got, want))
	}
	return Quantity[R]{v: a.v * b.v}
}

// Div divides a by b into the caller-named dimension R.
// It panics with a *MismatchError if R is not the quotient of A and B.
func Div[R, A, B Dimension](a Quantity[A], b Quantity[B]) Quantity[R] {
	want := a.Dim().Sub(b.Dim())
	if got := ExponentsOf[R](); got != want {
		panic(mismatch("divide", got, want))
	}
	return Quantity[R]{v: a.v / b.v}
}

// Sqrt takes the square root of a into R, which must have half the exponents of A.
func Sqrt[R, A Dimension](a Quantity[A]) Quantity[R] {
	if got, want := ExponentsOf[R]().Mul(2), a.Dim(); got != want {
		panic(mismatch("sqrt", got, want))
	}
	return Quantity[R]{v: math.Sqrt(a.v)}
}

// As converts a runtime Value into a typed Quantity.
func As[D Dimension](v Value) (Quantity[D], error) {
	if want := ExponentsOf[D](); v.Dim != want {
		return Quantity[D]{}, mismatch("convert", v.Dim, want)
	}
	return Quantity[D]{v: v.Mag}, nil
}

func format(v float64, dim Exponents) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if dim.IsZero() {
		return s
	}
	return s + " " + dim.String()
}
