package units

import "math"

// Value is a magnitude whose dimension is only known at runtime.
type Value struct {
	Mag float64
	Dim Exponents
}

func (v Value) Add(o Value) (Value, error) {
	if v.Dim != o.Dim {
		return Value{}, mismatch("add", v.Dim, o.Dim)
	}
	return Value{Mag: v.Mag + o.Mag, Dim: v.Dim}, nil
}

func (v Value) Sub(o Value) (Value, error) {
	if v.Dim != o.Dim {
		return Value{}, mismatch("subtract", v.Dim, o.Dim)
	}
	return Value{Mag: v.Mag - o.Mag, Dim: v.Dim}, nil
}

func (v Value) Mul(o Value) (Value, error) {
	dim, err := v.Dim.Combine(o.Dim, 1)
	if err != nil {
		return Value{}, err
	}
	return Value{Mag: v.Mag * o.Mag, Dim: dim}, nil
}

func (v Value) Div(o Value) (Value, error) {
	dim, err := v.Dim.Combine(o.Dim, -1)
	if err != nil {
		return Value{}, err
	}
	return Value{Mag: v.Mag / o.Mag, Dim: dim}, nil
}

func (v Value) Scale(k float64) Value {
	return Value{Mag: v.Mag * k, Dim: v.Dim}
}

func (v Value) IsFinite() bool {
	return !math.IsNaN(v.Mag) && !math.IsInf(v.Mag, 0)
}

// In expresses v in unit u.
func (v Value) In(u Unit) (float64, error) {
	if v.Dim != u.Dim {
		return 0, mismatch("convert to "+u.Symbol, v.Dim, u.Dim)
	}
	return v.Mag / u.Factor, nil
}

func (v Value) String() string {
	return format(v.Mag, v.Dim)
}
