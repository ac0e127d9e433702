package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Base dimension indices into Exponents.
const (
	BaseTime = iota
	BaseLength
	BaseMass
	BaseCurrent
	BaseTemperature
	BaseAmount
	BaseLuminosity

	numBase
)

// Exponents is the power of each SI base dimension.
type Exponents [numBase]int8

var baseSymbols = [numBase]string{
	BaseTime:        "s",
	BaseLength:      "m",
	BaseMass:        "kg",
	BaseCurrent:     "A",
	BaseTemperature: "K",
	BaseAmount:      "mol",
	BaseLuminosity:  "cd",
}

// printing order follows the usual "kg m/s^2" convention
var symbolOrder = [numBase]int{BaseMass, BaseLength, BaseTime, BaseCurrent, BaseTemperature, BaseAmount, BaseLuminosity}

// Add, Sub and Mul wrap outside the int8 range; they serve the fixed
// dimensions of the type layer. Runtime-sourced exponents go through
// Combine.
func (e Exponents) Add(o Exponents) Exponents {
	for i := range e {
		e[i] += o[i]
	}
	return e
}

func (e Exponents) Sub(o Exponents) Exponents {
	for i := range e {
		e[i] -= o[i]
	}
	return e
}

func (e Exponents) Mul(n int8) Exponents {
	for i := range e {
		e[i] *= n
	}
	return e
}

// Combine returns e + k*o, or ErrOverflow when a power leaves the int8
// range.
func (e Exponents) Combine(o Exponents, k int) (Exponents, error) {
	out := e
	for i := range e {
		v := int(e[i]) + k*int(o[i])
		if v < math.MinInt8 || v > math.MaxInt8 {
			return e, fmt.Errorf("%w: [%s] + %d*[%s]", ErrOverflow, e, k, o)
		}
		out[i] = int8(v)
	}
	return out, nil
}

func (e Exponents) IsZero() bool {
	return e == Exponents{}
}

// String renders the canonical SI symbol of the dimension, e.g. "kg m/s^2".
// Dimensionless exponents render as "1".
func (e Exponents) String() string {
	var num, den []string
	for _, b := range symbolOrder {
		p := e[b]
		switch {
		case p > 0:
			num = append(num, powSymbol(baseSymbols[b], p))
		case p < 0:
			den = append(den, powSymbol(baseSymbols[b], -p))
		}
	}
	var sb strings.Builder
	if len(num) == 0 {
		sb.WriteString("1")
	} else {
		sb.WriteString(strings.Join(num, " "))
	}
	for _, d := range den {
		sb.WriteByte('/')
		sb.WriteString(d)
	}
	return sb.String()
}

func powSymbol(sym string, p int8) string {
	if p == 1 {
		return sym
	}
	return sym + "^" + strconv.Itoa(int(p))
}
