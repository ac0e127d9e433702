package units

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Unit is a named scale of some dimension. Factor converts one unit into
// the canonical SI magnitude. Affine units (degrees Celsius) are not
// representable.
type Unit struct {
	Symbol string
	Factor float64
	Dim    Exponents
}

// Of builds a value of magnitude mag in unit u.
func (u Unit) Of(mag float64) Value {
	return Value{Mag: mag * u.Factor, Dim: u.Dim}
}

func unitOf[D Dimension](symbol string, factor float64) Unit {
	return Unit{Symbol: symbol, Factor: factor, Dim: ExponentsOf[D]()}
}

var registry = map[string]Unit{}

func init() {
	for _, u := range []Unit{
		unitOf[Dimensionless]("1", 1),
		unitOf[Dimensionless]("rad", 1),
		unitOf[Dimensionless]("deg", math.Pi/180),
		unitOf[Dimensionless]("%", 0.01),

		unitOf[Time]("s", 1),
		unitOf[Time]("ms", 1e-3),
		unitOf[Time]("us", 1e-6),
		unitOf[Time]("ns", 1e-9),
		unitOf[Time]("min", 60),
		unitOf[Time]("h", 3600),
		unitOf[Time]("d", 86400),

		unitOf[Length]("m", 1),
		unitOf[Length]("km", 1e3),
		unitOf[Length]("cm", 1e-2),
		unitOf[Length]("mm", 1e-3),
		unitOf[Length]("um", 1e-6),
		unitOf[Length]("nm", 1e-9),
		unitOf[Length]("au", 1.495978707e11),

		unitOf[Mass]("kg", 1),
		unitOf[Mass]("g", 1e-3),
		unitOf[Mass]("mg", 1e-6),
		unitOf[Mass]("t", 1e3),

		unitOf[Current]("A", 1),
		unitOf[Current]("mA", 1e-3),
		unitOf[Temperature]("K", 1),
		unitOf[Amount]("mol", 1),
		unitOf[Amount]("mmol", 1e-3),
		unitOf[Luminosity]("cd", 1),

		unitOf[Volume]("L", 1e-3),
		unitOf[Frequency]("Hz", 1),
		unitOf[Frequency]("kHz", 1e3),
		unitOf[Frequency]("rpm", 2*math.Pi/60),
		unitOf[Force]("N", 1),
		unitOf[Force]("kN", 1e3),
		unitOf[Energy]("J", 1),
		unitOf[Energy]("kJ", 1e3),
		unitOf[Power]("W", 1),
		unitOf[Power]("kW", 1e3),
		unitOf[Pressure]("Pa", 1),
		unitOf[Pressure]("kPa", 1e3),
		unitOf[Pressure]("bar", 1e5),
		unitOf[Concentration]("M", 1e3),
	} {
		registry[u.Symbol] = u
	}
}

// Lookup returns the registered unit with the given symbol.
func Lookup(symbol string) (Unit, error) {
	u, ok := registry[symbol]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, symbol)
	}
	return u, nil
}

// Symbols lists the registered unit symbols.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Canonical returns the SI unit of a dimension, e.g. "m/s" for velocity.
func Canonical(dim Exponents) Unit {
	return Unit{Symbol: dim.String(), Factor: 1, Dim: dim}
}

// ParseUnit parses a unit expression. Factors are registered symbols with
// an optional integer power ("s^2", "m^-1"), separated by spaces or '*'.
// A '/' divides by the single factor that follows it, so "kg m/s^2" is a
// force and "m/s/s" an acceleration.
func ParseUnit(expr string) (Unit, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return registry["1"], nil
	}
	if u, ok := registry[expr]; ok {
		return u, nil
	}

	out := Unit{Symbol: expr, Factor: 1}
	invert := false
	start := 0
	flush := func(end int) error {
		tok := strings.TrimSpace(expr[start:end])
		if tok == "" {
			return nil
		}
		f, dim, err := parseFactor(tok)
		if err != nil {
			return err
		}
		k := 1
		if invert {
			f, k = 1/f, -1
		}
		if out.Dim, err = out.Dim.Combine(dim, k); err != nil {
			return fmt.Errorf("%w in %q", err, expr)
		}
		out.Factor *= f
		invert = false
		return nil
	}
	for i, r := range expr {
		switch r {
		case ' ', '*', '/':
			if err := flush(i); err != nil {
				return Unit{}, err
			}
			if r == '/' {
				if invert {
					return Unit{}, fmt.Errorf("%w: repeated '/' in %q", ErrSyntax, expr)
				}
				invert = true
			}
			start = i + 1
		}
	}
	if err := flush(len(expr)); err != nil {
		return Unit{}, err
	}
	if invert {
		return Unit{}, fmt.Errorf("%w: dangling '/' in %q", ErrSyntax, expr)
	}
	return out, nil
}

func parseFactor(tok string) (float64, Exponents, error) {
	sym, pow := tok, 1
	if i := strings.IndexByte(tok, '^'); i >= 0 {
		p, err := strconv.Atoi(tok[i+1:])
		if err != nil || p < math.MinInt8 || p > math.MaxInt8 {
			return 0, Exponents{}, fmt.Errorf("%w: bad power in %q", ErrSyntax, tok)
		}
		sym, pow = tok[:i], p
	}
	u, err := Lookup(sym)
	if err != nil {
		return 0, Exponents{}, err
	}
	dim, err := Exponents{}.Combine(u.Dim, pow)
	if err != nil {
		return 0, Exponents{}, fmt.Errorf("%w in %q", err, tok)
	}
	return math.Pow(u.Factor, float64(pow)), dim, nil
}

// Parse reads "<number> [unit]", e.g. "9.81 m/s^2" or "1e-3". A bare
// number is dimensionless.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	num, rest := s, ""
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		num, rest = s[:i], s[i+1:]
	}
	mag, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q is not a quantity", ErrSyntax, s)
	}
	u, err := ParseUnit(rest)
	if err != nil {
		return Value{}, err
	}
	return u.Of(mag), nil
}

// ParseAs parses s and checks it against dimension D.
func ParseAs[D Dimension](s string) (Quantity[D], error) {
	v, err := Parse(s)
	if err != nil {
		return Quantity[D]{}, err
	}
	return As[D](v)
}

// From builds a typed quantity of magnitude mag in unit u.
func From[D Dimension](mag float64, u Unit) (Quantity[D], error) {
	return As[D](u.Of(mag))
}
