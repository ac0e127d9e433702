package units

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates arithmetic or conversion between incompatible dimensions.
	ErrDimensionMismatch = errors.New("units: dimension mismatch")

	// ErrUnknownUnit indicates a unit symbol missing from the registry.
	ErrUnknownUnit = errors.New("units: unknown unit")

	// ErrSyntax indicates a malformed quantity or unit expression.
	ErrSyntax = errors.New("units: invalid syntax")

	// ErrOverflow indicates a dimension exponent outside the int8 range.
	ErrOverflow = errors.New("units: exponent out of range")
)

// MismatchError describes which operation saw which pair of dimensions.
type MismatchError struct {
	Op    string
	Left  Exponents
	Right Exponents
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("units: %s: dimension mismatch [%s] vs [%s]", e.Op, e.Left, e.Right)
}

func (e *MismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

func mismatch(op string, left, right Exponents) error {
	return &MismatchError{Op: op, Left: left, Right: right}
}
