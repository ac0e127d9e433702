package dynamo

import (
	"errors"
	"fmt"

	"github.com/san-kum/finfoot/internal/units"
)

// Domain errors for integration runs.
var (
	// ErrNonFinite indicates a NaN or Inf in a state or derivative.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrRejectionExhausted indicates the tolerance could not be met before
	// the consecutive-rejection limit was reached.
	ErrRejectionExhausted = errors.New("dynamo: step rejections exhausted")

	// ErrMaxSteps indicates the step budget ran out before the final time.
	ErrMaxSteps = errors.New("dynamo: maximum number of steps exceeded")

	// ErrDimensionMismatch indicates a component declared or supplied with the wrong dimension.
	ErrDimensionMismatch = units.ErrDimensionMismatch

	// ErrLayoutMismatch indicates states from different layouts were combined.
	ErrLayoutMismatch = errors.New("dynamo: state layout mismatch")

	// ErrInvalidLayout indicates a malformed layout declaration.
	ErrInvalidLayout = errors.New("dynamo: invalid layout")

	// ErrUnknownComponent indicates a component name absent from the layout.
	ErrUnknownComponent = errors.New("dynamo: unknown component")

	// ErrInvalidTolerance indicates tolerances that cannot scale an error estimate.
	ErrInvalidTolerance = errors.New("dynamo: invalid tolerance")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// SimulationError wraps a terminal condition with run context.
type SimulationError struct {
	Step    int
	Time    units.Quantity[units.Time]
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%s): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
