package metrics

import (
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// ReferenceError compares the last observed state with a known end state.
// The value is the largest per-component error relative to
// max(|reference|, floor).
type ReferenceError struct {
	reference []float64
	floor     float64
	last      dynamo.State
}

func NewReferenceError(reference []float64, floor float64) *ReferenceError {
	return &ReferenceError{reference: reference, floor: floor}
}

func (r *ReferenceError) Name() string { return "reference_error" }

func (r *ReferenceError) Observe(_ units.Quantity[units.Time], x dynamo.State) {
	r.last = x
}

func (r *ReferenceError) Value() float64 {
	if r.last.IsZero() || r.last.Len() != len(r.reference) {
		return math.NaN()
	}
	var worst float64
	for i, ref := range r.reference {
		err := math.Abs(r.last.Raw(i)-ref) / math.Max(math.Abs(ref), r.floor)
		worst = math.Max(worst, err)
	}
	return worst
}

func (r *ReferenceError) Reset() { r.last = dynamo.State{} }
