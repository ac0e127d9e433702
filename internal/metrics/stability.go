package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Stability is the fraction of observed points whose largest canonical
// magnitude stays within the threshold.
type Stability struct {
	threshold float64
	bad, seen int
	first     units.Quantity[units.Time]
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

// StabilityFactory returns a Factory for NewStability(threshold).
func StabilityFactory(threshold float64) Factory {
	return func(dynamo.System) Metric { return NewStability(threshold) }
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(t units.Quantity[units.Time], x dynamo.State) {
	s.seen++
	if x.Len() == 0 {
		return
	}
	if m := floats.Norm(x.RawValues(), math.Inf(1)); m > s.threshold || math.IsNaN(m) {
		if s.bad == 0 {
			s.first = t
		}
		s.bad++
	}
}

func (s *Stability) Value() float64 {
	if s.seen == 0 {
		return 1
	}
	return 1 - float64(s.bad)/float64(s.seen)
}

// FirstViolation is the time of the first point beyond the threshold.
func (s *Stability) FirstViolation() (units.Quantity[units.Time], bool) {
	return s.first, s.bad > 0
}

func (s *Stability) Reset() {
	*s = Stability{threshold: s.threshold}
}
