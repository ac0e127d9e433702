// Package metrics derives scalar figures of merit from a finished
// trajectory.
package metrics

import (
	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/units"
)

// Metric accumulates over the points of one trajectory.
type Metric interface {
	Name() string
	Observe(t units.Quantity[units.Time], x dynamo.State)
	Value() float64
	Reset()
}

// Factory builds a fresh metric for sys, or returns nil when the metric
// does not apply to it.
type Factory func(sys dynamo.System) Metric

// Observe feeds every point of tr to each metric and returns their values
// by name.
func Observe(tr *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i := 0; i < tr.Len(); i++ {
		p := tr.At(i)
		for _, m := range ms {
			m.Observe(p.Time, p.State)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// Build instantiates the applicable factories for sys.
func Build(sys dynamo.System, fs ...Factory) []Metric {
	var out []Metric
	for _, f := range fs {
		if m := f(sys); m != nil {
			out = append(out, m)
		}
	}
	return out
}
