package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/finfoot/internal/dynamo"
	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/units"
)

var (
	ErrInvalidOptions = errors.New("analysis: invalid options")

	// ErrCollapsed is returned when the twin trajectories coincide or
	// their separation stops being finite.
	ErrCollapsed = errors.New("analysis: separation collapsed")
)

type LyapunovOptions struct {
	// Perturbation is the scaled separation the twin is held at.
	Perturbation float64
	// Segments is the number of renormalization intervals over the span.
	Segments int
}

func DefaultLyapunovOptions() LyapunovOptions {
	return LyapunovOptions{Perturbation: 1e-7, Segments: 100}
}

func (o LyapunovOptions) validate() error {
	switch {
	case !(o.Perturbation > 0) || math.IsInf(o.Perturbation, 0):
		return fmt.Errorf("%w: perturbation %g", ErrInvalidOptions, o.Perturbation)
	case o.Segments < 1:
		return fmt.Errorf("%w: %d segments", ErrInvalidOptions, o.Segments)
	}
	return nil
}

// LyapunovEstimate is the running estimate after each segment.
type LyapunovEstimate struct {
	// Exponent is in 1/s.
	Exponent float64
	Times    []float64
	Running  []float64
	Stats    dynamo.Stats
}

// Lyapunov estimates the largest Lyapunov exponent of p's system along
// the trajectory from p.Y0. Separations are measured on magnitudes
// scaled per component by max(|y0|, 1) so that mixed dimensions
// contribute comparably.
func Lyapunov(ctx context.Context, d *integrators.Driver, p integrators.Problem, opts LyapunovOptions) (*LyapunovEstimate, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if p.System == nil || p.Y0.IsZero() {
		return nil, fmt.Errorf("%w: no system or initial state", integrators.ErrInvalidProblem)
	}
	span := p.TEnd.Sub(p.T0)
	if span.IsZero() {
		return nil, fmt.Errorf("%w: empty time span", integrators.ErrInvalidProblem)
	}

	scale := make([]float64, p.Y0.Len())
	for i := range scale {
		scale[i] = math.Max(math.Abs(p.Y0.Raw(i)), 1)
	}
	x := p.Y0
	twin, err := displace(x, x.RawValues(), scale, opts.Perturbation/math.Sqrt(float64(len(scale))))
	if err != nil {
		return nil, err
	}

	est := &LyapunovEstimate{
		Times:   make([]float64, 0, opts.Segments),
		Running: make([]float64, 0, opts.Segments),
	}
	seg := span.Scale(1 / float64(opts.Segments))
	t := p.T0
	var sum float64
	for k := 1; k <= opts.Segments; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := p.T0.Add(seg.Scale(float64(k)))
		if k == opts.Segments {
			next = p.TEnd
		}
		if x, err = advance(d, p.System, t, next, x, &est.Stats); err != nil {
			return nil, err
		}
		if twin, err = advance(d, p.System, t, next, twin, &est.Stats); err != nil {
			return nil, err
		}
		t = next

		base := x.RawValues()
		dist := separation(base, twin.RawValues(), scale)
		if !(dist > 0) || math.IsInf(dist, 0) {
			return nil, fmt.Errorf("%w: separation %g at t = %s", ErrCollapsed, dist, t)
		}
		sum += math.Log(dist / opts.Perturbation)
		elapsed := t.Sub(p.T0).Abs().Value()
		est.Times = append(est.Times, t.Value())
		est.Running = append(est.Running, sum/elapsed)

		ratio := opts.Perturbation / dist
		raw := twin.RawValues()
		for i := range raw {
			raw[i] = base[i] + (raw[i]-base[i])*ratio
		}
		if twin, err = x.Layout().FromRaw(raw); err != nil {
			return nil, err
		}
	}
	est.Exponent = est.Running[len(est.Running)-1]
	return est, nil
}

func advance(d *integrators.Driver, sys dynamo.System, t0, t1 units.Quantity[units.Time], x dynamo.State, stats *dynamo.Stats) (dynamo.State, error) {
	res, err := d.Integrate(integrators.Problem{System: sys, T0: t0, TEnd: t1, Y0: x})
	if err != nil {
		return dynamo.State{}, err
	}
	stats.Accepted += res.Stats.Accepted
	stats.Rejected += res.Stats.Rejected
	stats.Evaluations += res.Stats.Evaluations
	if err := res.Err(); err != nil {
		return dynamo.State{}, fmt.Errorf("segment %s to %s: %w", t0, t1, err)
	}
	return res.Final().State, nil
}

// displace shifts every scaled component of base by delta.
func displace(x dynamo.State, base, scale []float64, delta float64) (dynamo.State, error) {
	raw := make([]float64, len(base))
	for i := range raw {
		raw[i] = base[i] + delta*scale[i]
	}
	return x.Layout().FromRaw(raw)
}

func separation(a, b, scale []float64) float64 {
	var sum float64
	for i := range a {
		d := (b[i] - a[i]) / scale[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
