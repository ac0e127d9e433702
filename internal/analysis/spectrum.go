package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/interp"
)

// PowerSpectrum is the one-sided power of a resampled series.
type PowerSpectrum struct {
	// Frequencies are in Hz, Power in squared units of the series.
	Frequencies []float64
	Power       []float64
	// Interval is the uniform sample spacing in s.
	Interval float64
}

// Dominant returns the frequency carrying the most power, ignoring the
// mean.
func (ps *PowerSpectrum) Dominant() (freq, power float64) {
	for i := 1; i < len(ps.Power); i++ {
		if ps.Power[i] > power {
			freq, power = ps.Frequencies[i], ps.Power[i]
		}
	}
	return freq, power
}

// Spectrum resamples (times, values) onto n uniform points by linear
// interpolation and transforms them. The mean is removed first.
func Spectrum(times, values []float64, n int) (*PowerSpectrum, error) {
	switch {
	case len(times) != len(values):
		return nil, fmt.Errorf("%w: %d times for %d values", ErrInvalidOptions, len(times), len(values))
	case len(times) < 2:
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidOptions, len(times))
	case n < 4:
		return nil, fmt.Errorf("%w: %d resample points", ErrInvalidOptions, n)
	}

	xs, ys := ascending(times, values)
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("analysis: resample: %w", err)
	}
	lo, hi := xs[0], xs[len(xs)-1]
	dt := (hi - lo) / float64(n-1)
	seq := make([]float64, n)
	var mean float64
	for i := range seq {
		seq[i] = pl.Predict(lo + float64(i)*dt)
		mean += seq[i]
	}
	mean /= float64(n)
	for i := range seq {
		seq[i] -= mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, seq)
	ps := &PowerSpectrum{
		Frequencies: make([]float64, len(coeff)),
		Power:       make([]float64, len(coeff)),
		Interval:    dt,
	}
	norm := 1 / float64(n)
	for i, c := range coeff {
		ps.Frequencies[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c) * norm
		ps.Power[i] = a * a
	}
	return ps, nil
}

// ascending orders samples by time and drops repeated times so the
// interpolant is well defined for backward runs too.
func ascending(times, values []float64) ([]float64, []float64) {
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })
	xs := make([]float64, 0, len(times))
	ys := make([]float64, 0, len(times))
	for _, i := range idx {
		if math.IsNaN(times[i]) || math.IsNaN(values[i]) {
			continue
		}
		if n := len(xs); n > 0 && xs[n-1] == times[i] {
			ys[n-1] = values[i]
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, values[i])
	}
	return xs, ys
}
