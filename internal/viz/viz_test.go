package viz

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/finfoot/internal/dynamo"
)

func TestCanvas(t *testing.T) {
	c := NewCanvas(3, 2)
	assert.Equal(t, strings.Repeat("⠀⠀⠀\n", 2), c.String())

	c.Set(0, 0)
	c.Set(1, 3)
	assert.Equal(t, '⢁', c.Grid[0][0])
	assert.True(t, c.IsSet(1, 3))
	assert.False(t, c.IsSet(1, 2))

	// out of range dots are dropped
	c.Set(-1, 0)
	c.Set(6, 0)
	c.Set(0, 8)
	assert.False(t, c.IsSet(6, 0))

	c.DrawLine(0, 7, 5, 7)
	for x := 0; x <= 5; x++ {
		assert.True(t, c.IsSet(x, 7), "x=%d", x)
	}
}

func TestPhase(t *testing.T) {
	n := 200
	xs, ys := make([]float64, n), make([]float64, n)
	for i := range xs {
		a := 2 * math.Pi * float64(i) / float64(n-1)
		xs[i], ys[i] = math.Cos(a), math.Sin(a)
	}
	ys[50] = math.NaN()

	c := Phase(xs, ys, 10, 5)
	// the circle touches every edge
	edge := func(set func(i int) bool) bool {
		for i := 0; i < 20; i++ {
			if set(i) {
				return true
			}
		}
		return false
	}
	assert.True(t, edge(func(y int) bool { return c.IsSet(0, y) }))
	assert.True(t, edge(func(y int) bool { return c.IsSet(19, y) }))
	assert.True(t, edge(func(x int) bool { return c.IsSet(x, 0) }))
	assert.True(t, edge(func(x int) bool { return c.IsSet(x, 19) }))
	// the centre stays empty
	assert.False(t, c.IsSet(10, 10))
}

func TestPhase_Flat(t *testing.T) {
	c := Phase([]float64{1, 1}, []float64{2, 2}, 4, 2)
	assert.True(t, c.IsSet(4, 4))
}

func TestResample(t *testing.T) {
	times := []float64{0, 1, 3, 4}
	values := []float64{0, 2, 2, 6}
	assert.Equal(t, []float64{0, 2, 2, 2, 6}, Resample(times, values, 5))
	assert.Equal(t, []float64{7, 7, 7}, Resample([]float64{1}, []float64{7}, 3))
	assert.Nil(t, Resample(nil, nil, 3))

	got := Resample([]float64{0, 0.5, 1}, []float64{0, 1, 0}, 5)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0}, got, 1e-12)
}

func TestSparkline(t *testing.T) {
	s := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8, false)
	assert.Contains(t, s, "▁")
	assert.Contains(t, s, "█")

	s = Sparkline([]float64{1e-6, 1e-3, 1}, 3, true)
	assert.Contains(t, s, "▁")
	assert.Contains(t, s, "█")

	assert.Equal(t, "────", Sparkline(nil, 4, false))
}

func TestChart(t *testing.T) {
	times := []float64{0, 0.1, 0.5, 1}
	out := Chart(times, []Series{
		{Name: "x", Unit: "m", Values: []float64{0, 1, 0, -1}},
		{Name: "theta", Unit: "1", Values: []float64{1, 1, 1, 1}},
	}, ChartOptions{Width: 40, Height: 8})
	assert.Contains(t, out, "x [m], theta")
	assert.Empty(t, Chart(nil, nil, ChartOptions{}))
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	times := []float64{0, 0.5, 1}
	series := []Series{{Name: "x", Unit: "m", Values: []float64{0, 1, math.NaN()}}}

	for _, name := range []string{"plot.png", "plot.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveImage(path, "test", times, series))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	err := SaveImage(filepath.Join(dir, "plot.txt"), "test", times, series)
	assert.ErrorContains(t, err, "unsupported image format")
}

func TestTermination(t *testing.T) {
	assert.Contains(t, Termination(dynamo.Success), "success")
	assert.Contains(t, Termination(dynamo.NonFiniteDetected), "non-finite-detected")
	assert.Contains(t, Field("method", "dopri5"), "dopri5")
}
