package viz

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one component over time in canonical units.
type Series struct {
	Name   string
	Unit   string
	Values []float64
}

func (s Series) Label() string {
	if s.Unit == "" || s.Unit == "1" {
		return s.Name
	}
	return fmt.Sprintf("%s [%s]", s.Name, s.Unit)
}

// Resample linearly interpolates values sampled at increasing times onto
// n evenly spaced points spanning the same interval.
func Resample(times, values []float64, n int) []float64 {
	m := min(len(times), len(values))
	if m == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if m == 1 || n == 1 {
		for i := range out {
			out[i] = values[0]
		}
		if n > 1 {
			out[n-1] = values[m-1]
		}
		return out
	}
	t0, t1 := times[0], times[m-1]
	j := 0
	for i := range out {
		t := t0 + (t1-t0)*float64(i)/float64(n-1)
		for j < m-2 && times[j+1] < t {
			j++
		}
		dt := times[j+1] - times[j]
		if dt == 0 {
			out[i] = values[j+1]
			continue
		}
		f := (t - times[j]) / dt
		out[i] = values[j] + f*(values[j+1]-values[j])
	}
	return out
}

type ChartOptions struct {
	Width, Height int
	Caption       string
}

// Chart renders series against times as one terminal chart.
func Chart(times []float64, series []Series, opts ChartOptions) string {
	if len(series) == 0 || len(times) == 0 {
		return ""
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	height := opts.Height
	if height <= 0 {
		height = 15
	}
	data := make([][]float64, len(series))
	labels := make([]string, len(series))
	for i, s := range series {
		data[i] = Resample(times, s.Values, width)
		labels[i] = s.Label()
	}
	caption := opts.Caption
	if caption == "" {
		caption = fmt.Sprintf("%s, t = %g .. %g s", strings.Join(labels, ", "), times[0], times[len(times)-1])
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// imageFormats are the extensions gonum/plot can write.
var imageFormats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// SaveImage plots series against times (original samples, not resampled)
// into path; the format follows the extension.
func SaveImage(path, title string, times []float64, series []Series) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageFormats[ext] {
		formats := make([]string, 0, len(imageFormats))
		for f := range imageFormats {
			formats = append(formats, f)
		}
		sort.Strings(formats)
		return fmt.Errorf("viz: unsupported image format %q (want one of %s)", ext, strings.Join(formats, " "))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, 0, len(times))
		for k, t := range times {
			if k < len(s.Values) && finite(s.Values[k]) {
				pts = append(pts, plotter.XY{X: t, Y: s.Values[k]})
			}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("viz: series %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Label(), line)
	}
	if len(series) == 1 {
		p.Y.Label.Text = series[0].Label()
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
