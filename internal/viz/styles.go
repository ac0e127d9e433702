package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/finfoot/internal/dynamo"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Bold(true)

	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Termination renders a termination reason, green only on success.
func Termination(t dynamo.Termination) string {
	if t == dynamo.Success {
		return Good.Render(t.String())
	}
	return Bad.Render(t.String())
}

// Field renders "label value".
func Field(label, value string) string {
	return Label.Render(label) + " " + Value.Render(value)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline compresses values into width cells, each showing the mean of
// its bucket. With log set, values are compared on a log scale.
func Sparkline(values []float64, width int, log bool) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	width = min(width, len(values))

	cells := make([]float64, width)
	for i := range cells {
		lo, hi := i*len(values)/width, (i+1)*len(values)/width
		var sum float64
		for _, v := range values[lo:hi] {
			if log {
				v = math.Log10(math.Abs(v) + math.SmallestNonzeroFloat64)
			}
			sum += v
		}
		cells[i] = sum / float64(hi-lo)
	}

	lo, hi := bounds(cells)
	var b strings.Builder
	for _, v := range cells {
		norm := (v - lo) / (hi - lo)
		idx := int(norm * float64(len(sparkChars)-1))
		idx = max(0, min(idx, len(sparkChars)-1))
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(SparkMid.Render(c))
		default:
			b.WriteString(SparkLow.Render(c))
		}
	}
	return b.String()
}
