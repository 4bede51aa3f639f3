// Package chart draws terminal charts for sentiment series: stacked
// horizontal bars per label, sparklines and meter bars.
package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxSeries is the number of series a chart draws; extras are ignored.
const MaxSeries = 3

// Series is a named sequence of values, one per label.
type Series struct {
	Name   string
	Values []int
}

// Renderer consumes labels and up to MaxSeries series and redraws. It holds
// no state relevant to pagination.
type Renderer interface {
	Render(labels []string, series []Series)
}

// Palette colours, in series order: positive, negative, neutral.
var (
	PositiveColor = lipgloss.Color("10")
	NegativeColor = lipgloss.Color("9")
	NeutralColor  = lipgloss.Color("11")

	defaultColors = []lipgloss.Color{PositiveColor, NegativeColor, NeutralColor}
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const (
	fullBlock  = "█"
	emptyBlock = "░"
)

// Canvas is a Renderer that draws a stacked bar per label into a string.
type Canvas struct {
	Width  int // bar width in cells
	Colors []lipgloss.Color

	out     string
	renders int
}

// NewCanvas returns a Canvas with bars width cells wide.
func NewCanvas(width int) *Canvas {
	return &Canvas{Width: width, Colors: defaultColors}
}

// Render draws the chart and keeps it for String.
func (c *Canvas) Render(labels []string, series []Series) {
	c.renders++
	if len(series) > MaxSeries {
		series = series[:MaxSeries]
	}
	if len(labels) == 0 {
		c.out = labelStyle.Render("  (no trend data)") + "\n"
		return
	}

	rows := make([][]int, len(labels))
	maxTotal := 0
	for i := range labels {
		rows[i] = make([]int, len(series))
		total := 0
		for j, s := range series {
			if i < len(s.Values) {
				rows[i][j] = s.Values[i]
				total += s.Values[i]
			}
		}
		maxTotal = max(maxTotal, total)
	}

	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, lipgloss.Width(l))
	}

	var b strings.Builder
	b.WriteString(legend(series, c.Colors))
	b.WriteString("\n")
	for i, l := range labels {
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-*s ", labelW, l)))
		b.WriteString(Stacked(rows[i], maxTotal, c.Width, c.Colors))
		b.WriteString(labelStyle.Render(" " + joinInts(rows[i], "/")))
		b.WriteString("\n")
	}
	c.out = b.String()
}

// String returns the last rendered chart.
func (c *Canvas) String() string { return c.out }

// Renders reports how many times Render has been called.
func (c *Canvas) Renders() int { return c.renders }

func legend(series []Series, colors []lipgloss.Color) string {
	parts := make([]string, len(series))
	for i, s := range series {
		parts[i] = lipgloss.NewStyle().Foreground(colorAt(colors, i)).Render("■") + " " + s.Name
	}
	return "  " + strings.Join(parts, "  ")
}

// Stacked draws values as adjacent coloured segments scaled so that scale
// fills width cells. Segment boundaries are rounded cumulatively, so the
// segments of a row never exceed width.
func Stacked(values []int, scale, width int, colors []lipgloss.Color) string {
	var b strings.Builder
	used := 0
	cum := 0
	for i, v := range values {
		cum += v
		end := scaled(cum, scale, width)
		if n := end - used; n > 0 {
			b.WriteString(lipgloss.NewStyle().Foreground(colorAt(colors, i)).Render(strings.Repeat(fullBlock, n)))
			used = end
		}
	}
	if rest := width - used; rest > 0 {
		b.WriteString(emptyStyle.Render(strings.Repeat(emptyBlock, rest)))
	}
	return b.String()
}

// Meter draws a single bar of width cells filled to frac (clamped to [0,1]).
func Meter(frac float64, width int, color lipgloss.Color) string {
	frac = min(max(frac, 0), 1)
	n := int(frac*float64(width) + 0.5)
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(fullBlock, n)) +
		emptyStyle.Render(strings.Repeat(emptyBlock, width-n))
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline maps values onto eight block heights, scaled from zero to the
// maximum value.
func Sparkline(values []int) string {
	top := 0
	for _, v := range values {
		top = max(top, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if top > 0 && v > 0 {
			idx = v * (len(sparkTicks) - 1) / top
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}

func scaled(v, scale, width int) int {
	if scale <= 0 {
		return 0
	}
	return (v*width*2 + scale) / (scale * 2)
}

func colorAt(colors []lipgloss.Color, i int) lipgloss.Color {
	if len(colors) == 0 {
		return defaultColors[i%len(defaultColors)]
	}
	return colors[i%len(colors)]
}

func joinInts(vals []int, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}
