// Package chart renders ionograms as inline SVG markup.
package chart

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Options control chart geometry.
type Options struct {
	// MaxFrequency is the right edge of the frequency axis in MHz.
	MaxFrequency float64
	Width        int
	Height       int
}

// DefaultOptions returns the default chart geometry.
func DefaultOptions() Options {
	return Options{MaxFrequency: 10, Width: 800, Height: 600}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.MaxFrequency <= 0 {
		o.MaxFrequency = d.MaxFrequency
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

type margins struct {
	top, right, bottom, left float64
}

// axis maps data values onto a pixel range.
type axis struct {
	min, max float64
	from, to float64
}

func (a axis) pos(v float64) float64 {
	if a.max == a.min {
		return a.from
	}
	return a.from + (v-a.min)/(a.max-a.min)*(a.to-a.from)
}

// ticks returns multiples of step within [min, max].
func ticks(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	start := math.Ceil(min/step-1e-9) * step
	if start == 0 {
		start = 0
	}
	var out []float64
	for v := start; v <= max+1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// niceStep picks a 1/2/5 step giving roughly n intervals.
func niceStep(span float64, n int) float64 {
	if span <= 0 || n <= 0 {
		return 1
	}
	raw := span / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch r := raw / mag; {
	case r <= 1:
		return mag
	case r <= 2:
		return 2 * mag
	case r <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatTick(v, step float64) string {
	if step >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// canvas accumulates SVG elements.
type canvas struct {
	b strings.Builder
}

func (c *canvas) open(id string, width, height int) {
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="chart" viewBox="0 0 %d %d" width="%d" height="%d" font-family="sans-serif" font-size="12">`,
		id, width, height, width, height)
	fmt.Fprintf(&c.b, `<rect x="0" y="0" width="%d" height="%d" fill="white"/>`, width, height)
}

func (c *canvas) close() string {
	c.b.WriteString(`</svg>`)
	return c.b.String()
}

func (c *canvas) clip(id string, x, y, w, h float64) {
	fmt.Fprintf(&c.b, `<defs><clipPath id="%s"><rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/></clipPath></defs>`,
		id, x, y, w, h)
}

func (c *canvas) text(x, y float64, anchor, s string, extra string) {
	fmt.Fprintf(&c.b, `<text x="%.2f" y="%.2f" text-anchor="%s"%s>%s</text>`, x, y, anchor, extra, html.EscapeString(s))
}

func (c *canvas) line(x1, y1, x2, y2 float64, style string) {
	fmt.Fprintf(&c.b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" %s/>`, x1, y1, x2, y2, style)
}

const gridStyle = `stroke="lightgrey" stroke-width="1"`

// frame draws the plot border, grid and tick labels.
func (c *canvas) frame(x, y axis, xStep, yStep float64, xLabel, yLabel string) {
	for _, v := range ticks(x.min, x.max, xStep) {
		px := x.pos(v)
		c.line(px, y.from, px, y.to, gridStyle)
		c.text(px, y.from+16, "middle", formatTick(v, xStep), "")
	}
	for _, v := range ticks(y.min, y.max, yStep) {
		py := y.pos(v)
		c.line(x.from, py, x.to, py, gridStyle)
		c.text(x.from-6, py+4, "end", formatTick(v, yStep), "")
	}
	fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="black"/>`,
		x.from, y.to, x.to-x.from, y.from-y.to)

	c.text((x.from+x.to)/2, y.from+36, "middle", xLabel, "")
	cy := (y.from + y.to) / 2
	c.text(x.from-48, cy, "middle", yLabel, fmt.Sprintf(` transform="rotate(-90 %.2f %.2f)"`, x.from-48, cy))
}
