package chart

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/ionoview/internal/ionogram"
)

// Noise renders noise level against frequency. ok is false when the ionogram
// has no noise samples.
func Noise(ion *ionogram.Ionogram, opts Options) (markup string, ok bool) {
	opts = opts.normalize()
	freqs := ion.Frequencies()

	type point struct{ f, level float64 }
	var points []point
	for _, n := range ion.Noise {
		if n.Freq < 0 || n.Freq >= len(freqs) || math.IsNaN(n.Level) {
			continue
		}
		if f := freqs[n.Freq]; f <= opts.MaxFrequency {
			points = append(points, point{f, n.Level})
		}
	}
	if len(points) == 0 {
		return "", false
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.level)
		hi = math.Max(hi, p.level)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad

	m := margins{top: 20, right: 100, bottom: 50, left: 70}
	w, h := float64(opts.Width), float64(opts.Height/2)

	xMax := opts.MaxFrequency
	if xMax <= points[0].f {
		xMax = points[len(points)-1].f + 1
	}
	x := axis{min: points[0].f, max: xMax, from: m.left, to: w - m.right}
	y := axis{min: lo, max: hi, from: h - m.bottom, to: m.top}

	var c canvas
	c.open("noise-chart", opts.Width, opts.Height/2)
	c.frame(x, y, 1, niceStep(hi-lo, 4), "frequency, MHz", "noise, dB")
	for _, p := range points {
		fmt.Fprintf(&c.b, `<circle cx="%.2f" cy="%.2f" r="2" fill="blue"><title>Frequency: %.2f MHz&#10;Noise: %.2f dB</title></circle>`,
			x.pos(p.f), y.pos(p.level), p.f, p.level)
	}
	return c.close(), true
}
