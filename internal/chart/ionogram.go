package chart

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/ionoview/internal/ionogram"
)

const colorBarSteps = 32

// Ionogram renders the amplitude heatmap of ion.
func Ionogram(ion *ionogram.Ionogram, opts Options) (string, error) {
	opts = opts.normalize()

	freqs := ion.Frequencies()
	heights := ion.Heights()
	if len(freqs) < 2 || len(heights) < 2 {
		return "", fmt.Errorf("ionogram: %w", ErrNoData)
	}

	amp := norm{min: math.Inf(1), max: math.Inf(-1)}
	cells := 0
	for _, e := range ion.Echoes {
		if math.IsNaN(e.Amplitude) || !cellInRange(e, len(freqs), len(heights)) {
			continue
		}
		amp.min = math.Min(amp.min, e.Amplitude)
		amp.max = math.Max(amp.max, e.Amplitude)
		cells++
	}
	if cells == 0 {
		return "", fmt.Errorf("ionogram: %w", ErrNoData)
	}

	m := margins{top: 60, right: 100, bottom: 50, left: 70}
	w, h := float64(opts.Width), float64(opts.Height)

	xMax := opts.MaxFrequency
	if xMax <= freqs[0] {
		xMax = freqs[len(freqs)-1]
	}
	x := axis{min: freqs[0], max: xMax, from: m.left, to: w - m.right}
	y := axis{min: heights[0], max: heights[len(heights)-1], from: h - m.bottom, to: m.top}

	yStep := 100.0
	if y.max-y.min < 300 {
		yStep = niceStep(y.max-y.min, 5)
	}

	var c canvas
	c.open("ionogram-chart", opts.Width, opts.Height)
	c.clip("ionogram-plot", x.from, y.to, x.to-x.from, y.from-y.to)

	c.text(w/2, 22, "middle", ion.Path(), ` font-size="14"`)
	c.text(w/2, 40, "middle", ion.Time.Format("02.01.2006 15:04:05")+" UT", ` font-size="14"`)

	c.b.WriteString(`<g clip-path="url(#ionogram-plot)">`)
	for _, e := range ion.Echoes {
		if math.IsNaN(e.Amplitude) || !cellInRange(e, len(freqs), len(heights)) {
			continue
		}
		x0, x1 := x.pos(freqs[e.Freq]), x.pos(freqs[e.Freq+1])
		y0, y1 := y.pos(heights[e.Height+1]), y.pos(heights[e.Height])
		fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>Frequency: %.2f MHz&#10;Range: %.2f km&#10;Amplitude: %.2f dB</title></rect>`,
			x0, y0, math.Max(x1-x0, 0.5), math.Max(y1-y0, 0.5), Jet(amp.at(e.Amplitude)),
			freqs[e.Freq], heights[e.Height], e.Amplitude)
	}
	c.b.WriteString(`</g>`)

	yLabel := "range, km"
	if ion.Mode() == ionogram.ModeVertical {
		yLabel = "virtual height, km"
	}
	c.frame(x, y, 1, yStep, "frequency, MHz", yLabel)
	c.colorBar(amp, w-m.right+20, y)

	return c.close(), nil
}

func cellInRange(e ionogram.Echo, nFreqEdges, nHeightEdges int) bool {
	return e.Freq >= 0 && e.Freq+1 < nFreqEdges && e.Height >= 0 && e.Height+1 < nHeightEdges
}

// colorBar draws the amplitude scale at x along the vertical extent of y.
func (c *canvas) colorBar(amp norm, x float64, y axis) {
	const width = 16
	height := y.from - y.to
	step := height / colorBarSteps
	for i := 0; i < colorBarSteps; i++ {
		t := (float64(i) + 0.5) / colorBarSteps
		fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%d" height="%.2f" fill="%s"/>`,
			x, y.from-float64(i+1)*step, width, step+0.5, Jet(t))
	}
	fmt.Fprintf(&c.b, `<rect x="%.2f" y="%.2f" width="%d" height="%.2f" fill="none" stroke="black"/>`, x, y.to, width, height)
	c.text(x+width/2, y.to-10, "middle", "Amplitude, dB", "")

	scale := axis{min: amp.min, max: amp.max, from: y.from, to: y.to}
	if amp.max == amp.min {
		c.text(x+width+4, (y.from+y.to)/2+4, "start", formatTick(amp.min, 1), "")
		return
	}
	for v := amp.min; v <= amp.max+1e-9; v += 10 {
		c.text(x+width+4, scale.pos(v)+4, "start", formatTick(v, 1), "")
	}
}
