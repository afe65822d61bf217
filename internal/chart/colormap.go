package chart

import (
	"fmt"
	"math"
)

// Jet maps t in [0, 1] to the classic jet colour map.
func Jet(t float64) string {
	if math.IsNaN(t) {
		t = 0
	}
	t = clamp01(t)
	r := clamp01(1.5 - math.Abs(4*t-3))
	g := clamp01(1.5 - math.Abs(4*t-2))
	b := clamp01(1.5 - math.Abs(4*t-1))
	return fmt.Sprintf("#%02x%02x%02x", int(math.Round(r*255)), int(math.Round(g*255)), int(math.Round(b*255)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// norm scales amplitudes into [0, 1].
type norm struct {
	min, max float64
}

func (n norm) at(v float64) float64 {
	if n.max == n.min {
		return 0.5
	}
	return (v - n.min) / (n.max - n.min)
}
