package ionogram

import "math"

// Add returns the power sum of ion and other in dB. Noise levels are summed per
// cluster. Echoes present in both are summed and dropped when the sum does not
// exceed the noise level of their cluster; echoes only in other are added when
// they exceed the noise of ion.
func (ion *Ionogram) Add(other *Ionogram) *Ionogram {
	c := ion.Clone()
	c.AddInPlace(other)
	return c
}

// AddInPlace is Add without the copy.
func (ion *Ionogram) AddInPlace(other *Ionogram) {
	for i, n := range other.Noise {
		if i >= len(ion.Noise) {
			break
		}
		ion.Noise[i].Level = dbSum(ion.Noise[i].Level, n.Level)
	}

	type key struct{ f, h int }
	index := make(map[key]int, len(ion.Echoes))
	for i, e := range ion.Echoes {
		k := key{e.Freq, e.Height}
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}
	removed := make(map[int]bool)

	for _, e := range other.Echoes {
		k := key{e.Freq, e.Height}
		if i, ok := index[k]; ok {
			sum := dbSum(ion.Echoes[i].Amplitude, e.Amplitude)
			if sum > ion.noiseLevel(ion.Echoes[i].Freq) {
				ion.Echoes[i].Amplitude = sum
			} else {
				removed[i] = true
				delete(index, k)
			}
			continue
		}
		if e.Amplitude > ion.noiseLevel(e.Freq) {
			index[k] = len(ion.Echoes)
			ion.Echoes = append(ion.Echoes, e)
		}
	}

	if len(removed) > 0 {
		kept := ion.Echoes[:0]
		for i, e := range ion.Echoes {
			if !removed[i] {
				kept = append(kept, e)
			}
		}
		ion.Echoes = kept
	}
}

// Div returns ion averaged over n accumulated recordings. The echo with the largest
// height index is pinned to amplitude 1 so the height scale survives a round trip;
// amplitudes that fall below zero become NaN and noise is clamped at zero.
func (ion *Ionogram) Div(n int) *Ionogram {
	c := ion.Clone()
	if n <= 0 {
		return c
	}
	d := 20 * math.Log10(float64(n))

	for i := range c.Noise {
		c.Noise[i].Level -= d
		if c.Noise[i].Level < 0 {
			c.Noise[i].Level = 0
		}
	}

	top := -1
	for i, e := range c.Echoes {
		if top < 0 || e.Height > c.Echoes[top].Height {
			top = i
		}
	}
	for i := range c.Echoes {
		if i == top {
			c.Echoes[i].Amplitude = 1
			continue
		}
		c.Echoes[i].Amplitude -= d
		if c.Echoes[i].Amplitude < 0 {
			c.Echoes[i].Amplitude = math.NaN()
		}
	}
	return c
}

// noiseLevel returns the noise of cluster f, or 0 when the cluster has no sample.
func (ion *Ionogram) noiseLevel(f int) float64 {
	if f >= 0 && f < len(ion.Noise) {
		return ion.Noise[f].Level
	}
	return 0
}

func dbSum(a, b float64) float64 {
	return 20 * math.Log10(math.Pow(10, a/20)+math.Pow(10, b/20))
}
